package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/pulsefeed/engagement-core/internal/repository"
	mysqlRepo "github.com/pulsefeed/engagement-core/internal/repository/mysql"
	myRedisCache "github.com/pulsefeed/engagement-core/internal/repository/redis"
	"github.com/pulsefeed/engagement-core/internal/workers"

	"github.com/pulsefeed/engagement-core/internal/rest"
	"github.com/pulsefeed/engagement-core/internal/rest/middleware"
	"github.com/pulsefeed/engagement-core/internal/usecase/counter"
	"github.com/pulsefeed/engagement-core/internal/usecase/engagement"
	"github.com/pulsefeed/engagement-core/internal/usecase/follow"
	"github.com/pulsefeed/engagement-core/internal/usecase/notification"
	"github.com/pulsefeed/engagement-core/internal/usecase/poll"
)

const (
	defaultTimeout      = 30
	defaultAddress      = ":9090"
	defaultCacheDB      = 0
	defaultBloomBitSize = 10000000
	dbMaxRetry          = 10
	dbRetryIntervalSec  = 2
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func main() {
	//prepare database
	dbHost := os.Getenv("DATABASE_HOST")
	dbPort := os.Getenv("DATABASE_PORT")
	dbUser := os.Getenv("DATABASE_USER")
	dbPass := os.Getenv("DATABASE_PASS")
	dbName := os.Getenv("DATABASE_NAME")
	connection := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbUser, dbPass, dbHost, dbPort, dbName)
	val := url.Values{}
	val.Add("parseTime", "1")
	val.Add("loc", "UTC")
	dsn := fmt.Sprintf("%s?%s", connection, val.Encode())

	var (
		db  *gorm.DB
		err error
	)

	// TranslateError 让唯一索引冲突变成 gorm.ErrDuplicatedKey
	for i := range dbMaxRetry {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Printf("failed to open connection to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		} else {
			sqlDB, err := db.DB()
			if err != nil {
				log.Printf("failed to get sql.DB from gorm.DB (attempt %d/%d): %v", i+1, dbMaxRetry, err)
				continue
			}
			err = sqlDB.Ping()
			if err == nil {
				break
			}
			log.Printf("failed to ping database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
			_ = sqlDB.Close()
		}

		time.Sleep(dbRetryIntervalSec * time.Second)
	}

	if err != nil {
		log.Fatal("could not connect to database after retries:", err)
	}

	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("got error when getting sql.DB from gorm.DB", err)
		}
		if err := sqlDB.Close(); err != nil {
			log.Fatal("got error when closing the DB connection", err)
		}
	}()

	// prepare cache
	cacheHost := os.Getenv("CACHE_HOST")
	cachePort := os.Getenv("CACHE_PORT")
	cachePass := os.Getenv("CACHE_PASS")
	cacheDBStr := os.Getenv("CACHE_DB")
	cacheDB, err := strconv.Atoi(cacheDBStr)
	if err != nil {
		log.Println("failed to parse cacheDB, using default cacheDB")
		cacheDB = defaultCacheDB
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cacheHost + ":" + cachePort,
		Password: cachePass,
		DB:       cacheDB,
	})
	defer func() {
		err = client.Close()
		if err != nil {
			log.Fatal("got error when closing the cache connection", err)
		}
	}()

	_, err = client.Ping(context.Background()).Result()
	if err != nil {
		log.Fatal("failed to open connection to cache", err)
		return
	}

	// prepare gin
	route := gin.Default()
	route.Use(middleware.CORS())
	timeoutStr := os.Getenv("CONTEXT_TIMEOUT")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		log.Println("failed to parse timeout, using default timeout")
		timeout = defaultTimeout
	}
	timeoutContext := time.Duration(timeout) * time.Second
	route.Use(middleware.SetRequestContextWithTimeout(timeoutContext))

	// Prepare Repository
	userRepo := mysqlRepo.NewUserRepository(db)
	engagementRepo := mysqlRepo.NewEngagementRepository(db)
	pollRepo := mysqlRepo.NewPollRepository(db)
	followRepo := mysqlRepo.NewFollowRepository(db)
	notificationRepo := mysqlRepo.NewNotificationRepository(db)

	// Post相关的三层架构
	// 1. DB层
	postDBRepo := mysqlRepo.NewPostRepository(db)
	// 2. Cache层
	postCache := myRedisCache.NewPostCache(client)
	engagedSetCache := myRedisCache.NewEngagementSetCache(client)
	// 3. Repository协调层
	postRepo := repository.NewPostCoordinator(postDBRepo, postCache)

	bloomBitSizeStr := os.Getenv("BLOOM_FILTER_SIZE")
	bloomBitSize, err := strconv.ParseUint(bloomBitSizeStr, 10, 64)
	if err != nil {
		log.Printf("failed to parse bloom bit size, using default size")
		bloomBitSize = defaultBloomBitSize
	}
	bloomRepo := myRedisCache.NewRedisBloomRepo(client, bloomBitSize)

	// Start workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconcileWorker := workers.NewReconcileWorker(postRepo, postCache)
	go reconcileWorker.Start(ctx)

	dispatcher := workers.NewNotificationDispatcher(notificationRepo)
	go dispatcher.Start(ctx)

	// Build service layer
	jwtSecret := os.Getenv("JWT_SECRET")

	reconciler := counter.NewService(postRepo, userRepo)
	engagementSvc := engagement.NewService(engagementRepo, postRepo, engagedSetCache, postCache, reconciler, reconcileWorker, dispatcher, bloomRepo)
	pollSvc := poll.NewService(pollRepo, postRepo, dispatcher)
	followSvc := follow.NewService(followRepo, userRepo, reconciler, dispatcher)
	notificationSvc := notification.NewService(notificationRepo)

	engagementHandler := rest.NewEngagementHandler(engagementSvc)
	pollHandler := rest.NewPollHandler(pollSvc)
	followHandler := rest.NewFollowHandler(followSvc)
	notificationHandler := rest.NewNotificationHandler(notificationSvc)
	maintenanceHandler := rest.NewMaintenanceHandler(reconciler)

	authMiddleware := middleware.AuthMiddleware(jwtSecret)

	// Prepare bloom filter
	if err := engagementSvc.InitBloomFilter(ctx); err != nil {
		log.Printf("failed to init bloom filter: %v\n", err)
		return
	}

	// Register routes
	route.GET("/users/:id/followers", followHandler.Followers)
	route.GET("/users/:id/following", followHandler.Following)

	authorized := route.Group("/")
	authorized.Use(authMiddleware)
	{
		authorized.POST("/posts/:id/like", engagementHandler.Like)
		authorized.DELETE("/posts/:id/like", engagementHandler.Unlike)
		authorized.POST("/posts/:id/repost", engagementHandler.Repost)
		authorized.DELETE("/posts/:id/repost", engagementHandler.Unrepost)
		authorized.POST("/posts/:id/bookmark", engagementHandler.Bookmark)
		authorized.DELETE("/posts/:id/bookmark", engagementHandler.Unbookmark)
		authorized.POST("/posts/:id/engagements/:kind/toggle", engagementHandler.Toggle)
		authorized.PUT("/posts/:id/engagements/:kind", engagementHandler.SetState)
		authorized.GET("/posts/:id/engagement", engagementHandler.Summary)
		authorized.GET("/me/engagements/:kind", engagementHandler.ListEngaged)

		authorized.POST("/polls", pollHandler.Create)
		authorized.POST("/polls/:id/votes", pollHandler.CastVote)
		authorized.GET("/polls/:id", pollHandler.Snapshot)

		authorized.PUT("/users/:id/following", followHandler.SetFollowing)
		authorized.POST("/users/:id/follow", followHandler.Follow)
		authorized.DELETE("/users/:id/follow", followHandler.Unfollow)
		authorized.GET("/users/:id/relationship", followHandler.Relationship)

		authorized.GET("/notifications", notificationHandler.Fetch)
		authorized.GET("/notifications/unread_count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authorized.POST("/notifications/read_all", notificationHandler.MarkAllRead)

		authorized.POST("/internal/posts/:id/recount/:kind", maintenanceHandler.Recount)
		authorized.POST("/internal/users/:id/recount", maintenanceHandler.RecountUser)
	}

	// Start Server
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	srv := &http.Server{
		Addr:    address,
		Handler: route,
	}
	go func() {
		log.Printf("Server is running on %s\n", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err) // nolint
		}
	}()

	// shutdown
	<-ctx.Done()
	log.Println("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Waiting for workers to cleanup...")
	time.Sleep(2 * time.Second)

	log.Println("Server exiting")
}
