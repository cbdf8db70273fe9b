package follow

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
)

type Service struct {
	followRepo domain.FollowRepository
	userRepo   domain.UserRepository
	reconciler domain.CounterReconciler
	dispatcher domain.NotificationDispatcher
}

var _ domain.FollowUsecase = (*Service)(nil)

func NewService(f domain.FollowRepository, u domain.UserRepository, cr domain.CounterReconciler, nd domain.NotificationDispatcher) *Service {
	return &Service{
		followRepo: f,
		userRepo:   u,
		reconciler: cr,
		dispatcher: nd,
	}
}

// SetFollowing drives the follow edge to desired. Self-follow is rejected
// outright; a transition to followed emits a follow notification.
func (s *Service) SetFollowing(ctx context.Context, followerID, followingID int64, desired bool) (domain.FollowResult, error) {
	if followerID == followingID {
		return domain.FollowResult{}, domain.ErrInvalidTarget
	}

	followee, err := s.userRepo.GetByID(ctx, followingID)
	if err != nil {
		return domain.FollowResult{}, domain.ErrInvalidTarget
	}

	changed, err := s.followRepo.SetState(ctx, followerID, followingID, desired)
	if err != nil {
		return domain.FollowResult{}, err
	}

	followerCount := followee.FollowersCount
	if changed {
		delta := int64(1)
		if !desired {
			delta = -1
		}

		followerCount, err = s.reconciler.ApplyUser(ctx, followingID, domain.CounterFollowers, delta)
		if err != nil {
			logrus.Errorf("follower counter apply failed for user %d: %v", followingID, err)
			// the cached column is now behind the committed edge, count
			// from the edge table instead of serving the pre-write value
			followerCount, err = s.followRepo.CountFollowers(ctx, followingID)
			if err != nil {
				logrus.Errorf("follower recount fallback failed for user %d: %v", followingID, err)
				followerCount = followee.FollowersCount
			}
		}
		if _, err := s.reconciler.ApplyUser(ctx, followerID, domain.CounterFollowing, delta); err != nil {
			logrus.Errorf("following counter apply failed for user %d: %v", followerID, err)
		}

		if desired {
			s.dispatcher.Dispatch(domain.Notification{
				RecipientID: followingID,
				ActorID:     followerID,
				Type:        domain.NotifyFollow,
				TargetID:    followerID,
			})
		}
	}

	return domain.FollowResult{
		Following:     desired,
		FollowerCount: followerCount,
	}, nil
}

// Relationship reports whether the viewer follows the user, plus both of
// the user's follow counts straight from the edge table. Clients use it to
// seed their local toggle state.
func (s *Service) Relationship(ctx context.Context, viewerID, userID int64) (domain.Relationship, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return domain.Relationship{}, err
	}

	following, err := s.followRepo.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return domain.Relationship{}, err
	}
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return domain.Relationship{}, err
	}
	followingCount, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return domain.Relationship{}, err
	}

	return domain.Relationship{
		Following:      following,
		FollowersCount: followers,
		FollowingCount: followingCount,
	}, nil
}

func (s *Service) Followers(ctx context.Context, userID int64, limit int64) ([]domain.User, error) {
	ids, err := s.followRepo.FetchFollowerIDs(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByIDs(ctx, ids)
}

func (s *Service) Following(ctx context.Context, userID int64, limit int64) ([]domain.User, error) {
	ids, err := s.followRepo.FetchFollowingIDs(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByIDs(ctx, ids)
}
