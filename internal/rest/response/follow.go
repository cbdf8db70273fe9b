package response

import "github.com/pulsefeed/engagement-core/domain"

type Follow struct {
	Following     bool  `json:"following"`
	FollowerCount int64 `json:"follower_count"`
}

func NewFollowFromDomain(r domain.FollowResult) Follow {
	return Follow{
		Following:     r.Following,
		FollowerCount: r.FollowerCount,
	}
}

type Relationship struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

func NewRelationshipFromDomain(r domain.Relationship) Relationship {
	return Relationship{
		Following:      r.Following,
		FollowersCount: r.FollowersCount,
		FollowingCount: r.FollowingCount,
	}
}

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}

func NewUserFromDomain(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Followers: u.FollowersCount,
		Following: u.FollowingCount,
	}
}
