package counter

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
)

// Service is the counter reconciler: the single component allowed to
// mutate displayed counts. Everything else hands it a delta or asks for
// a sweep; a client-computed count is never accepted anywhere.
type Service struct {
	postRepo domain.PostRepository
	userRepo domain.UserRepository
}

var _ domain.CounterReconciler = (*Service)(nil)

func NewService(p domain.PostRepository, u domain.UserRepository) *Service {
	return &Service{
		postRepo: p,
		userRepo: u,
	}
}

func (s *Service) Apply(ctx context.Context, postID int64, kind domain.CounterKind, delta int64) (int64, error) {
	if !kind.Valid() {
		return 0, domain.ErrBadParamInput
	}
	newCount, err := s.postRepo.AddCounter(ctx, postID, kind, delta)
	if err != nil {
		logrus.Errorf("failed to apply %s%+d to post %d: %v", kind, delta, postID, err)
		return 0, err
	}
	return newCount, nil
}

func (s *Service) Recount(ctx context.Context, postID int64, kind domain.CounterKind) (int64, error) {
	if !kind.Valid() {
		return 0, domain.ErrBadParamInput
	}
	return s.postRepo.Recount(ctx, postID, kind)
}

func (s *Service) ApplyUser(ctx context.Context, userID int64, kind domain.UserCounterKind, delta int64) (int64, error) {
	newCount, err := s.userRepo.AddCounter(ctx, userID, kind, delta)
	if err != nil {
		logrus.Errorf("failed to apply %s%+d to user %d: %v", kind, delta, userID, err)
		return 0, err
	}
	return newCount, nil
}

func (s *Service) RecountFollows(ctx context.Context, userID int64) (int64, int64, error) {
	return s.userRepo.RecountFollows(ctx, userID)
}
