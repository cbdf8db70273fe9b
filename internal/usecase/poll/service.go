package poll

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
)

type Service struct {
	pollRepo   domain.PollRepository
	postRepo   domain.PostRepository
	dispatcher domain.NotificationDispatcher
	now        func() time.Time
}

var _ domain.PollUsecase = (*Service)(nil)

func NewService(p domain.PollRepository, pr domain.PostRepository, nd domain.NotificationDispatcher) *Service {
	return &Service{
		pollRepo:   p,
		postRepo:   pr,
		dispatcher: nd,
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, p *domain.Poll) error {
	if len(p.Options) < domain.PollMinOptions || len(p.Options) > domain.PollMaxOptions {
		return domain.ErrBadParamInput
	}
	if !s.now().Before(p.ExpiresAt) {
		return domain.ErrBadParamInput
	}
	if _, err := s.postRepo.GetByID(ctx, p.PostID); err != nil {
		return domain.ErrInvalidTarget
	}
	return s.pollRepo.Store(ctx, p)
}

// CastVote evaluates expiry on the server clock; the client countdown is
// advisory only. The vote and its two tally increments commit atomically
// in the repository, so total_votes moves by exactly one per accepted vote.
func (s *Service) CastVote(ctx context.Context, pollID, userID, optionID int64) (domain.PollResult, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return domain.PollResult{}, err
	}

	if p.Closed(s.now()) {
		return domain.PollResult{Snapshot: s.buildSnapshot(ctx, p, userID)}, domain.ErrPollClosed
	}

	valid := false
	for _, opt := range p.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return domain.PollResult{Snapshot: s.buildSnapshot(ctx, p, userID)}, domain.ErrInvalidTarget
	}

	err = s.pollRepo.CastVote(ctx, domain.PollVote{
		PollID:   pollID,
		UserID:   userID,
		OptionID: optionID,
	})
	if err != nil {
		return domain.PollResult{Snapshot: s.buildSnapshot(ctx, p, userID)}, err
	}

	s.notifyOwner(ctx, p, userID)

	// re-read for the post-vote tallies
	p, err = s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return domain.PollResult{}, err
	}
	return domain.PollResult{
		Accepted: true,
		Snapshot: s.buildSnapshot(ctx, p, userID),
	}, nil
}

func (s *Service) Snapshot(ctx context.Context, pollID, viewerID int64) (domain.PollSnapshot, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return domain.PollSnapshot{}, err
	}
	return s.buildSnapshot(ctx, p, viewerID), nil
}

// buildSnapshot applies the display math: percent is 0 when nobody voted,
// and on an exact tie the leading mark goes to the first option in
// declared order.
func (s *Service) buildSnapshot(ctx context.Context, p domain.Poll, viewerID int64) domain.PollSnapshot {
	snapshot := domain.PollSnapshot{
		PollID:     p.ID,
		Question:   p.Question,
		ExpiresAt:  p.ExpiresAt,
		Closed:     p.Closed(s.now()),
		TotalVotes: p.TotalVotes,
	}

	if viewerID != 0 {
		vote, err := s.pollRepo.GetVote(ctx, p.ID, viewerID)
		if err == nil {
			snapshot.VotedOptionID = vote.OptionID
		} else if !errors.Is(err, domain.ErrNotFound) {
			logrus.Warnf("failed to read viewer vote for poll %d: %v", p.ID, err)
		}
	}

	leading := -1
	var maxVotes int64
	for i, opt := range p.Options {
		percent := 0
		if p.TotalVotes > 0 {
			percent = int(math.Round(float64(opt.Votes) / float64(p.TotalVotes) * 100))
		}
		snapshot.Options = append(snapshot.Options, domain.PollOptionView{
			ID:      opt.ID,
			Text:    opt.Text,
			Votes:   opt.Votes,
			Percent: percent,
		})
		if opt.Votes > maxVotes {
			maxVotes = opt.Votes
			leading = i
		}
	}
	if leading >= 0 {
		snapshot.Options[leading].Leading = true
	}

	return snapshot
}

func (s *Service) notifyOwner(ctx context.Context, p domain.Poll, actorID int64) {
	post, err := s.postRepo.GetByID(ctx, p.PostID)
	if err != nil {
		logrus.Warnf("skipping vote notification, post %d unavailable: %v", p.PostID, err)
		return
	}
	s.dispatcher.Dispatch(domain.Notification{
		RecipientID: post.User.ID,
		ActorID:     actorID,
		Type:        domain.NotifyVote,
		TargetID:    p.PostID,
	})
}
