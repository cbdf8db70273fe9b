package workers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
)

// notificationDispatcher is the fire-and-forget fan-out boundary: a full
// queue drops the record, a failed insert is logged and swallowed. Nothing
// on this path ever reaches the caller of the triggering mutation.
type notificationDispatcher struct {
	notificationRepo domain.NotificationRepository
	ch               chan domain.Notification
}

var _ domain.NotificationDispatcher = (*notificationDispatcher)(nil)

func NewNotificationDispatcher(nr domain.NotificationRepository) *notificationDispatcher {
	return &notificationDispatcher{
		notificationRepo: nr,
		ch:               make(chan domain.Notification, 1024),
	}
}

func (d *notificationDispatcher) Dispatch(n domain.Notification) {
	if n.RecipientID == n.ActorID {
		return // never notify an actor about their own action
	}
	select {
	case d.ch <- n:
	default:
		logrus.Info("notificationDispatcher's channel is full, record dropped")
	}
}

func (d *notificationDispatcher) Start(ctx context.Context) {
	for {
		select {
		case n := <-d.ch:
			if err := d.notificationRepo.Store(ctx, &n); err != nil {
				logrus.Warnf("failed to store notification for user %d: %v", n.RecipientID, err)
			}
		case <-ctx.Done():
			logrus.Info("shutting down notificationDispatcher, draining queue...")
			d.drain()
			return
		}
	}
}

func (d *notificationDispatcher) drain() {
	for {
		select {
		case n := <-d.ch:
			if err := d.notificationRepo.Store(context.Background(), &n); err != nil {
				logrus.Warnf("failed to store notification for user %d: %v", n.RecipientID, err)
			}
		default:
			return
		}
	}
}
