package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotifyLike   NotificationType = "like"
	NotifyRepost NotificationType = "repost"
	NotifyFollow NotificationType = "follow"
	NotifyReply  NotificationType = "reply"
	NotifyVote   NotificationType = "vote"
)

// Notification is an activity record created as a side effect of a
// successful edge mutation whose actor differs from the target's owner.
// Delivery is best-effort: its absence never blocks the primary mutation.
type Notification struct {
	ID          int64
	RecipientID int64
	ActorID     int64
	Type        NotificationType
	TargetID    int64 // post ID or user ID depending on Type; 0 when absent
	Read        bool
	CreatedAt   time.Time
}

type NotificationRepository interface {
	Store(ctx context.Context, n *Notification) error

	// FetchByRecipient pages newest-first by created_at cursor.
	FetchByRecipient(ctx context.Context, recipientID int64, cursor string, limit int64) ([]Notification, string, error)

	UnreadCount(ctx context.Context, recipientID int64) (int64, error)

	// MarkRead flips one notification owned by the recipient.
	MarkRead(ctx context.Context, id, recipientID int64) error

	MarkAllRead(ctx context.Context, recipientID int64) error
}

// NotificationDispatcher is the fire-and-forget fan-out boundary.
// Dispatch never blocks and never reports failure upward; a full queue
// drops the record, a failed insert is logged and swallowed.
type NotificationDispatcher interface {
	Start(ctx context.Context)
	Dispatch(n Notification)
}

type NotificationUsecase interface {
	Fetch(ctx context.Context, recipientID int64, cursor string, limit int64) ([]Notification, string, error)
	UnreadCount(ctx context.Context, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
}
