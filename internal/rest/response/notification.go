package response

import "github.com/pulsefeed/engagement-core/domain"

type Notification struct {
	ID        int64  `json:"id"`
	ActorID   int64  `json:"actor_id"`
	Type      string `json:"type"`
	TargetID  int64  `json:"target_id,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func NewNotificationFromDomain(n *domain.Notification) Notification {
	return Notification{
		ID:        n.ID,
		ActorID:   n.ActorID,
		Type:      string(n.Type),
		TargetID:  n.TargetID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// NotificationPage 游标分页结果, next_cursor 为空表示没有更多
type NotificationPage struct {
	Items      []Notification `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
