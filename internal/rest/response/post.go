package response

import "github.com/pulsefeed/engagement-core/domain"

type Post struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	UserName  string `json:"user_name"`
	Likes     int64  `json:"likes"`
	Reposts   int64  `json:"reposts"`
	Replies   int64  `json:"replies"`
	Views     int64  `json:"views"`
	UpdatedAt string `json:"updated_at"`
	CreatedAt string `json:"created_at"`
}

// FromDomain: Domain -> Response
func NewPostFromDomain(p *domain.Post) Post {
	return Post{
		ID:        p.ID,
		Content:   p.Content,
		UserName:  p.User.Name,
		Likes:     p.LikesCount,
		Reposts:   p.RepostsCount,
		Replies:   p.RepliesCount,
		Views:     p.ViewsCount,
		UpdatedAt: p.UpdatedAt.Format("2006-01-02 15:04:05"),
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
