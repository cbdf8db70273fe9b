package response

import "github.com/pulsefeed/engagement-core/domain"

type Engagement struct {
	On    bool  `json:"on"`
	Count int64 `json:"count"`
}

// FromDomain: Domain -> Response
func NewEngagementFromDomain(r domain.EngagementResult) Engagement {
	return Engagement{
		On:    r.On,
		Count: r.Count,
	}
}

type Summary struct {
	Post   Post            `json:"post"`
	Viewer map[string]bool `json:"viewer"`
}

func NewSummaryFromDomain(s domain.EngagementSummary) Summary {
	viewer := make(map[string]bool, len(s.Viewer))
	for kind, on := range s.Viewer {
		viewer[string(kind)] = on
	}
	return Summary{
		Post:   NewPostFromDomain(&s.Post),
		Viewer: viewer,
	}
}
