package capture

import (
	"time"

	"github.com/nhle/notistore/internal/model"
)

// Event is one posted notification as delivered by a source.
type Event struct {
	PackageName string `json:"package_name"`
	AppName     string `json:"app_name"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Body        string `json:"body"`

	// PostedAt is the post time in milliseconds; zero means "now".
	PostedAt int64 `json:"posted_at,omitempty"`
}

// Record converts the event into a record ready for insertion.
func (e Event) Record(now time.Time) model.Record {
	ts := e.PostedAt
	if ts == 0 {
		ts = now.UnixMilli()
	}
	name := e.AppName
	if name == "" {
		name = e.PackageName
	}
	return model.Record{
		AppName:     name,
		PackageName: e.PackageName,
		AppIcon:     e.Icon,
		Title:       e.Title,
		Message:     e.Body,
		Timestamp:   ts,
	}
}
