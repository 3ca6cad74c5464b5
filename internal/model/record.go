package model

import "time"

// Record is a single captured notification.
type Record struct {
	// ID is assigned by the store on insert and never changes afterwards.
	ID int64 `json:"id" db:"id"`

	// AppName is the display name of the posting application.
	AppName string `json:"app_name" db:"app_name"`

	// PackageName identifies the posting application.
	PackageName string `json:"package_name" db:"package_name"`

	// AppIcon is a string-encoded icon reference for the application.
	AppIcon string `json:"app_icon" db:"app_icon"`

	Title   string `json:"title" db:"title"`
	Message string `json:"message" db:"message"`

	// Timestamp is the capture time in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp" db:"timestamp"`

	IsRead bool   `json:"is_read" db:"is_read"`
	Tag    string `json:"tag" db:"tag"`
	Notes  string `json:"notes" db:"notes"`
}

// Time returns the capture time as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// NowMillis returns t in milliseconds since the epoch.
func NowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
