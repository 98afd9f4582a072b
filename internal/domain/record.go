// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// Platform identifies one content source with its own ID namespace.
type Platform string

const (
	// PlatformWeibo is the Weibo microblog platform.
	PlatformWeibo Platform = "weibo"
	// PlatformDouyin is the Douyin short-video platform.
	PlatformDouyin Platform = "douyin"
)

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}

// Author is the producer of a collected item.
type Author struct {
	ID       string `db:"author_id"       json:"author_id"`
	Nickname string `db:"author_nickname" json:"author_nickname"`
	Verified bool   `db:"author_verified" json:"author_verified"`
}

// Geo is an optional structured location attached to a record.
type Geo struct {
	Type        string `json:"type,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
	Title       string `json:"title,omitempty"`
	IPLocation  string `json:"ip_location,omitempty"`
}

// Record is the canonical cross-platform representation of one collected
// item. Two records with the same (platform, id) are the same logical
// entity; only the first-seen copy is retained.
type Record struct {
	// Identity
	ID       string   `db:"record_id" json:"record_id"`
	Platform Platform `db:"platform"  json:"platform"`
	Keyword  string   `db:"keyword"   json:"keyword"`

	// Content
	Content   string    `db:"content"    json:"content"`
	LongText  bool      `db:"long_text"  json:"long_text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Engagement counters keyed by platform-native names
	// (e.g. reposts/comments/attitudes or digg/comment/share/play).
	// All values are non-negative.
	Engagement CounterMap `db:"engagement" json:"engagement"`

	// Author
	Author Author `json:"author"`

	// Media and location (both optional)
	MediaURLs StringList `db:"media_urls" json:"media_urls,omitempty"`
	Geo       *Geo       `json:"geo,omitempty"`

	// Provenance
	Source    string    `db:"source"     json:"source,omitempty"`
	URL       string    `db:"url"        json:"url"`
	CrawledAt time.Time `db:"crawled_at" json:"crawled_at"`
}

// Key returns the record's dedup key.
func (r *Record) Key() (Platform, string) {
	return r.Platform, r.ID
}

// TotalEngagement is the sum of all engagement counters.
func (r *Record) TotalEngagement() int64 {
	var total int64
	for _, v := range r.Engagement {
		total += v
	}
	return total
}
