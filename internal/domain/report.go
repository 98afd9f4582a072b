package domain

import (
	"time"
)

// Report is the aggregate analysis over all persisted records matching one
// (platform, keyword). Every sub-report degrades to its zero value when its
// backing query fails or the data is absent.
type Report struct {
	Platform    Platform  `json:"platform"`
	Keyword     string    `json:"keyword"`
	GeneratedAt time.Time `json:"generated_at"`

	BasicStats BasicStats         `json:"basic_stats"`
	TimeDist   TimeDistribution   `json:"time_distribution"`
	Authors    AuthorAnalysis     `json:"author_analysis"`
	Content    ContentAnalysis    `json:"content_analysis"`
	Engagement EngagementAnalysis `json:"engagement_analysis"`
	Geographic GeoAnalysis        `json:"geographic_analysis"`
}

// BasicStats holds record counts and per-counter engagement averages.
type BasicStats struct {
	TotalRecords int64              `json:"total_records"`
	EarliestPost *time.Time         `json:"earliest_post,omitempty"`
	LatestPost   *time.Time         `json:"latest_post,omitempty"`
	AvgCounters  map[string]float64 `json:"avg_counters,omitempty"`
}

// DayCount is a record count for one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// HourCount is a record count for one hour of day (0-23).
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// TimeDistribution holds record counts over calendar day and hour of day.
type TimeDistribution struct {
	Daily  []DayCount  `json:"daily_distribution,omitempty"`
	Hourly []HourCount `json:"hourly_distribution,omitempty"`
}

// TopAuthor is one entry in the most-active-authors ranking.
type TopAuthor struct {
	Nickname    string           `json:"nickname"`
	RecordCount int64            `json:"record_count"`
	Engagement  map[string]int64 `json:"engagement_totals,omitempty"`
}

// AuthorAnalysis holds the top-N author ranking and the verified split.
type AuthorAnalysis struct {
	TopActive  []TopAuthor `json:"top_active_authors,omitempty"`
	Verified   int64       `json:"verified_count"`
	Unverified int64       `json:"unverified_count"`
}

// NamedCount is a generic (label, count) frequency entry.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ContentAnalysis holds content-derived features. Ratios are percentages
// rounded to two decimals.
type ContentAnalysis struct {
	TotalAnalyzed int64        `json:"total_analyzed"`
	LongTextRatio float64      `json:"long_text_ratio"`
	MediaRatio    float64      `json:"media_ratio"`
	TopHashtags   []NamedCount `json:"top_hashtags,omitempty"`
	TopSources    []NamedCount `json:"top_sources,omitempty"`
}

// TopRecord is one entry in the top-engagement ranking.
type TopRecord struct {
	RecordID   string           `json:"record_id"`
	Nickname   string           `json:"nickname"`
	Content    string           `json:"content"`
	Engagement map[string]int64 `json:"engagement,omitempty"`
	Total      int64            `json:"total_engagement"`
}

// EngagementAnalysis holds global sums and maxima per counter plus the
// top-N records by combined engagement score.
type EngagementAnalysis struct {
	Totals     map[string]int64 `json:"totals,omitempty"`
	Maxima     map[string]int64 `json:"maxima,omitempty"`
	TopRecords []TopRecord      `json:"top_records,omitempty"`
}

// GeoAnalysis holds the free-text location frequency table.
type GeoAnalysis struct {
	TopLocations []NamedCount `json:"top_locations,omitempty"`
}
