// Package analyze builds the aggregate report over persisted records for one
// (platform, keyword) pair. Sub-reports degrade independently: a failed
// backing query is logged and leaves that sub-report at its zero value
// rather than failing the whole report.
package analyze

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

const (
	topAuthors   = 10
	topHashtags  = 10
	topSources   = 10
	topRecords   = 10
	topLocations = 20

	contentPreviewRunes = 100
)

var hashtagRe = regexp.MustCompile(`#([^#]+)#`)

// Engine runs the six sub-aggregations and assembles the report.
type Engine struct {
	repo   *database.AnalyticsRepository
	logger logger.Interface
}

// NewEngine creates an aggregation engine over the analytics repository.
func NewEngine(repo *database.AnalyticsRepository, log logger.Interface) *Engine {
	return &Engine{repo: repo, logger: log}
}

// Summarize builds the full report for one platform and keyword.
func (e *Engine) Summarize(ctx context.Context, platform domain.Platform, keyword string) *domain.Report {
	report := &domain.Report{
		Platform:    platform,
		Keyword:     keyword,
		GeneratedAt: time.Now(),
	}

	report.BasicStats = e.basicStats(ctx, platform, keyword)
	report.TimeDist = e.timeDistribution(ctx, platform, keyword)
	report.Authors = e.authorAnalysis(ctx, platform, keyword)
	report.Content = e.contentAnalysis(ctx, platform, keyword)
	report.Engagement = e.engagementAnalysis(ctx, platform, keyword)
	report.Geographic = e.geoAnalysis(ctx, platform, keyword)

	return report
}

func (e *Engine) basicStats(ctx context.Context, platform domain.Platform, keyword string) domain.BasicStats {
	var stats domain.BasicStats

	overview, err := e.repo.GetOverview(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("basic stats unavailable", "platform", platform, "keyword", keyword, "error", err)
		return stats
	}

	stats.TotalRecords = overview.Total
	if overview.Earliest.Valid {
		earliest := overview.Earliest.Time
		stats.EarliestPost = &earliest
	}
	if overview.Latest.Valid {
		latest := overview.Latest.Time
		stats.LatestPost = &latest
	}

	rows, err := e.repo.EngagementRows(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("engagement averages unavailable", "platform", platform, "keyword", keyword, "error", err)
		return stats
	}
	if len(rows) == 0 {
		return stats
	}

	totals := make(map[string]int64)
	for _, row := range rows {
		for name, value := range row.Engagement {
			totals[name] += value
		}
	}
	stats.AvgCounters = make(map[string]float64, len(totals))
	for name, total := range totals {
		stats.AvgCounters[name] = round2(float64(total) / float64(len(rows)))
	}

	return stats
}

func (e *Engine) timeDistribution(ctx context.Context, platform domain.Platform, keyword string) domain.TimeDistribution {
	var dist domain.TimeDistribution

	daily, err := e.repo.DailyCounts(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("daily distribution unavailable", "platform", platform, "keyword", keyword, "error", err)
	} else {
		dist.Daily = daily
	}

	hourly, err := e.repo.HourlyCounts(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("hourly distribution unavailable", "platform", platform, "keyword", keyword, "error", err)
	} else {
		dist.Hourly = hourly
	}

	return dist
}

func (e *Engine) authorAnalysis(ctx context.Context, platform domain.Platform, keyword string) domain.AuthorAnalysis {
	var analysis domain.AuthorAnalysis

	rows, err := e.repo.AuthorRows(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("author analysis unavailable", "platform", platform, "keyword", keyword, "error", err)
		return analysis
	}

	type authorAgg struct {
		count      int64
		engagement map[string]int64
	}
	byAuthor := make(map[string]*authorAgg)
	for _, row := range rows {
		if row.Verified {
			analysis.Verified++
		} else {
			analysis.Unverified++
		}
		agg, ok := byAuthor[row.Nickname]
		if !ok {
			agg = &authorAgg{engagement: make(map[string]int64)}
			byAuthor[row.Nickname] = agg
		}
		agg.count++
		for name, value := range row.Engagement {
			agg.engagement[name] += value
		}
	}

	authors := make([]domain.TopAuthor, 0, len(byAuthor))
	for nickname, agg := range byAuthor {
		authors = append(authors, domain.TopAuthor{
			Nickname:    nickname,
			RecordCount: agg.count,
			Engagement:  agg.engagement,
		})
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].RecordCount != authors[j].RecordCount {
			return authors[i].RecordCount > authors[j].RecordCount
		}
		return authors[i].Nickname < authors[j].Nickname
	})
	if len(authors) > topAuthors {
		authors = authors[:topAuthors]
	}
	analysis.TopActive = authors

	return analysis
}

func (e *Engine) contentAnalysis(ctx context.Context, platform domain.Platform, keyword string) domain.ContentAnalysis {
	var analysis domain.ContentAnalysis

	rows, err := e.repo.ContentRows(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("content analysis unavailable", "platform", platform, "keyword", keyword, "error", err)
		return analysis
	}

	analysis.TotalAnalyzed = int64(len(rows))
	if len(rows) == 0 {
		return analysis
	}

	var longText, withMedia int64
	hashtags := make(map[string]int64)
	sources := make(map[string]int64)
	for _, row := range rows {
		if row.LongText {
			longText++
		}
		if len(row.MediaURLs) > 0 {
			withMedia++
		}
		for _, match := range hashtagRe.FindAllStringSubmatch(row.Content, -1) {
			tag := strings.TrimSpace(match[1])
			if tag != "" {
				hashtags[tag]++
			}
		}
		if row.Source != "" {
			sources[row.Source]++
		}
	}

	total := float64(len(rows))
	analysis.LongTextRatio = round2(float64(longText) / total * 100)
	analysis.MediaRatio = round2(float64(withMedia) / total * 100)
	analysis.TopHashtags = topCounts(hashtags, topHashtags)
	analysis.TopSources = topCounts(sources, topSources)

	return analysis
}

func (e *Engine) engagementAnalysis(ctx context.Context, platform domain.Platform, keyword string) domain.EngagementAnalysis {
	var analysis domain.EngagementAnalysis

	rows, err := e.repo.EngagementRows(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("engagement analysis unavailable", "platform", platform, "keyword", keyword, "error", err)
		return analysis
	}
	if len(rows) == 0 {
		return analysis
	}

	analysis.Totals = make(map[string]int64)
	analysis.Maxima = make(map[string]int64)
	ranked := make([]domain.TopRecord, 0, len(rows))
	for _, row := range rows {
		var total int64
		for name, value := range row.Engagement {
			analysis.Totals[name] += value
			if value > analysis.Maxima[name] {
				analysis.Maxima[name] = value
			}
			total += value
		}
		ranked = append(ranked, domain.TopRecord{
			RecordID:   row.RecordID,
			Nickname:   row.Nickname,
			Content:    preview(row.Content),
			Engagement: row.Engagement,
			Total:      total,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].RecordID < ranked[j].RecordID
	})
	if len(ranked) > topRecords {
		ranked = ranked[:topRecords]
	}
	analysis.TopRecords = ranked

	return analysis
}

func (e *Engine) geoAnalysis(ctx context.Context, platform domain.Platform, keyword string) domain.GeoAnalysis {
	var analysis domain.GeoAnalysis

	locations, err := e.repo.Locations(ctx, platform, keyword)
	if err != nil {
		e.logger.Warn("geographic analysis unavailable", "platform", platform, "keyword", keyword, "error", err)
		return analysis
	}

	counts := make(map[string]int64, len(locations))
	for _, location := range locations {
		counts[location]++
	}
	analysis.TopLocations = topCounts(counts, topLocations)

	return analysis
}

// topCounts ranks a frequency table by count descending, name ascending on
// ties, truncated to n entries.
func topCounts(counts map[string]int64, n int) []domain.NamedCount {
	if len(counts) == 0 {
		return nil
	}
	out := make([]domain.NamedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, domain.NamedCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// preview truncates content for ranking entries, respecting rune boundaries.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= contentPreviewRunes {
		return s
	}
	return string(runes[:contentPreviewRunes]) + "..."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
