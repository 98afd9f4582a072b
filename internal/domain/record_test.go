package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/socialcrawl/internal/domain"
)

func TestRecord_Key(t *testing.T) {
	rec := &domain.Record{ID: "123", Platform: domain.PlatformWeibo}
	platform, id := rec.Key()
	assert.Equal(t, domain.PlatformWeibo, platform)
	assert.Equal(t, "123", id)
}

func TestRecord_TotalEngagement(t *testing.T) {
	rec := &domain.Record{
		Engagement: domain.CounterMap{"reposts": 3, "comments": 4, "attitudes": 5},
	}
	assert.Equal(t, int64(12), rec.TotalEngagement())

	empty := &domain.Record{}
	assert.Equal(t, int64(0), empty.TotalEngagement())
}

func TestCounterMap_ScanNullAndBytes(t *testing.T) {
	var c domain.CounterMap
	require.NoError(t, c.Scan(nil))
	assert.Nil(t, c)

	require.NoError(t, c.Scan([]byte(`{"reposts":7}`)))
	assert.Equal(t, int64(7), c["reposts"])
}

func TestStringList_ScanString(t *testing.T) {
	var s domain.StringList
	require.NoError(t, s.Scan(`["a","b"]`))
	assert.Equal(t, domain.StringList{"a", "b"}, s)
}

func TestCrawlRun_Duration(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	run := &domain.CrawlRun{StartTime: start, EndTime: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, run.Duration())
}
