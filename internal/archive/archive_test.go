package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

func newTestStore(t *testing.T, ts time.Time) *Store {
	t.Helper()

	store := NewStore(t.TempDir(), logger.NewNoOp())
	store.now = func() time.Time { return ts }
	return store
}

func TestStore_Open_Layout(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	store := newTestStore(t, ts)

	session, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(store.baseDir, "20260314_weibo", "20260314_092653_weibo_golang"), session.Dir())
	for _, bucket := range []string{"raw_data", "structured_data", "analysis_report"} {
		info, statErr := os.Stat(filepath.Join(session.Dir(), bucket))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}

func TestStore_Open_SanitizesKeyword(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	store := newTestStore(t, ts)

	session, err := store.Open(domain.PlatformDouyin, `a/b:c test`)
	require.NoError(t, err)

	assert.Equal(t, "20260314_092653_douyin_abc_test", filepath.Base(session.Dir()))
}

func TestStore_Open_TimestampSeparatesSessions(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNoOp())

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Second)}
	call := 0
	store.now = func() time.Time {
		ts := times[call]
		call++
		return ts
	}

	first, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)
	second, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)

	assert.NotEqual(t, first.Dir(), second.Dir())
}

func TestSession_WriteRawPage_Naming(t *testing.T) {
	store := newTestStore(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	session, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)

	items := []map[string]any{{"id": "1"}, {"id": "2"}}
	require.NoError(t, session.WriteRawPage(7, items))

	data, err := os.ReadFile(filepath.Join(session.Dir(), "raw_data", "weibo_raw_page_007.json"))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestSession_WriteStructuredAndReport(t *testing.T) {
	store := newTestStore(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	session, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)

	records := []*domain.Record{{ID: "1", Platform: domain.PlatformWeibo, Content: "hello"}}
	require.NoError(t, session.WriteStructured(records))
	require.NoError(t, session.WriteReport(&domain.Report{Platform: domain.PlatformWeibo, Keyword: "golang"}))

	_, err = os.Stat(filepath.Join(session.Dir(), "structured_data", "weibo_structured_data_20260314_092653.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(session.Dir(), "analysis_report", "weibo_analysis_report_20260314_092653.json"))
	assert.NoError(t, err)
}

func TestSession_WriteMetadata_FillsDescriptor(t *testing.T) {
	store := newTestStore(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	session, err := store.Open(domain.PlatformWeibo, "golang")
	require.NoError(t, err)

	run := &domain.CrawlRun{ID: "run-1", Status: domain.RunStatusCompleted}
	require.NoError(t, session.WriteMetadata(&Metadata{Keyword: "golang", Run: run}))

	data, err := os.ReadFile(filepath.Join(session.Dir(), "session_metadata.json"))
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "20260314_092653", meta.SessionID)
	assert.Equal(t, session.Dir(), meta.SessionDir)
	assert.Equal(t, "weibo", meta.Platform)
	assert.Equal(t, "golang", meta.Keyword)
	assert.False(t, meta.CreatedAt.IsZero())
	require.NotNil(t, meta.Run)
	assert.Equal(t, "run-1", meta.Run.ID)
}
