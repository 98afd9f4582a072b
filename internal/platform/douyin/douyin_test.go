package douyin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
	"github.com/jonesrussell/socialcrawl/internal/platform/douyin"
)

func newAdapter() *douyin.Adapter {
	return douyin.New(douyin.Config{
		SearchURL: "https://www.douyin.com/aweme/v1/web/general/search/single/",
	}, logger.NewNoOp())
}

func TestAdapter_Platform(t *testing.T) {
	assert.Equal(t, domain.PlatformDouyin, newAdapter().Platform())
}

func TestAdapter_Normalize_FullPayload(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	item := crawler.RawItem{
		"aweme_id":    "7300000000000000001",
		"desc":        "新年vlog #春节#",
		"create_time": float64(created.Unix()),
		"statistics": map[string]any{
			"digg_count":    float64(1000),
			"comment_count": float64(200),
			"share_count":   float64(50),
			"play_count":    float64(90000),
		},
		"author": map[string]any{
			"uid":               "987654",
			"nickname":          "创作者",
			"verification_type": float64(1),
		},
		"video": map[string]any{
			"play_addr": map[string]any{
				"url_list": []any{"https://v.douyin.com/play/1.mp4", "https://v.douyin.com/play/backup.mp4"},
			},
			"cover": map[string]any{
				"url_list": []any{"https://p.douyin.com/cover/1.jpg"},
			},
		},
		"poi_info": map[string]any{"poi_name": "三里屯"},
		"ip_label": "北京",
	}

	rec, ok := newAdapter().Normalize(item, "春节")
	require.True(t, ok)

	assert.Equal(t, "7300000000000000001", rec.ID)
	assert.Equal(t, domain.PlatformDouyin, rec.Platform)
	assert.Equal(t, "春节", rec.Keyword)
	assert.Equal(t, "新年vlog #春节#", rec.Content)
	assert.Equal(t, created.Unix(), rec.CreatedAt.Unix())
	assert.Equal(t, int64(1000), rec.Engagement["digg"])
	assert.Equal(t, int64(200), rec.Engagement["comment"])
	assert.Equal(t, int64(50), rec.Engagement["share"])
	assert.Equal(t, int64(90000), rec.Engagement["play"])
	assert.Equal(t, "987654", rec.Author.ID)
	assert.Equal(t, "创作者", rec.Author.Nickname)
	assert.True(t, rec.Author.Verified)
	assert.Equal(t, domain.StringList{
		"https://v.douyin.com/play/1.mp4",
		"https://p.douyin.com/cover/1.jpg",
	}, rec.MediaURLs)
	require.NotNil(t, rec.Geo)
	assert.Equal(t, "三里屯", rec.Geo.Title)
	assert.Equal(t, "北京", rec.Geo.IPLocation)
	assert.Equal(t, "https://www.douyin.com/video/7300000000000000001", rec.URL)
}

func TestAdapter_Normalize_MissingRequiredFields(t *testing.T) {
	adapter := newAdapter()

	_, ok := adapter.Normalize(crawler.RawItem{"desc": "no id"}, "kw")
	assert.False(t, ok)

	_, ok = adapter.Normalize(crawler.RawItem{"aweme_id": "1"}, "kw")
	assert.False(t, ok)
}

func TestAdapter_Normalize_UnverifiedAuthor(t *testing.T) {
	rec, ok := newAdapter().Normalize(crawler.RawItem{
		"aweme_id": "2",
		"desc":     "plain",
		"author": map[string]any{
			"uid":               "1",
			"nickname":          "someone",
			"verification_type": float64(0),
		},
	}, "kw")
	require.True(t, ok)
	assert.False(t, rec.Author.Verified)
}

func TestAdapter_Normalize_NoOptionalPayloads(t *testing.T) {
	rec, ok := newAdapter().Normalize(crawler.RawItem{
		"aweme_id": "3",
		"desc":     "plain",
	}, "kw")
	require.True(t, ok)

	assert.Nil(t, rec.Geo)
	assert.Empty(t, rec.MediaURLs)
	assert.True(t, rec.CreatedAt.IsZero())
}

func TestAdapter_Normalize_PoiFallsBackAsLocation(t *testing.T) {
	rec, ok := newAdapter().Normalize(crawler.RawItem{
		"aweme_id": "4",
		"desc":     "plain",
		"poi_info": map[string]any{"poi_name": "外滩"},
	}, "kw")
	require.True(t, ok)

	require.NotNil(t, rec.Geo)
	assert.Equal(t, "外滩", rec.Geo.Title)
	assert.Equal(t, "外滩", rec.Geo.IPLocation)
}
