// Package douyin implements the Douyin platform adapter against the web
// search API.
package douyin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
	"github.com/jonesrussell/socialcrawl/internal/platform/rawutil"
)

// ErrBlocked is returned when the response looks like a challenge page.
var ErrBlocked = errors.New("douyin: response blocked by anti-automation check")

const (
	defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"

	pageSize     = 20
	maxBodyBytes = 4 << 20
	msTokenLen   = 107
)

// Config holds the adapter's endpoint and session material.
type Config struct {
	SearchURL string
	Cookies   map[string]string
	Timeout   time.Duration
}

// Adapter collects Douyin search results.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger logger.Interface
}

// New creates a Douyin adapter.
func New(cfg Config, log logger.Interface) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Platform returns the platform tag.
func (a *Adapter) Platform() domain.Platform {
	return domain.PlatformDouyin
}

// FetchPage requests one page of search results and returns the raw
// aweme_info payloads.
func (a *Adapter) FetchPage(ctx context.Context, keyword string, page int, userAgent string) ([]crawler.RawItem, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("offset", strconv.Itoa((page-1)*pageSize))
	params.Set("count", strconv.Itoa(pageSize))
	params.Set("device_platform", "webapp")
	params.Set("aid", "6383")
	params.Set("channel", "channel_pc_web")
	params.Set("search_source", "normal_search")
	params.Set("query_correct_type", "1")
	params.Set("is_filter_search", "0")
	params.Set("sort_type", "0")
	params.Set("publish_time", "0")
	params.Set("ts", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("ms_token", randomToken(msTokenLen))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.SearchURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to build request: %w", err)
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", "https://m.douyin.com/")
	for name, value := range a.cfg.Cookies {
		if value != "" {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("douyin: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("douyin: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to read response: %w", err)
	}
	if strings.Contains(string(body), "验证码") || strings.Contains(strings.ToLower(string(body)), "captcha") {
		return nil, ErrBlocked
	}

	var payload map[string]any
	if unmarshalErr := json.Unmarshal(body, &payload); unmarshalErr != nil {
		return nil, fmt.Errorf("douyin: failed to decode response: %w", unmarshalErr)
	}

	var items []crawler.RawItem
	for _, d := range rawutil.Slice(payload, "data") {
		entry, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if aweme := rawutil.Map(entry, "aweme_info"); aweme != nil {
			items = append(items, crawler.RawItem(aweme))
		}
	}

	return items, nil
}

// Normalize converts one raw aweme payload into the canonical record.
// Items without an ID or description are dropped.
func (a *Adapter) Normalize(item crawler.RawItem, keyword string) (*domain.Record, bool) {
	m := map[string]any(item)

	id := rawutil.String(m, "aweme_id")
	desc := rawutil.String(m, "desc")
	if id == "" || desc == "" {
		return nil, false
	}

	var createdAt time.Time
	if ts := rawutil.Int64(m, "create_time"); ts > 0 {
		createdAt = time.Unix(ts, 0)
	}

	stats := rawutil.Map(m, "statistics")
	author := rawutil.Map(m, "author")

	rec := &domain.Record{
		ID:        id,
		Platform:  domain.PlatformDouyin,
		Keyword:   keyword,
		Content:   desc,
		CreatedAt: createdAt,
		Engagement: domain.CounterMap{
			"digg":    rawutil.Int64(stats, "digg_count"),
			"comment": rawutil.Int64(stats, "comment_count"),
			"share":   rawutil.Int64(stats, "share_count"),
			"play":    rawutil.Int64(stats, "play_count"),
		},
		Author: domain.Author{
			ID:       rawutil.String(author, "uid"),
			Nickname: rawutil.String(author, "nickname"),
			Verified: rawutil.Int64(author, "verification_type") > 0,
		},
		MediaURLs: mediaOf(m),
		Geo:       geoOf(m),
		URL:       "https://www.douyin.com/video/" + id,
	}

	return rec, true
}

// mediaOf collects the playback and cover URLs from the video payload.
func mediaOf(m map[string]any) []string {
	video := rawutil.Map(m, "video")
	if video == nil {
		return nil
	}

	var urls []string
	if u := firstURL(rawutil.Map(video, "play_addr")); u != "" {
		urls = append(urls, u)
	}
	if u := firstURL(rawutil.Map(video, "cover")); u != "" {
		urls = append(urls, u)
	}
	return urls
}

func firstURL(addr map[string]any) string {
	if addr == nil {
		return ""
	}
	list := rawutil.StringSlice(addr, "url_list")
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// geoOf builds the optional location from poi and ip label data.
func geoOf(m map[string]any) *domain.Geo {
	poi := rawutil.Map(m, "poi_info")
	ipLabel := rawutil.String(m, "ip_label")
	if poi == nil && ipLabel == "" {
		return nil
	}

	out := &domain.Geo{IPLocation: ipLabel}
	if poi != nil {
		out.Title = rawutil.String(poi, "poi_name")
		if out.IPLocation == "" {
			out.IPLocation = out.Title
		}
	}
	return out
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomToken generates the ms_token filler the web API expects.
func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return string(b)
}
