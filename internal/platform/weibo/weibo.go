// Package weibo implements the Weibo platform adapter. Search results come
// from the mobile container API, with the desktop HTML search page as a
// fallback when the mobile endpoint is blocked or empty.
package weibo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
	"github.com/jonesrussell/socialcrawl/internal/platform/rawutil"
)

// ErrBlocked is returned when a response looks like a login redirect or an
// interactive challenge page. The orchestrator's retry policy handles it
// like any other transient fetch failure.
var ErrBlocked = errors.New("weibo: response blocked by anti-automation check")

const (
	defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"

	// mobileContainerID selects the search result container on the mobile API.
	mobileContainerID = "100103type=1&q="

	maxBodyBytes = 4 << 20
)

// Config holds the adapter's endpoints and session material.
type Config struct {
	SearchURL       string
	MobileSearchURL string
	Cookies         map[string]string
	Timeout         time.Duration
}

// Adapter collects Weibo search results.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger logger.Interface
}

// New creates a Weibo adapter.
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
	return domain.PlatformWeibo
}

// FetchPage requests one page of search results, preferring the mobile JSON
// API and falling back to the desktop HTML page.
func (a *Adapter) FetchPage(ctx context.Context, keyword string, page int, userAgent string) ([]crawler.RawItem, error) {
	items, err := a.fetchMobile(ctx, keyword, page, userAgent)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	if err != nil {
		a.logger.Warn("Mobile search failed, trying desktop page", "page", page, "error", err)
	}

	return a.fetchDesktop(ctx, keyword, page, userAgent)
}

// fetchMobile hits the m.weibo.cn container API and returns the raw mblog
// payloads.
func (a *Adapter) fetchMobile(ctx context.Context, keyword string, page int, userAgent string) ([]crawler.RawItem, error) {
	params := url.Values{}
	params.Set("containerid", mobileContainerID+keyword)
	params.Set("page_type", "searchall")
	params.Set("page", strconv.Itoa(page))

	body, err := a.get(ctx, a.cfg.MobileSearchURL+"?"+params.Encode(), userAgent, "application/json, text/plain, */*")
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if unmarshalErr := json.Unmarshal(body, &payload); unmarshalErr != nil {
		return nil, fmt.Errorf("weibo: failed to decode mobile response: %w", unmarshalErr)
	}

	data := rawutil.Map(payload, "data")
	if data == nil {
		return nil, nil
	}

	var items []crawler.RawItem
	for _, c := range rawutil.Slice(data, "cards") {
		card, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if mblog := mblogOf(card); mblog != nil {
			items = append(items, crawler.RawItem(mblog))
		}
	}

	return items, nil
}

// mblogOf digs the mblog payload out of a result card. Newer responses nest
// it inside card_group sub-cards.
func mblogOf(card map[string]any) map[string]any {
	cardType := rawutil.Int64(card, "card_type")
	if cardType != 9 && cardType != 11 {
		return nil
	}
	if mblog := rawutil.Map(card, "mblog"); mblog != nil {
		return mblog
	}
	for _, sc := range rawutil.Slice(card, "card_group") {
		sub, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		if mblog := rawutil.Map(sub, "mblog"); mblog != nil {
			return mblog
		}
	}
	return nil
}

// fetchDesktop scrapes the s.weibo.com search page and shapes each result
// card into an mblog-like raw item so Normalize has one input schema.
func (a *Adapter) fetchDesktop(ctx context.Context, keyword string, page int, userAgent string) ([]crawler.RawItem, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("page", strconv.Itoa(page))

	body, err := a.get(ctx, a.cfg.SearchURL+"?"+params.Encode(), userAgent, "text/html,application/xhtml+xml,*/*")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("weibo: failed to parse search page: %w", err)
	}

	var items []crawler.RawItem
	doc.Find("div.card-wrap[mid]").Each(func(_ int, card *goquery.Selection) {
		mid, _ := card.Attr("mid")
		if mid == "" {
			return
		}

		text := strings.TrimSpace(card.Find("p.txt").First().Text())
		if text == "" {
			return
		}

		item := crawler.RawItem{
			"mid":        mid,
			"text":       text,
			"created_at": strings.TrimSpace(card.Find("div.from a").First().Text()),
			"source":     strings.TrimSpace(card.Find("div.from a").Eq(1).Text()),
		}

		if user := card.Find("a.name").First(); user.Length() > 0 {
			item["user"] = map[string]any{
				"screen_name": strings.TrimSpace(user.Text()),
			}
		}

		// Action bar: 转发 / 评论 / 赞 counts embedded in link text.
		actions := card.Find("div.card-act li")
		item["reposts_count"] = float64(countIn(actions.Eq(0).Text()))
		item["comments_count"] = float64(countIn(actions.Eq(1).Text()))
		item["attitudes_count"] = float64(countIn(actions.Eq(2).Text()))

		items = append(items, item)
	})

	return items, nil
}

// get performs one request with the supplied client identity and the
// configured session cookies, then validates the response body.
func (a *Adapter) get(ctx context.Context, rawURL, userAgent, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("weibo: failed to build request: %w", err)
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", "https://m.weibo.cn/")
	for name, value := range a.cfg.Cookies {
		if value != "" {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weibo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weibo: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("weibo: failed to read response: %w", err)
	}

	if isBlocked(resp.Request.URL.String(), string(body)) {
		return nil, ErrBlocked
	}

	return body, nil
}

// isBlocked detects login redirects and challenge pages.
func isBlocked(finalURL, body string) bool {
	if strings.Contains(strings.ToLower(finalURL), "login") {
		return true
	}
	return strings.Contains(body, "验证码") || strings.Contains(strings.ToLower(body), "captcha")
}

// countIn extracts the first number from an action-bar label like "转发 12".
func countIn(s string) int {
	return firstNumber(s)
}

// Normalize converts one raw mblog payload into the canonical record.
// Items without an ID or text body are dropped.
func (a *Adapter) Normalize(item crawler.RawItem, keyword string) (*domain.Record, bool) {
	m := map[string]any(item)

	id := rawutil.String(m, "mid")
	if id == "" {
		id = rawutil.String(m, "id")
	}
	content := stripHTML(rawutil.String(m, "text"))
	if id == "" || content == "" {
		return nil, false
	}

	user := rawutil.Map(m, "user")
	userID := rawutil.String(user, "id")
	if userID == "" {
		userID = strconv.FormatInt(rawutil.Int64(user, "id"), 10)
		if userID == "0" {
			userID = ""
		}
	}

	rec := &domain.Record{
		ID:        id,
		Platform:  domain.PlatformWeibo,
		Keyword:   keyword,
		Content:   content,
		LongText:  rawutil.Bool(m, "isLongText"),
		CreatedAt: ParseTime(rawutil.String(m, "created_at")),
		Engagement: domain.CounterMap{
			"reposts":   rawutil.Int64(m, "reposts_count"),
			"comments":  rawutil.Int64(m, "comments_count"),
			"attitudes": rawutil.Int64(m, "attitudes_count"),
		},
		Author: domain.Author{
			ID:       userID,
			Nickname: rawutil.String(user, "screen_name"),
			Verified: rawutil.Bool(user, "verified"),
		},
		MediaURLs: picURLs(m),
		Geo:       geoOf(m),
		Source:    rawutil.String(m, "source"),
		URL:       fmt.Sprintf("https://weibo.com/%s/%s", userID, id),
	}

	return rec, true
}

// picURLs collects large image URLs from the pic_infos payload.
func picURLs(m map[string]any) []string {
	pics := rawutil.Map(m, "pic_infos")
	if pics == nil {
		return nil
	}
	var urls []string
	for _, v := range pics {
		info, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if u := rawutil.String(rawutil.Map(info, "large"), "url"); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// geoOf builds the optional location from the geo payload and region name.
func geoOf(m map[string]any) *domain.Geo {
	region := rawutil.String(m, "region_name")
	geo := rawutil.Map(m, "geo")
	if geo == nil && region == "" {
		return nil
	}

	out := &domain.Geo{IPLocation: region}
	if geo != nil {
		out.Type = rawutil.String(geo, "type")
		if coords := rawutil.Slice(geo, "coordinates"); coords != nil {
			if data, err := json.Marshal(coords); err == nil {
				out.Coordinates = string(data)
			}
		}
		out.Title = rawutil.String(rawutil.Map(geo, "detail"), "title")
	}
	return out
}
