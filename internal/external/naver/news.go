package naver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/sector-rotation/pkg/redis"
)

const (
	// NoNews is reported when the search returned no headline
	NoNews = "뉴스 없음"
	// NewsFailed is reported when the search failed
	NewsFailed = "뉴스 조회 실패"

	newsTitleSelector = ".news_tit"
	maxTitleRunes     = 60
)

// Headlines returns up to limit latest news titles for keyword.
// Never fails: an error yields [NewsFailed], no result yields [NoNews].
func (c *Client) Headlines(ctx context.Context, keyword string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	titles, err := c.SearchNews(ctx, keyword, limit)
	if err != nil {
		c.logger.WithError(err).WithField("keyword", keyword).Warn("News search failed")
		return []string{NewsFailed}
	}
	if len(titles) == 0 {
		return []string{NoNews}
	}
	return titles
}

// SearchNews fetches the latest news titles (sort=1: 최신순)
func (c *Client) SearchNews(ctx context.Context, keyword string, limit int) ([]string, error) {
	key := redis.NewsKey(fmt.Sprintf("%s:%d", keyword, limit))
	if c.cache != nil {
		var cached []string
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("where", "news")
	params.Set("query", keyword)
	params.Set("sm", "tab_opt")
	params.Set("sort", "1")

	html, err := c.fetchHTML(ctx, params)
	if err != nil {
		return nil, err
	}

	titles, err := parseNewsHTML(html, limit)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && len(titles) > 0 {
		if err := c.cache.Set(ctx, key, titles, redis.TTLShort); err != nil {
			c.logger.WithError(err).Debug("News cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"count":   len(titles),
	}).Debug("Fetched news headlines")

	return titles, nil
}

// parseNewsHTML extracts up to limit titles from a search result page
func parseNewsHTML(html string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var titles []string
	doc.Find(newsTitleSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(titles) >= limit {
			return false
		}
		if title := shorten(strings.TrimSpace(s.Text())); title != "" {
			titles = append(titles, title)
		}
		return true
	})

	return titles, nil
}

// shorten cuts a title at 60 characters and marks the cut with "..."
func shorten(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes]) + "..."
}
