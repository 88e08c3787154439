package krx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/pkg/redis"
)

// ETFDailyResponse is the etf_bydd_trd response body
type ETFDailyResponse struct {
	OutBlock1 []ETFDailyItem `json:"OutBlock_1"`
}

// ETFDailyItem is one ETF row. KRX sends numbers as strings ("-" = 없음).
type ETFDailyItem struct {
	BasDd     string `json:"BAS_DD"`
	IsuCd     string `json:"ISU_CD"`
	IsuNm     string `json:"ISU_NM"`
	TddClsprc string `json:"TDD_CLSPRC"` // 종가
	AccTrdvol string `json:"ACC_TRDVOL"` // 거래량
	AccTrdval string `json:"ACC_TRDVAL"` // 거래대금
}

// FetchETFDaily fetches every ETF row of one trading date (basDd = YYYYMMDD).
// A holiday returns an empty slice, not an error.
func (c *Client) FetchETFDaily(ctx context.Context, basDd string) ([]contracts.DailyBar, error) {
	date, err := time.ParseInLocation("20060102", basDd, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse basDd %q: %w", basDd, err)
	}

	items, err := c.fetchItems(ctx, basDd)
	if err != nil {
		return nil, err
	}

	bars := make([]contracts.DailyBar, 0, len(items))
	for _, item := range items {
		if item.IsuCd == "" {
			continue
		}
		bars = append(bars, contracts.DailyBar{
			Date:   date,
			Code:   item.IsuCd,
			Name:   item.IsuNm,
			Close:  parseNumber(item.TddClsprc),
			Volume: parseNumber(item.AccTrdvol),
			Value:  parseNumber(item.AccTrdval),
		})
	}
	return bars, nil
}

// FetchRange fetches the given codes for every weekday in [from, to].
// ⭐ SSOT: 기간 조회는 평일만, 실패한 날짜는 건너뜀
//
// A failed or empty date is logged and skipped. An open circuit breaker or a
// cancelled context aborts the range. ErrNoData when nothing was collected.
func (c *Client) FetchRange(ctx context.Context, codes []string, from, to time.Time) ([]contracts.DailyBar, error) {
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}

	var bars []contracts.DailyBar
	fetched, failed := 0, 0

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		basDd := d.Format("20060102")
		dayBars, err := c.FetchETFDaily(ctx, basDd)
		if err != nil {
			if breakerRejected(err) {
				return nil, fmt.Errorf("fetch %s: %w", basDd, err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed++
			c.logger.WithError(err).WithField("date", basDd).Warn("KRX fetch failed, skipping date")
			continue
		}
		if len(dayBars) == 0 {
			c.logger.WithField("date", basDd).Debug("No KRX rows (holiday)")
			continue
		}

		fetched++
		kept := 0
		for _, b := range dayBars {
			if wanted[b.Code] {
				bars = append(bars, b)
				kept++
			}
		}

		c.logger.WithFields(map[string]interface{}{
			"date": basDd,
			"rows": len(dayBars),
			"kept": kept,
		}).Debug("Fetched KRX ETF daily")
	}

	c.logger.WithFields(map[string]interface{}{
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"dates":   fetched,
		"failed":  failed,
		"records": len(bars),
	}).Info("KRX range collected")

	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

// breakerRejected reports whether the breaker refused the call (open or half-open limit)
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// fetchItems returns the raw rows of one date, from cache when possible
func (c *Client) fetchItems(ctx context.Context, basDd string) ([]ETFDailyItem, error) {
	key := redis.ETFDailyKey(basDd)

	if c.cache != nil {
		var cached []ETFDailyItem
		hit, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).WithField("date", basDd).Warn("KRX cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, basDd)
	})
	if err != nil {
		return nil, err
	}
	items := result.([]ETFDailyItem)

	if c.cache != nil && len(items) > 0 {
		if err := c.cache.Set(ctx, key, items, c.cacheTTL(basDd)); err != nil {
			c.logger.WithError(err).WithField("date", basDd).Warn("KRX cache write failed")
		}
	}
	return items, nil
}

// cacheTTL keeps past dates long; the current date may still be revised
func (c *Client) cacheTTL(basDd string) time.Duration {
	if basDd < c.now().Format("20060102") {
		return redis.TTLFinal
	}
	return redis.TTLDaily
}

// post calls etf_bydd_trd for one date
func (c *Client) post(ctx context.Context, basDd string) ([]ETFDailyItem, error) {
	payload, err := json.Marshal(map[string]string{"basDd": basDd})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("AUTH_KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out ETFDailyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.OutBlock1, nil
}

// parseNumber parses KRX numeric strings like "12,345" or "-1.5".
// "-", empty and unparsable values are NaN (결측).
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return math.NaN()
	}

	s = strings.ReplaceAll(s, ",", "")
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return val
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
