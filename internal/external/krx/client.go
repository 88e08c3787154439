package krx

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
	"github.com/wonny/sector-rotation/pkg/redis"
)

var (
	// ErrMissingAPIKey is returned when KRX_API_KEY is not configured
	ErrMissingAPIKey = errors.New("krx: KRX_API_KEY not set")

	// ErrNoData is returned when no trading date in the range returned rows
	ErrNoData = errors.New("krx: no data collected")
)

const (
	etfDailyPath = "/etp/etf_bydd_trd"

	// 연속 실패 시 차단기 개방
	breakerFailures = 5
	breakerTimeout  = 60 * time.Second
)

// Client handles communication with the KRX OPEN API
// ⭐ SSOT: KRX 시세 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	now        func() time.Time
}

// NewClient creates a new KRX OPEN API client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.KRXConfig, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	log = log.WithComponent("krx")

	st := gobreaker.Settings{Name: "krx"}
	st.Timeout = breakerTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= breakerFailures
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.WithFields(map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("KRX circuit breaker state changed")
	}

	return &Client{
		httpClient: httpClient,
		cache:      cache,
		breaker:    gobreaker.NewCircuitBreaker(st),
		logger:     log,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		now:        time.Now,
	}, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s%s", c.baseURL, etfDailyPath)
}
