package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
	"github.com/wonny/sector-rotation/pkg/redis"
)

const sampleNewsHTML = `
<html>
<body>
<ul class="list_news">
	<li><a class="news_tit" href="#">  반도체 업황 회복 기대감에 외국인 순매수  </a></li>
	<li><a class="news_tit" href="#">HBM 수요 급증</a></li>
	<li><a class="news_tit" href="#">   </a></li>
	<li><a class="news_tit" href="#">세 번째 기사</a></li>
	<li><a class="news_tit" href="#">네 번째 기사</a></li>
</ul>
</body>
</html>
`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(
		httputil.New(logger.Nop()).DisableRetry(),
		redis.NewCache(redis.Disabled(), "test"),
		config.NaverConfig{SearchURL: server.URL},
		logger.Nop(),
	)
}

func TestParseNewsHTML(t *testing.T) {
	titles, err := parseNewsHTML(sampleNewsHTML, 3)
	require.NoError(t, err)

	// 빈 제목은 건너뛰고 최대 3개
	assert.Equal(t, []string{
		"반도체 업황 회복 기대감에 외국인 순매수",
		"HBM 수요 급증",
		"세 번째 기사",
	}, titles)
}

func TestShorten(t *testing.T) {
	short := "짧은 제목"
	assert.Equal(t, short, shorten(short))

	exact := strings.Repeat("가", 60)
	assert.Equal(t, exact, shorten(exact))

	long := strings.Repeat("가", 61)
	assert.Equal(t, strings.Repeat("가", 60)+"...", shorten(long))
}

func TestHeadlines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("where") != "news" || q.Get("sort") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("query") != "반도체" {
			t.Errorf("expected query=반도체, got %s", q.Get("query"))
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0") {
			t.Errorf("missing browser User-Agent")
		}
		_, _ = w.Write([]byte(sampleNewsHTML))
	})

	got := client.Headlines(context.Background(), "반도체", 2)
	assert.Equal(t, []string{"반도체 업황 회복 기대감에 외국인 순매수", "HBM 수요 급증"}, got)
}

func TestHeadlines_Fallbacks(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>결과 없음</body></html>"))
	})
	assert.Equal(t, []string{NoNews}, empty.Headlines(context.Background(), "은행", 3))

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.Equal(t, []string{NewsFailed}, failing.Headlines(context.Background(), "은행", 3))

	assert.Nil(t, empty.Headlines(context.Background(), "은행", 0))
}
