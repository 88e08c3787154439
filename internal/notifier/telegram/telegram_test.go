package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/external/naver"
	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
)

var asOf = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func sampleReports() []contracts.SectorReport {
	return []contracts.SectorReport{
		{
			Code: "091160",
			Name: "반도체",
			Rotation: contracts.RotationResult{
				RotationScore:      7,
				MaxScore:           8,
				LongTermReturnPct:  -12.34,
				ShortTermReturnPct: 6.5,
				VolumeSurgeRatio:   2.04,
			},
			SupplyIncreasePct: 35.2,
			Headlines:         []string{"HBM <수요> 급증", "두 번째"},
		},
		{
			Code:      "091170",
			Name:      "은행",
			Rotation:  contracts.RotationResult{RotationScore: 4, MaxScore: 8},
			Headlines: []string{naver.NoNews},
		},
		{
			Code:      "117700",
			Name:      "건설",
			Rotation:  contracts.RotationResult{RotationScore: 6, MaxScore: 8},
			Headlines: []string{naver.NoNews},
		},
	}
}

func newTestNotifier(serverURL string) *Notifier {
	return New(
		httputil.New(logger.Nop()).DisableRetry(),
		config.TelegramConfig{BotToken: "test-token", ChatID: "test-chat", BaseURL: serverURL},
		logger.Nop(),
	)
}

func TestFormatRotationAlert(t *testing.T) {
	msg := FormatRotationAlert(asOf, sampleReports()[:1])

	want := []string{
		"🚀 <b>섹터 순환매 신호 감지</b>",
		"📅 2025-03-14",
		"<b>[반도체]</b> 7/8점 ⭐",
		"티커: 091160",
		"📊 장기 -12.3% | 단기 +6.5%",
		"💰 거래량 2.0배 | 수급 +35.2%",
		"📰 HBM &lt;수요&gt; 급증",
		"총 1개 섹터 발견",
	}
	for _, w := range want {
		if !strings.Contains(msg, w) {
			t.Errorf("message missing %q:\n%s", w, msg)
		}
	}
}

func TestFormatRotationAlert_SkipsNoNews(t *testing.T) {
	msg := FormatRotationAlert(asOf, sampleReports()[1:2])
	if strings.Contains(msg, "📰") {
		t.Errorf("expected no news line, got:\n%s", msg)
	}
}

func TestSendRotationAlert(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := newTestNotifier(server.URL)
	sent, err := n.SendRotationAlert(context.Background(), asOf, sampleReports(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Errorf("expected 2 alerted sectors, got %d", sent)
	}

	if received["chat_id"] != "test-chat" {
		t.Errorf("expected chat_id test-chat, got %v", received["chat_id"])
	}
	if received["parse_mode"] != "HTML" {
		t.Errorf("expected parse_mode HTML, got %v", received["parse_mode"])
	}
	text, _ := received["text"].(string)
	if !strings.Contains(text, "[건설]") || strings.Contains(text, "[은행]") {
		t.Errorf("unexpected sectors in message:\n%s", text)
	}
}

func TestSendRotationAlert_NothingQualifies(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	n := newTestNotifier(server.URL)
	sent, err := n.SendRotationAlert(context.Background(), asOf, sampleReports(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 0 || called {
		t.Errorf("expected no message, sent=%d called=%v", sent, called)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for API failure")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestSendMessage_TokenNotExposed(t *testing.T) {
	const token = "SECRET123:abc"

	newNotifier := func(baseURL string, buf *bytes.Buffer) *Notifier {
		log := logger.NewWithWriter(buf, "test")
		return New(
			httputil.New(log).DisableRetry(),
			config.TelegramConfig{BotToken: token, ChatID: "test-chat", BaseURL: baseURL},
			log,
		)
	}

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := server.URL
		server.Close()

		var buf bytes.Buffer
		err := newNotifier(baseURL, &buf).SendMessage(context.Background(), "hello")
		if err == nil {
			t.Fatal("expected error for closed server")
		}
		if strings.Contains(err.Error(), token) {
			t.Errorf("error exposes bot token: %v", err)
		}
		if strings.Contains(buf.String(), token) {
			t.Errorf("log exposes bot token:\n%s", buf.String())
		}
		if !strings.Contains(buf.String(), "/bot***/sendMessage") {
			t.Errorf("expected masked path in log:\n%s", buf.String())
		}
	})

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		var buf bytes.Buffer
		if err := newNotifier(server.URL, &buf).SendMessage(context.Background(), "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), token) {
			t.Errorf("log exposes bot token:\n%s", buf.String())
		}
	})
}

func TestNotConfigured(t *testing.T) {
	n := New(httputil.New(logger.Nop()), config.TelegramConfig{}, logger.Nop())
	if n.Configured() {
		t.Error("expected notifier without credentials to be unconfigured")
	}
	if _, err := n.SendRotationAlert(context.Background(), asOf, sampleReports(), 0); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
