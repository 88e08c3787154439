package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/external/naver"
	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
)

// ErrNotConfigured is returned when bot token or chat id is missing
var ErrNotConfigured = errors.New("telegram: bot token and chat id are required")

const separator = "━━━━━━━━━━━━━━━━━━━━"

// Notifier sends rotation alerts through the Telegram Bot API
// ⭐ SSOT: 텔레그램 전송은 여기서만
type Notifier struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	botToken   string
	chatID     string
}

// New creates a new Telegram notifier.
// 봇 토큰은 URL 경로에 들어가므로 httpClient 로그/에러에서 가린다
func New(httpClient *httputil.Client, cfg config.TelegramConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		httpClient: httpClient.WithRedaction(cfg.BotToken),
		logger:     log.WithComponent("telegram"),
		baseURL:    cfg.BaseURL,
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
	}
}

// Configured reports whether credentials are present
func (n *Notifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

// SendRotationAlert sends the reports scoring at least threshold.
// Returns the number of alerted sectors; 0 with nil error when none qualified.
func (n *Notifier) SendRotationAlert(ctx context.Context, asOf time.Time, reports []contracts.SectorReport, threshold int) (int, error) {
	if !n.Configured() {
		return 0, ErrNotConfigured
	}

	var high []contracts.SectorReport
	for _, r := range reports {
		if r.Rotation.RotationScore >= threshold {
			high = append(high, r)
		}
	}
	if len(high) == 0 {
		return 0, nil
	}

	if err := n.SendMessage(ctx, FormatRotationAlert(asOf, high)); err != nil {
		return 0, err
	}

	n.logger.WithFields(map[string]interface{}{
		"sectors":   len(high),
		"threshold": threshold,
	}).Info("Rotation alert sent")
	return len(high), nil
}

// FormatRotationAlert renders the HTML alert message
func FormatRotationAlert(asOf time.Time, reports []contracts.SectorReport) string {
	var sb strings.Builder

	sb.WriteString("🚀 <b>섹터 순환매 신호 감지</b>\n")
	sb.WriteString(fmt.Sprintf("📅 %s\n", asOf.Format("2006-01-02")))
	sb.WriteString(separator + "\n\n")

	for _, r := range reports {
		rot := r.Rotation
		sb.WriteString(fmt.Sprintf("<b>[%s]</b> %d/%d점 ⭐\n", html.EscapeString(r.Name), rot.RotationScore, rot.MaxScore))
		sb.WriteString(fmt.Sprintf("티커: %s\n", html.EscapeString(r.Code)))
		sb.WriteString(fmt.Sprintf("📊 장기 %+.1f%% | 단기 %+.1f%%\n", rot.LongTermReturnPct, rot.ShortTermReturnPct))
		sb.WriteString(fmt.Sprintf("💰 거래량 %.1f배 | 수급 %+.1f%%\n", rot.VolumeSurgeRatio, r.SupplyIncreasePct))

		if len(r.Headlines) > 0 && r.Headlines[0] != naver.NoNews {
			sb.WriteString(fmt.Sprintf("📰 %s\n", html.EscapeString(r.Headlines[0])))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(separator + "\n")
	sb.WriteString(fmt.Sprintf("총 %d개 섹터 발견", len(reports)))

	return sb.String()
}

// SendMessage posts an HTML message to the configured chat
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	if !n.Configured() {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	payload := map[string]any{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	resp, err := n.httpClient.PostJSON(ctx, url, payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		body, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(body, &result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
