// Package telegram is the send-only bot transport behind the adhan
// notifier. The daemon never reads chat input; the bot link exists purely
// to push trigger and summary messages out.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "prayerd/pkg/logx"
)

const textLimit = 4096

type Config struct {
	Token   string
	Timeout time.Duration // per-send deadline; default 8s

	// Offline skips the getMe round-trip at construction. Used by tests
	// and by deployments that come up before the network does.
	Offline bool
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// SendText pushes one message to chatID. Long messages are split at the
// Telegram limit; ctx cancellation stops between chunks.
func (a *Adapter) SendText(ctx context.Context, chatID int64, text string) error {
	chunks := splitText(text, textLimit)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	chat := &tele.Chat{ID: chatID}
	opt := &tele.SendOptions{DisableWebPagePreview: true}

	for _, chunk := range chunks {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if _, err := a.bot.Send(chat, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}

// splitText chunks text at newline boundaries where possible.
func splitText(s string, limit int) []string {
	if len(s) <= limit {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var out []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n')
		if cut <= 0 {
			cut = limit
		}
		out = append(out, s[:cut])
		s = strings.TrimPrefix(s[cut:], "\n")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
