// Package telegram adapts the Telegram Bot API for the delivery pipeline.
package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"dripbot/internal/notify"
	"dripbot/pkg/logx"
)

// Config binds the adapter to one bot token and one destination chat.
type Config struct {
	Token  string
	ChatID int64

	// Timeout bounds the underlying HTTP client. Default 10s.
	Timeout time.Duration
}

// Adapter sends texts to a fixed Telegram chat. It implements notify.Sender
// and performs exactly one API call per SendText; retrying is the delivery
// pipeline's job.
type Adapter struct {
	bot  *tele.Bot
	chat *tele.Chat
	log  logx.Logger
}

// New builds the adapter. The underlying library verifies the token with a
// getMe call, so an invalid credential surfaces here as a classified error.
func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, Classify(err)
	}
	log.Debug("telegram bot ready", logx.Int64("chat_id", cfg.ChatID))

	return &Adapter{
		bot:  b,
		chat: &tele.Chat{ID: cfg.ChatID},
		log:  log,
	}, nil
}

// SendText posts one sendMessage call, HTML parse mode, no link previews.
func (a *Adapter) SendText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("message text is empty")
	}

	done := make(chan error, 1)
	go func() {
		_, err := a.bot.Send(a.chat, text, &tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: true,
		})
		done <- err
	}()

	select {
	case <-ctx.Done():
		// The HTTP client's own timeout reaps the in-flight call.
		return &notify.Error{Kind: notify.KindNetwork, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return Classify(err)
		}
		return nil
	}
}

// Classify maps a telebot/network failure into the notify taxonomy.
//
// 401 and 404 both mean a bad token (Telegram answers 404 for malformed
// tokens). 403 and chat-related 400s mean the destination is unusable.
// Flood control (429) stays transient and carries the Retry-After hint.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &notify.Error{
			Kind:        notify.KindProvider,
			Code:        http.StatusTooManyRequests,
			Description: flood.Description,
			RetryAfter:  time.Duration(flood.RetryAfter) * time.Second,
			Err:         err,
		}
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		kind := notify.KindProvider
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusNotFound:
			kind = notify.KindInvalidCredential
		case http.StatusForbidden:
			kind = notify.KindInvalidDestination
		case http.StatusBadRequest:
			if isChatError(apiErr.Description) {
				kind = notify.KindInvalidDestination
			}
		}
		return &notify.Error{
			Kind:        kind,
			Code:        apiErr.Code,
			Description: apiErr.Description,
			Err:         err,
		}
	}

	if isNetworkError(err) {
		return &notify.Error{Kind: notify.KindNetwork, Err: err}
	}
	return &notify.Error{Kind: notify.KindProvider, Err: err}
}

func isChatError(description string) bool {
	d := strings.ToLower(description)
	return strings.Contains(d, "chat not found") ||
		strings.Contains(d, "chat_id is empty") ||
		strings.Contains(d, "peer_id_invalid") ||
		strings.Contains(d, "user is deactivated")
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// url.Error covers DNS failures and refused connections.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
