package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"telegram-classifieds-notify/internal/config"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/adapter"
	"telegram-classifieds-notify/internal/infra/metrics"
)

// api is the slice of tgbotapi.BotAPI the client needs. Raw MakeRequest is
// used instead of the typed helpers so message_thread_id (forum topics) can
// be set on every method, and so all response shapes are decoded in one place.
type api interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

var _ adapter.Messenger = (*Client)(nil)

// Client is the rate-limited gateway to the Telegram Bot API. The Bot API
// rate limit is per bot shared across all chats, so every call goes through
// one mutex (concurrency 1) and one pacing limiter (minimum inter-call
// delay). A 429 response is retried exactly once, honoring the retry_after
// advisory when Telegram provides one.
type Client struct {
	api          api
	mu           sync.Mutex
	limiter      ratelimit.Limiter
	retryBackoff time.Duration
	log          *zerolog.Logger
}

// NewBotAPI builds the underlying tgbotapi client with a per-call HTTP
// timeout so a hung request resolves as a failure instead of stalling the
// dispatch queue.
func NewBotAPI(token string, callTimeout time.Duration) (*tgbotapi.BotAPI, error) {
	httpClient := &http.Client{Timeout: callTimeout}
	return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
}

func NewClient(bot *tgbotapi.BotAPI, cfg *config.NotifyConfig, logger *zerolog.Logger) *Client {
	return newClient(bot, cfg.SendDelay, cfg.RetryBackoff, logger)
}

func newClient(a api, sendDelay, retryBackoff time.Duration, logger *zerolog.Logger) *Client {
	compLog := logger.With().Str("component", "TelegramClient").Logger()
	return &Client{
		api:          a,
		limiter:      ratelimit.New(1, ratelimit.Per(sendDelay), ratelimit.WithoutSlack),
		retryBackoff: retryBackoff,
		log:          &compLog,
	}
}

// call serializes all outbound API traffic. The limiter is taken inside the
// lock so successive calls are spaced by at least the configured delay.
func (c *Client) call(ctx context.Context, endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.api.MakeRequest(endpoint, params)
	elapsed := time.Since(start)
	if err == nil {
		metrics.ObserveTelegramCall(endpoint, "ok", elapsed)
		return resp, nil
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		metrics.ObserveTelegramCall(endpoint, "rate_limited", elapsed)
		metrics.IncTelegramRetry()
		backoff := c.retryBackoff
		if apiErr.RetryAfter > 0 {
			backoff = time.Duration(apiErr.RetryAfter) * time.Second
		}
		c.log.Warn().Str("method", endpoint).Dur("backoff", backoff).Msg("rate limited by telegram, retrying once")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		c.limiter.Take()
		start = time.Now()
		resp, err = c.api.MakeRequest(endpoint, params)
		if err == nil {
			metrics.ObserveTelegramCall(endpoint, "ok", time.Since(start))
			return resp, nil
		}
	}

	metrics.ObserveTelegramCall(endpoint, "error", elapsed)
	return resp, err
}

func (c *Client) SendText(ctx context.Context, dst model.Destination, text string) (model.MessageRef, error) {
	params := chatParams(dst)
	params.AddNonEmpty("text", text)
	params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)
	params.AddBool("disable_web_page_preview", true)

	resp, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return model.MessageRef{}, fmt.Errorf("sendMessage to chat %d: %w", dst.ChatID, err)
	}
	msg, err := decodeMessage(resp)
	if err != nil {
		return model.MessageRef{}, err
	}
	return toRef(msg), nil
}

// SendPhotoGroup degrades to a plain sendPhoto for a single URL; several
// URLs become one media group with the caption on the first item only.
func (c *Client) SendPhotoGroup(ctx context.Context, dst model.Destination, caption string, photoURLs []string) ([]model.MessageRef, error) {
	if len(photoURLs) == 0 {
		return nil, errors.New("sendPhotoGroup: no photos")
	}

	if len(photoURLs) == 1 {
		params := chatParams(dst)
		params.AddNonEmpty("photo", photoURLs[0])
		params.AddNonEmpty("caption", caption)
		params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)

		resp, err := c.call(ctx, "sendPhoto", params)
		if err != nil {
			return nil, fmt.Errorf("sendPhoto to chat %d: %w", dst.ChatID, err)
		}
		msg, err := decodeMessage(resp)
		if err != nil {
			return nil, err
		}
		return []model.MessageRef{toRef(msg)}, nil
	}

	media := make([]inputMediaPhoto, 0, len(photoURLs))
	for i, url := range photoURLs {
		item := inputMediaPhoto{Type: "photo", Media: url}
		if i == 0 {
			item.Caption = caption
			item.ParseMode = tgbotapi.ModeHTML
		}
		media = append(media, item)
	}
	params := chatParams(dst)
	if err := params.AddInterface("media", media); err != nil {
		return nil, fmt.Errorf("encode media group: %w", err)
	}

	resp, err := c.call(ctx, "sendMediaGroup", params)
	if err != nil {
		return nil, fmt.Errorf("sendMediaGroup to chat %d: %w", dst.ChatID, err)
	}
	var msgs []tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msgs); err != nil {
		return nil, fmt.Errorf("decode sendMediaGroup response: %w", err)
	}
	refs := make([]model.MessageRef, 0, len(msgs))
	for _, m := range msgs {
		refs = append(refs, toRef(m))
	}
	return refs, nil
}

func (c *Client) EditText(ctx context.Context, dst model.Destination, messageID int, text string) error {
	params := editParams(dst, messageID)
	params.AddNonEmpty("text", text)
	params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)
	params.AddBool("disable_web_page_preview", true)

	if _, err := c.call(ctx, "editMessageText", params); err != nil {
		return fmt.Errorf("editMessageText %d in chat %d: %w", messageID, dst.ChatID, err)
	}
	return nil
}

func (c *Client) EditCaption(ctx context.Context, dst model.Destination, messageID int, caption string) error {
	params := editParams(dst, messageID)
	params.AddNonEmpty("caption", caption)
	params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)

	if _, err := c.call(ctx, "editMessageCaption", params); err != nil {
		return fmt.Errorf("editMessageCaption %d in chat %d: %w", messageID, dst.ChatID, err)
	}
	return nil
}

// EditMedia replaces the photo of an existing message. Needed when the image
// itself changes; caption-only edits cannot do that.
func (c *Client) EditMedia(ctx context.Context, dst model.Destination, messageID int, mediaURL, caption string) error {
	params := editParams(dst, messageID)
	item := inputMediaPhoto{Type: "photo", Media: mediaURL, Caption: caption, ParseMode: tgbotapi.ModeHTML}
	if err := params.AddInterface("media", item); err != nil {
		return fmt.Errorf("encode media: %w", err)
	}

	if _, err := c.call(ctx, "editMessageMedia", params); err != nil {
		return fmt.Errorf("editMessageMedia %d in chat %d: %w", messageID, dst.ChatID, err)
	}
	return nil
}

// DeleteMessage is idempotent: a message already gone on the remote side
// counts as deleted.
func (c *Client) DeleteMessage(ctx context.Context, dst model.Destination, messageID int) error {
	params := editParams(dst, messageID)

	if _, err := c.call(ctx, "deleteMessage", params); err != nil {
		if isMessageGone(err) {
			return nil
		}
		return fmt.Errorf("deleteMessage %d in chat %d: %w", messageID, dst.ChatID, err)
	}
	return nil
}

// inputMediaPhoto is the wire shape for media group items and media edits.
type inputMediaPhoto struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func chatParams(dst model.Destination) tgbotapi.Params {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", dst.ChatID)
	params.AddNonZero("message_thread_id", dst.ThreadID)
	return params
}

func editParams(dst model.Destination, messageID int) tgbotapi.Params {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", dst.ChatID)
	params.AddNonZero("message_id", messageID)
	return params
}

func decodeMessage(resp *tgbotapi.APIResponse) (tgbotapi.Message, error) {
	var msg tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("decode message response: %w", err)
	}
	return msg, nil
}

func toRef(msg tgbotapi.Message) model.MessageRef {
	return model.MessageRef{MessageID: msg.MessageID, MediaGroupID: msg.MediaGroupID}
}

func isMessageGone(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "not found")
}
