// Package telegram drives the same per-user controller as the web front-end
// from a Telegram chat.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/chat"
	"fitlife-ai/internal/config"
	"fitlife-ai/internal/locale"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the subset of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot maps each Telegram chat to a controller of the shared registry.
type Bot struct {
	api          Sender
	registry     *app.Registry
	metricsStore *metrics.Store
	health       func() metrics.SysHealth
	allowed      map[int64]bool
	messages     locale.Messages
	logger       *zap.Logger
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(
	cfg *config.Config,
	registry *app.Registry,
	metricsStore *metrics.Store,
	health func() metrics.SysHealth,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger = logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("description", resp.Description))
	}

	return newBot(api, registry, metricsStore, health, cfg.TelegramAllowedUserIDs, logger), nil
}

func newBot(
	api Sender,
	registry *app.Registry,
	metricsStore *metrics.Store,
	health func() metrics.SysHealth,
	allowedIDs []int64,
	logger *zap.Logger,
) *Bot {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Bot{
		api:          api,
		registry:     registry,
		metricsStore: metricsStore,
		health:       health,
		allowed:      allowed,
		messages:     locale.Default(),
		logger:       logger,
	}
}

// WebhookHandler acknowledges each update immediately and processes it in
// the background; plan generation can take longer than Telegram waits.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("error parsing update", zap.Error(err))
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		go b.HandleUpdate(context.Background(), update)
	})
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.isAllowed(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	c := b.registry.Get(fmt.Sprintf("tg:%d", msg.Chat.ID))

	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, b.messages.ChatGreeting+"\n\n"+usageText, false)
	case "plan":
		b.handlePlan(ctx, c, msg)
	case "meal":
		b.handleMeal(c, msg)
	case "reset":
		c.Reset()
		b.reply(msg.Chat.ID, "✅ "+b.messages.Reset, false)
	case "metrics":
		b.handleMetrics(ctx, msg.Chat.ID)
	case "":
		b.handleChat(ctx, c, msg)
	default:
		b.reply(msg.Chat.ID, usageText, false)
	}
}

// isAllowed admits everyone when no allowlist is configured.
func (b *Bot) isAllowed(userID int64) bool {
	return len(b.allowed) == 0 || b.allowed[userID]
}

func (b *Bot) handlePlan(ctx context.Context, c *app.Controller, msg *tgbotapi.Message) {
	p, err := parsePlanArgs(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "⚠️ "+err.Error()+"\n\n"+usageText, false)
		return
	}

	b.reply(msg.Chat.ID, "⏳ "+b.messages.FormLoading, false)

	err = c.Submit(ctx, p)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrBusy):
		b.reply(msg.Chat.ID, "⏳ "+b.messages.FormLoading, false)
		return
	case errors.Is(err, app.ErrSuperseded):
		return
	default:
		b.logger.Error("error generating plan", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.reply(msg.Chat.ID, "❌ "+b.messages.GenerationFailed, false)
		return
	}

	snap := c.Snapshot()
	if snap.Plan == nil || snap.Profile == nil {
		return
	}
	b.reply(msg.Chat.ID, formatPlanMarkdown(b.messages, *snap.Profile, snap.Plan), true)
}

func (b *Bot) handleMeal(c *app.Controller, msg *tgbotapi.Message) {
	slot, err := planner.ParseSlot(strings.ToLower(strings.TrimSpace(msg.CommandArguments())))
	if err != nil {
		b.reply(msg.Chat.ID, "/meal breakfast | lunch | dinner", false)
		return
	}
	meal, err := c.SelectMeal(slot)
	if err != nil {
		b.reply(msg.Chat.ID, "请先用 /plan 生成食谱。", false)
		return
	}
	b.reply(msg.Chat.ID, formatMealMarkdown(b.messages, slot, meal), true)
}

func (b *Bot) handleChat(ctx context.Context, c *app.Controller, msg *tgbotapi.Message) {
	reply, err := c.SendChat(ctx, msg.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return
	case errors.Is(err, chat.ErrNoSession):
		b.reply(msg.Chat.ID, "请先用 /plan 生成食谱，再向减脂顾问提问。", false)
		return
	case errors.Is(err, chat.ErrSendInFlight):
		b.reply(msg.Chat.ID, "…", false)
		return
	}

	b.reply(msg.Chat.ID, reply, false)
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	if b.metricsStore == nil || len(b.allowed) == 0 {
		b.reply(chatID, "⛔ Access Denied", false)
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("error fetching metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.", false)
		return
	}
	var health metrics.SysHealth
	if b.health != nil {
		health = b.health()
	}
	b.reply(chatID, formatUsageReport(usage, health), true)
}

func (b *Bot) reply(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := b.api.Send(msg)
	if err != nil && markdown {
		// Model text can still trip Telegram's entity parser; resend it plain.
		b.logger.Warn("markdown rejected, sending plain text", zap.Int64("chat_id", chatID), zap.Error(err))
		_, err = b.api.Send(tgbotapi.NewMessage(chatID, stripMarkdown(text)))
	}
	if err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
