package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

const historyLimit = 5

// Chat answers messages and recalls past exchanges.
type Chat interface {
	Ask(ctx context.Context, userID int64, message string) string
	History(ctx context.Context, userID int64, limit int) ([]*models.Exchange, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	chat   Chat
	models []string
	logger *zap.Logger
}

func New(token string, chat Chat, modelNames []string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return &Bot{
		api:    api,
		chat:   chat,
		models: modelNames,
		logger: logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	text, markdown := b.respond(ctx, message)
	if text == "" {
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

// respond decides the reply text and whether it is MarkdownV2.
func (b *Bot) respond(ctx context.Context, message *tgbotapi.Message) (string, bool) {
	if message.From == nil {
		return "", false
	}
	if message.IsCommand() {
		return b.handleCommand(ctx, message)
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		return "", false
	}

	return "🌿 " + b.chat.Ask(ctx, message.From.ID, content), false
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) (string, bool) {
	switch message.Command() {
	case "start":
		return welcomeText, false
	case "help":
		return helpText, false
	case "status":
		return "Status: ready\nModels: " + strings.Join(b.models, ", "), false
	case "history":
		return b.handleHistory(ctx, message)
	default:
		return "Unknown command. Use /help to see available commands.", false
	}
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) (string, bool) {
	exchanges, err := b.chat.History(ctx, message.From.ID, historyLimit)
	if err != nil {
		b.logger.Error("Failed to get user history",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		return "⚠️ Sorry, I couldn't retrieve your question history.", false
	}

	if len(exchanges) == 0 {
		return "You haven't asked anything yet.", false
	}

	return formatHistory(exchanges), true
}

func formatHistory(exchanges []*models.Exchange) string {
	var sb strings.Builder
	sb.WriteString("*Your recent questions:*\n\n")
	for _, e := range exchanges {
		sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown("#"+string(e.Category))))
		sb.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(e.Message)))
		sb.WriteString(escapeMarkdown(e.Response))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

const welcomeText = `Welcome to Cladari! 🌿
I'm a botanical assistant for your plant collection.

Ask me anything about plant care, your collection, or plant science.
Use /help to see all available commands.`

const helpText = `Available commands:
/start - Start the bot
/help - Show this help message
/history - Show your recent questions
/status - Show which models are configured

Examples:
- How many plants do I have?
- What causes nutrient deficiency in Anthuriums?
- How is ANT-2025-0042 doing?`
