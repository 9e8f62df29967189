// Package telegram exposes the agent as a Telegram bot.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	. "github.com/Aymensat/CarthageGate/logging"
)

const (
	startText = "👋 Hello! I'm the CarthageGate city assistant.\n\n" +
		"I can:\n• Check public transport lines and delays\n• Report air quality by zone\n" +
		"• List emergency alerts for a zone\n• Answer questions about city data"

	helpText = "Available commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n\n" +
		"Or just ask me things like:\n" +
		"• \"Is the Metro delayed?\"\n" +
		"• \"How is the air quality in Ariana?\"\n" +
		"• \"Any emergencies in La Marsa?\""

	failureText = "Sorry, I couldn't process that. Please try again later."
	unknownText = "Unknown command. Try /help"
)

// Chatter answers one user message.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Bot relays Telegram messages to a Chatter.
type Bot struct {
	api  *tgbotapi.BotAPI
	chat Chatter
}

// New authorizes against the Bot API with token.
func New(token string, chat Chatter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorizing bot: %w", err)
	}
	L_info("telegram: authorized", "account", api.Self.UserName)
	return &Bot{api: api, chat: chat}, nil
}

// Run polls for updates until ctx is cancelled. Each message is handled in
// its own goroutine.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			L_info("telegram: bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	user := ""
	if message.From != nil {
		user = message.From.UserName
	}
	L_debug("telegram: message", "user", user, "chat", message.Chat.ID)

	msg := tgbotapi.NewMessage(message.Chat.ID, reply(ctx, b.chat, message.Command(), message.Text))
	msg.ReplyToMessageID = message.MessageID

	if _, err := b.api.Send(msg); err != nil {
		L_error("telegram: sending reply failed", "chat", message.Chat.ID, "error", err)
	}
}

// reply maps a command (empty for plain text) and its text to the answer.
func reply(ctx context.Context, chat Chatter, command, text string) string {
	switch command {
	case "start":
		return startText
	case "help":
		return helpText
	case "":
		response, err := chat.Chat(ctx, text)
		if err != nil {
			L_error("telegram: agent error", "error", err)
			return failureText
		}
		return response
	default:
		return unknownText
	}
}
