package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChat struct {
	reply string
	err   error
	got   []string
}

func (s *stubChat) Chat(_ context.Context, message string) (string, error) {
	s.got = append(s.got, message)
	return s.reply, s.err
}

func TestReply(t *testing.T) {
	tests := []struct {
		name    string
		command string
		text    string
		chat    *stubChat
		want    string
		asked   bool
	}{
		{"start", "start", "/start", &stubChat{}, startText, false},
		{"help", "help", "/help", &stubChat{}, helpText, false},
		{"unknown command", "auth", "/auth", &stubChat{}, unknownText, false},
		{"plain text", "", "Is the Metro delayed?", &stubChat{reply: "Metro Line 1 is delayed."}, "Metro Line 1 is delayed.", true},
		{"agent error", "", "hi", &stubChat{err: errors.New("model backend unavailable")}, failureText, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reply(context.Background(), tt.chat, tt.command, tt.text)

			assert.Equal(t, tt.want, got)
			if tt.asked {
				assert.Equal(t, []string{tt.text}, tt.chat.got)
			} else {
				assert.Empty(t, tt.chat.got)
			}
		})
	}
}
