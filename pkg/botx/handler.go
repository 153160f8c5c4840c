package botx

import (
	"context"
	"strings"
	"unicode"
)

// Handler handles requests.
type Handler func(ctx context.Context, req Request) ([]Response, error)

// Middleware wraps a handler.
type Middleware func(Handler) Handler

// Response is a response from handler.
type Response struct {
	ReplyToMessageID string
	ChatID           string
	Text             string
}

// Request is a request for handler.
type Request struct {
	MessageID string
	Chat      Chat
	Text      string
}

// Command returns the command of the request, e.g. "/start",
// with the bot mention stripped. Empty if the text is not a command.
func (r Request) Command() string {
	if !strings.HasPrefix(r.Text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(strings.Fields(r.Text)[0], "@")
	return cmd
}

// Args returns the text after the command.
func (r Request) Args() string {
	if r.Command() == "" {
		return strings.TrimSpace(r.Text)
	}
	text := strings.TrimSpace(r.Text)
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx:])
}

// Chat contains chat information.
type Chat struct {
	ID       string
	Username string
}

// NotFoundMessage is the reply of the default handler for unknown commands.
const NotFoundMessage = "Comando não encontrado."

// NotFound is a default handler for unknown commands.
func NotFound(_ context.Context, req Request) ([]Response, error) {
	return []Response{{
		ChatID: req.Chat.ID,
		Text:   NotFoundMessage,
	}}, nil
}
