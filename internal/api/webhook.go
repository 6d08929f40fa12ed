// Package api exposes Dusty over HTTP: the inbound SMS webhook, a small
// bearer-authenticated admin surface, and an MCP server for tool access.
package api

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dustybot/dusty/internal/interpret"
	"github.com/dustybot/dusty/internal/storage"
)

const maxWebhookBodySize = 64 << 10 // 64KB

// Executor runs a parsed command for a user and returns the reply text.
type Executor interface {
	Execute(ctx context.Context, user storage.User, cmd interpret.ParsedCommand) (string, error)
}

// UserLookup resolves the sending phone number to a registered household
// member.
type UserLookup interface {
	GetUserByPhone(phone string) (storage.User, error)
}

// WebhookDeps holds dependencies for the SMS webhook handler.
type WebhookDeps struct {
	Users       UserLookup
	Interpreter *interpret.Interpreter
	Executor    Executor
}

// NewWebhookHandler returns the public HTTP surface: the SMS webhook plus a
// health probe. It carries no authentication of its own; SMS providers sign
// requests at a different layer.
func NewWebhookHandler(deps WebhookDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/sms", handleSMS(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// twimlResponse is the minimal TwiML document an SMS provider expects back:
// one <Message> per outbound reply.
type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

func handleSMS(deps WebhookDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
		if err := r.ParseForm(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid form body: %v", err)
			return
		}

		body := strings.TrimSpace(r.PostFormValue("Body"))
		from := strings.TrimSpace(r.PostFormValue("From"))
		if body == "" || from == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Body and From are required")
			return
		}

		user, err := deps.Users.GetUserByPhone(from)
		if errors.Is(err, storage.ErrNotFound) {
			writeTwiML(w, []string{"Sorry, I don't know this number. Ask an admin to add you."})
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to look up sender: %v", err)
			return
		}

		commands := deps.Interpreter.Interpret(body, user.Name)

		replies := make([]string, 0, len(commands))
		for _, cmd := range commands {
			reply, err := deps.Executor.Execute(r.Context(), user, cmd)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to execute command: %v", err)
				return
			}
			if reply != "" {
				replies = append(replies, reply)
			}
		}

		writeTwiML(w, replies)
	}
}

func writeTwiML(w http.ResponseWriter, messages []string) {
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(twimlResponse{Messages: messages}); err != nil {
		return
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
