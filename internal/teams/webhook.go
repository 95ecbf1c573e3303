package teams

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/bot"
	"github.com/SsToRR/HourlyBot/internal/domain"
)

// activity is the subset of a Bot Framework activity the bot cares about.
// Raw fields are kept opaque so the conversation reference round-trips
// without losing connector-specific attributes.
type activity struct {
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	From         json.RawMessage `json:"from"`
	Recipient    json.RawMessage `json:"recipient"`
	Conversation json.RawMessage `json:"conversation"`
	ChannelID    string          `json:"channelId"`
	ServiceURL   string          `json:"serviceUrl"`
}

type account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageHandler routes one inbound message to a reply. Implemented by
// bot.Router; the webhook has no coupling beyond this.
type MessageHandler interface {
	Handle(ctx context.Context, in bot.Inbound) (string, error)
}

// Webhook adapts inbound Bot Framework activities to the message router and
// transmits the router's reply back over the connector.
type Webhook struct {
	router MessageHandler
	sender bot.Sender
	log    *zap.Logger
}

// NewWebhook builds the inbound message handler.
func NewWebhook(router MessageHandler, sender bot.Sender, log *zap.Logger) *Webhook {
	return &Webhook{router: router, sender: sender, log: log}
}

// ServeHTTP handles POST /api/messages. Malformed payloads are rejected with
// 400 before they reach the router; anything that is not a message activity
// is acknowledged and ignored.
func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var act activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		http.Error(w, "invalid activity payload", http.StatusBadRequest)
		return
	}
	if act.Type != "message" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var from account
	if len(act.From) > 0 {
		if err := json.Unmarshal(act.From, &from); err != nil {
			http.Error(w, "invalid sender", http.StatusBadRequest)
			return
		}
	}
	if from.ID == "" || act.Text == "" {
		http.Error(w, "activity missing sender or text", http.StatusBadRequest)
		return
	}

	// The bot is the inbound recipient; flip the endpoints to get the
	// reference used for proactive sends back into this conversation.
	ref, err := json.Marshal(conversationRef{
		Bot:          act.Recipient,
		User:         act.From,
		Conversation: act.Conversation,
		ChannelID:    act.ChannelID,
		ServiceURL:   act.ServiceURL,
	})
	if err != nil {
		http.Error(w, "invalid conversation reference", http.StatusBadRequest)
		return
	}

	reply, err := h.router.Handle(r.Context(), bot.Inbound{
		UserID:          from.ID,
		Name:            from.Name,
		Text:            act.Text,
		ConversationRef: string(ref),
	})
	switch {
	case errors.Is(err, bot.ErrEmptyInbound):
		http.Error(w, "activity missing sender or text", http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrNotSubscribed):
		// Routed outcome; the reply below prompts the user to subscribe.
	case err != nil:
		h.log.Error("message handling failed", zap.String("user", from.ID), zap.Error(err))
	}

	if reply != "" {
		if err := h.sender.Send(r.Context(), string(ref), reply); err != nil {
			h.log.Error("reply delivery failed", zap.String("user", from.ID), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusOK)
}
