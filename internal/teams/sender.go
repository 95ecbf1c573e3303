package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// conversationRef is the serialized addressing info stored per user. It is
// captured verbatim from inbound activities so proactive sends can address
// the same conversation later.
type conversationRef struct {
	Bot          json.RawMessage `json:"bot"`
	User         json.RawMessage `json:"user"`
	Conversation json.RawMessage `json:"conversation"`
	ChannelID    string          `json:"channelId"`
	ServiceURL   string          `json:"serviceUrl"`
}

// Sender posts proactive message activities to the Bot Framework connector.
type Sender struct {
	tokens *TokenSource
	httpc  *http.Client
	log    *zap.Logger
}

// NewSender builds an outbound sender on top of a token source.
func NewSender(tokens *TokenSource, log *zap.Logger) *Sender {
	return &Sender{
		tokens: tokens,
		httpc:  &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// Send delivers text to the conversation described by the serialized
// reference. The context bounds the whole call, token acquisition included.
func (s *Sender) Send(ctx context.Context, serializedRef, text string) error {
	var ref conversationRef
	if err := json.Unmarshal([]byte(serializedRef), &ref); err != nil {
		return fmt.Errorf("decode conversation reference: %w", err)
	}
	var conv struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(ref.Conversation, &conv); err != nil || conv.ID == "" {
		return fmt.Errorf("conversation reference has no conversation id")
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	activity := map[string]any{
		"type":         "message",
		"text":         text,
		"from":         ref.Bot,
		"recipient":    ref.User,
		"conversation": ref.Conversation,
		"channelId":    ref.ChannelID,
		"serviceUrl":   ref.ServiceURL,
	}
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	url := strings.TrimRight(ref.ServiceURL, "/") + "/v3/conversations/" + conv.ID + "/activities"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
