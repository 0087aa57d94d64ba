package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gorilla/websocket"

	corefeed "github.com/rsodre/d20-dojo/pkg/feed"
)

// Wire envelopes for the websocket gateway. The gateway answers a
// subscribe request with one snapshot frame, then streams update frames.
type wsRequest struct {
	Type              string   `json:"type"`
	Models            []string `json:"models,omitempty"`
	AccountAddresses  []string `json:"account_addresses,omitempty"`
	ContractAddresses []string `json:"contract_addresses,omitempty"`
	Limit             int      `json:"limit,omitempty"`
}

type wsFrame struct {
	Type  string          `json:"type"` // "snapshot" or "update"
	Items []corefeed.Item `json:"items,omitempty"`
	Item  *corefeed.Item  `json:"item,omitempty"`
}

// WSSource serves subscriptions from a websocket gateway endpoint.
type WSSource struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewWSSource creates a source for the given ws:// or wss:// URL.
func NewWSSource(url string, logger *slog.Logger) *WSSource {
	return &WSSource{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Subscribe dials the gateway, sends the subscribe request and waits for
// the snapshot frame. Updates are then delivered until the connection
// fails or the subscription is cancelled.
func (s *WSSource) Subscribe(ctx context.Context, q corefeed.Query) ([]corefeed.Item, corefeed.Subscription, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial feed gateway: %w", err)
	}

	req := wsRequest{
		Type:              "subscribe",
		Models:            q.Models,
		AccountAddresses:  q.AccountAddresses,
		ContractAddresses: q.ContractAddresses,
		Limit:             q.Limit,
	}
	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to send subscribe request: %w", err)
	}

	var first wsFrame
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to read snapshot frame: %w", err)
	}
	if first.Type != "snapshot" {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("unexpected first frame %q", first.Type)
	}

	var cancelled atomic.Bool
	handle := corefeed.NewHandle(64, func() {
		cancelled.Store(true)
		if err := conn.Close(); err != nil {
			s.logger.Debug("Failed to close feed connection", "error", err)
		}
	})

	go func() {
		defer handle.Close()
		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if cancelled.Load() || ctx.Err() != nil {
					return
				}
				handle.SendCtx(ctx, corefeed.Event{Err: fmt.Errorf("feed connection failed: %w", err)})
				return
			}
			if frame.Type != "update" || frame.Item == nil {
				s.logger.Debug("Ignoring unexpected frame", "type", frame.Type)
				continue
			}
			if !handle.SendCtx(ctx, corefeed.Event{Item: *frame.Item}) {
				return
			}
		}
	}()

	return first.Items, handle, nil
}
