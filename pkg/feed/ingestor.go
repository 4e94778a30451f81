package feed

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solarb/pkg/arb"
)

// Sink receives decoded quote updates. Push must never block; a false return
// means the update was dropped.
type Sink interface {
	Push(u arb.QuoteUpdate) bool
}

// binary payload layout: 32-byte account key, 8-byte LE slot, account data
const binaryHeaderSize = 40

// textPayload is the JSON quote event shape.
type textPayload struct {
	Account string `json:"account"`
	Data    string `json:"data"` // base64
	Slot    uint64 `json:"slot"`
}

// subscribeRequest asks the feed to start pushing updates for the listed
// accounts.
type subscribeRequest struct {
	Method   string   `json:"method"`
	Accounts []string `json:"accounts"`
}

// Ingestor maintains one persistent websocket subscription to the quote feed
// and republishes decoded events to the sink. A dropped connection is retried
// forever; the rest of the pipeline keeps running against its last snapshot
// in the meantime.
type Ingestor struct {
	url            string
	accounts       []string
	sink           Sink
	logger         *zap.Logger
	reconnectDelay time.Duration

	mu        sync.RWMutex
	connected bool
}

func NewIngestor(url string, accounts []string, sink Sink, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		url:            url,
		accounts:       accounts,
		sink:           sink,
		logger:         logger,
		reconnectDelay: 5 * time.Second,
	}
}

// Run connects, subscribes and reads until ctx is cancelled. Connection
// failures are logged and retried after the reconnect delay.
func (in *Ingestor) Run(ctx context.Context) error {
	for {
		if err := in.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			in.logger.Warn("feed connection lost", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(in.reconnectDelay):
		}
	}
}

// IsConnected reports whether a live connection is up.
func (in *Ingestor) IsConnected() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.connected
}

func (in *Ingestor) setConnected(v bool) {
	in.mu.Lock()
	in.connected = v
	in.mu.Unlock()
}

func (in *Ingestor) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, in.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	req := subscribeRequest{Method: "subscribe", Accounts: in.accounts}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	in.setConnected(true)
	defer in.setConnected(false)
	in.logger.Info("feed connected",
		zap.String("url", in.url),
		zap.Int("accounts", len(in.accounts)))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read feed: %w", err)
		}

		var update arb.QuoteUpdate
		switch msgType {
		case websocket.TextMessage:
			update, err = decodeTextEvent(payload)
		case websocket.BinaryMessage:
			update, err = decodeBinaryEvent(payload)
		default:
			continue
		}
		if err != nil {
			in.logger.Warn("malformed feed event",
				zap.Int("type", msgType),
				zap.Int("size", len(payload)),
				zap.Error(err))
			continue
		}

		update.Received = time.Now()
		in.sink.Push(update)
	}
}

// decodeTextEvent parses the JSON event shape.
func decodeTextEvent(payload []byte) (arb.QuoteUpdate, error) {
	var ev textPayload
	if err := json.Unmarshal(payload, &ev); err != nil {
		return arb.QuoteUpdate{}, fmt.Errorf("parse text event: %w", err)
	}
	if ev.Account == "" {
		return arb.QuoteUpdate{}, fmt.Errorf("text event missing account")
	}
	data, err := base64.StdEncoding.DecodeString(ev.Data)
	if err != nil {
		return arb.QuoteUpdate{}, fmt.Errorf("decode account data: %w", err)
	}
	return arb.QuoteUpdate{
		AccountID: ev.Account,
		Data:      data,
		Slot:      ev.Slot,
	}, nil
}

// decodeBinaryEvent parses the fixed binary layout.
func decodeBinaryEvent(payload []byte) (arb.QuoteUpdate, error) {
	if len(payload) < binaryHeaderSize {
		return arb.QuoteUpdate{}, fmt.Errorf("binary event too short: %d bytes", len(payload))
	}
	account := base58.Encode(payload[:32])
	slot := binary.LittleEndian.Uint64(payload[32:40])
	data := make([]byte, len(payload)-binaryHeaderSize)
	copy(data, payload[binaryHeaderSize:])
	return arb.QuoteUpdate{
		AccountID: account,
		Data:      data,
		Slot:      slot,
	}, nil
}
