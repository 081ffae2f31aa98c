// Package live implements the live-mode producer side of the DataFeed:
// a websocket connection to a market-data venue feeding a bounded
// per-subscription channel that the simulation thread drains (spec §5,
// "live mode concurrency" — single-producer/single-consumer per
// subscription, FIFO-ordered).
//
// Grounded on the teacher's broker-agnostic client shape
// (internal/domain.BrokerClient/BrokerQuote), generalized from REST
// polling to a push-based websocket feed using nhooyr.io/websocket.
package live

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// wireMessage is the envelope a venue is expected to push per tick, as
// either JSON text or a MessagePack-encoded binary frame.
type wireMessage struct {
	Symbol string  `json:"symbol" msgpack:"symbol"`
	Time   int64   `json:"time_unix_ms" msgpack:"time_unix_ms"`
	Bid    float64 `json:"bid" msgpack:"bid"`
	Ask    float64 `json:"ask" msgpack:"ask"`
	Last   float64 `json:"last" msgpack:"last"`
}

// Conn is a single live market-data connection producing into a bounded
// per-subscription channel.
type Conn struct {
	url     string
	sym     marketdata.Symbol
	order   int
	msgpack bool
	log     zerolog.Logger

	out chan marketdata.BaseData
}

// NewConn creates a Conn for sym against the venue at url, decoding each
// frame as JSON. The output channel has capacity bufSize; a full channel
// means the consumer is falling behind — Run logs and drops the oldest
// pending sample rather than blocking the network read loop indefinitely
// (spec §5's "no user callback may block indefinitely" extends to the
// producer side too).
func NewConn(url string, sym marketdata.Symbol, order int, bufSize int, log zerolog.Logger) *Conn {
	return newConn(url, sym, order, bufSize, false, log)
}

// NewMsgpackConn is identical to NewConn except each frame is decoded as
// MessagePack binary instead of JSON text, for venues that push a
// compact binary wire format rather than JSON (the same trade-off the
// teacher's display bridge makes for its Arduino link).
func NewMsgpackConn(url string, sym marketdata.Symbol, order int, bufSize int, log zerolog.Logger) *Conn {
	return newConn(url, sym, order, bufSize, true, log)
}

func newConn(url string, sym marketdata.Symbol, order int, bufSize int, useMsgpack bool, log zerolog.Logger) *Conn {
	return &Conn{
		url:     url,
		sym:     sym,
		order:   order,
		msgpack: useMsgpack,
		log:     log.With().Str("component", "live_feed").Str("symbol", sym.String()).Logger(),
		out:     make(chan marketdata.BaseData, bufSize),
	}
}

func (c *Conn) Symbol() marketdata.Symbol { return c.sym }
func (c *Conn) InsertionOrder() int        { return c.order }

// Run dials the venue and pushes decoded ticks into the output channel
// until ctx is canceled or the connection fails.
func (c *Conn) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("live: failed to dial %s: %w", c.url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		msg, err := c.readMessage(ctx, conn)
		if err != nil {
			return fmt.Errorf("live: read failed for %s: %w", c.sym, err)
		}

		t := time.UnixMilli(msg.Time).UTC()
		tick := marketdata.Tick(c.sym, t, msg.Bid, msg.Ask, msg.Last, "")

		select {
		case c.out <- tick:
		default:
			select {
			case <-c.out:
			default:
			}
			c.log.Warn().Msg("output channel full, dropped oldest pending tick")
			c.out <- tick
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// readMessage reads and decodes a single frame, as JSON or MessagePack
// depending on how the Conn was constructed.
func (c *Conn) readMessage(ctx context.Context, conn *websocket.Conn) (wireMessage, error) {
	var msg wireMessage
	if !c.msgpack {
		err := wsjson.Read(ctx, conn, &msg)
		return msg, err
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode msgpack frame: %w", err)
	}
	return msg, nil
}

// Next implements feed.Source by draining the output channel. It blocks
// until a sample is available or the channel is closed.
func (c *Conn) Next() (marketdata.BaseData, bool) {
	d, ok := <-c.out
	return d, ok
}

// Close closes the output channel, signaling Next to return false once
// drained.
func (c *Conn) Close() {
	close(c.out)
}
