package discord

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snapjudge/snapjudge/internal/domain/request"
)

const defaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatACK = 11
)

// Intents: GUILDS | GUILD_MESSAGES | MESSAGE_CONTENT.
const gatewayIntents = 1<<0 | 1<<9 | 1<<15

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = time.Minute
	gatewayWriteWait   = 10 * time.Second
)

// Resolver is the slice of the review service the listener needs.
type Resolver interface {
	Resolve(ctx context.Context, id, result string, origin request.Origin, actorID string) (*request.EvaluationRequest, error)
}

// Replier sends the listener's human-readable replies.
type Replier interface {
	CreateMessage(ctx context.Context, channelID, content, replyToID string) error
}

// Gateway holds the persistent connection to Discord and turns MESSAGE_CREATE
// events into resolution attempts.
type Gateway struct {
	token      string
	gatewayURL string
	resolver   Resolver
	replier    Replier
	logger     zerolog.Logger
	lastSeq    atomic.Int64
	hasSeq     atomic.Bool

	// writeMu serializes frame writes: the heartbeat ticker and the read
	// loop's reply to a server heartbeat request share one connection, and
	// gorilla/websocket allows at most one concurrent writer.
	writeMu sync.Mutex
}

func NewGateway(token string, resolver Resolver, replier Replier, logger zerolog.Logger) *Gateway {
	return &Gateway{
		token:      token,
		gatewayURL: defaultGatewayURL,
		resolver:   resolver,
		replier:    replier,
		logger:     logger.With().Str("component", "discord-gateway").Logger(),
	}
}

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Run keeps the gateway connection alive until the context is cancelled,
// reconnecting with exponential backoff when the session drops.
func (g *Gateway) Run(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		err := g.runSession(ctx)
		if ctx.Err() != nil {
			return
		}
		g.logger.Warn().Err(err).Dur("retry_in", delay).Msg("gateway session ended")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (g *Gateway) runSession(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.gatewayURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// First frame must be Hello with the heartbeat cadence.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return err
	}
	if hello.Op != opHello {
		return errors.New("gateway: expected hello frame")
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		return err
	}

	if err := g.send(conn, opIdentify, identifyData{
		Token:   g.token,
		Intents: gatewayIntents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "snapjudge",
			Device:  "snapjudge",
		},
	}); err != nil {
		return err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go g.heartbeatLoop(sessionCtx, conn, time.Duration(hd.HeartbeatInterval)*time.Millisecond)

	g.logger.Info().Msg("gateway connected")
	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return err
		}
		if payload.S != nil {
			g.lastSeq.Store(*payload.S)
			g.hasSeq.Store(true)
		}
		switch payload.Op {
		case opDispatch:
			if payload.T != "MESSAGE_CREATE" {
				continue
			}
			var msg Message
			if err := json.Unmarshal(payload.D, &msg); err != nil {
				g.logger.Warn().Err(err).Msg("undecodable message event")
				continue
			}
			g.HandleMessage(ctx, msg)
		case opHeartbeat:
			_ = g.sendHeartbeat(conn)
		case opHeartbeatACK:
			// Nothing to do; liveness is delegated to read errors.
		}
	}
}

func (g *Gateway) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// The read loop has no deadline of its own; closing the
			// connection is what unblocks it on shutdown.
			conn.Close()
			return
		case <-ticker.C:
			if err := g.sendHeartbeat(conn); err != nil {
				// A failed write can leave the connection half-open. Close
				// it so the read loop errors out and the session reconnects
				// instead of blocking forever.
				g.logger.Warn().Err(err).Msg("heartbeat write failed")
				conn.Close()
				return
			}
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) error {
	var seq interface{}
	if g.hasSeq.Load() {
		seq = g.lastSeq.Load()
	}
	return g.send(conn, opHeartbeat, seq)
}

func (g *Gateway) send(conn *websocket.Conn, op int, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(gatewayWriteWait))
	return conn.WriteJSON(gatewayPayload{Op: op, D: raw})
}

// HandleMessage is the text-command adapter: it filters chatter, parses the
// !rate command, and reports the resolution outcome back to the channel.
func (g *Gateway) HandleMessage(ctx context.Context, msg Message) {
	if msg.Author.Bot {
		return
	}
	if !strings.HasPrefix(msg.Content, CommandPrefix) {
		return
	}

	id, result, ok := ParseRateCommand(msg.Content)
	if !ok {
		g.reply(ctx, msg, "usage: "+CommandPrefix+" <id> <result>")
		return
	}

	resolved, err := g.resolver.Resolve(ctx, id, result, request.OriginCommand, msg.Author.ID)
	switch {
	case err == nil:
		g.reply(ctx, msg, "resolved: "+resolved.Result)
	case errors.Is(err, request.ErrUnauthorized):
		g.reply(ctx, msg, "only the designated reviewer can resolve requests")
	case errors.Is(err, request.ErrNotFound):
		g.reply(ctx, msg, "no such id")
	case errors.Is(err, request.ErrAlreadyResolved):
		g.reply(ctx, msg, "already resolved")
	default:
		g.logger.Error().Err(err).Str("request_id", id).Msg("command resolution failed")
		g.reply(ctx, msg, "something went wrong, try again")
	}
}

func (g *Gateway) reply(ctx context.Context, msg Message, content string) {
	if err := g.replier.CreateMessage(ctx, msg.ChannelID, content, msg.ID); err != nil {
		g.logger.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("reply failed")
	}
}
