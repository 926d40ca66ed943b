package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapjudge/snapjudge/internal/domain/request"
)

// sessionResolver and sessionReplier hand their observations over channels
// because the session loop runs in its own goroutine.

type sessionResolver struct {
	calls chan resolveCall
}

func (r *sessionResolver) Resolve(_ context.Context, id, result string, origin request.Origin, actorID string) (*request.EvaluationRequest, error) {
	r.calls <- resolveCall{id: id, result: result, origin: origin, actorID: actorID}
	return &request.EvaluationRequest{ID: id, Status: request.StatusDone, Result: result}, nil
}

type sessionReplier struct {
	replies chan sentReply
}

func (r *sessionReplier) CreateMessage(_ context.Context, channelID, content, replyToID string) error {
	r.replies <- sentReply{channelID: channelID, content: content, replyToID: replyToID}
	return nil
}

func TestGateway_RunSession(t *testing.T) {
	identifies := make(chan gatewayPayload, 1)
	frames := make(chan gatewayPayload, 64)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// hello with an aggressive cadence so ticker heartbeats overlap the
		// scripted frames below
		if err := conn.WriteJSON(map[string]interface{}{
			"op": opHello,
			"d":  map[string]int{"heartbeat_interval": 20},
		}); err != nil {
			return
		}

		var identify gatewayPayload
		if err := conn.ReadJSON(&identify); err != nil {
			return
		}
		identifies <- identify

		// server-requested heartbeat, answered from the read loop while the
		// ticker goroutine keeps writing on the same connection
		if err := conn.WriteJSON(map[string]interface{}{"op": opHeartbeat}); err != nil {
			return
		}

		seq := int64(7)
		rawMsg, _ := json.Marshal(Message{
			ID:        "m-1",
			ChannelID: "c-1",
			Content:   "!rate 1000 cute",
			Author:    User{ID: "reviewer-1"},
		})
		if err := conn.WriteJSON(gatewayPayload{Op: opDispatch, T: "MESSAGE_CREATE", S: &seq, D: rawMsg}); err != nil {
			return
		}

		for {
			var p gatewayPayload
			if err := conn.ReadJSON(&p); err != nil {
				return
			}
			frames <- p
		}
	}))
	defer srv.Close()

	resolver := &sessionResolver{calls: make(chan resolveCall, 1)}
	replier := &sessionReplier{replies: make(chan sentReply, 1)}
	g := NewGateway("test-token", resolver, replier, zerolog.Nop())
	g.gatewayURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.runSession(ctx) }()

	// identify is the first client frame after hello
	select {
	case identify := <-identifies:
		assert.Equal(t, opIdentify, identify.Op)
		var id identifyData
		require.NoError(t, json.Unmarshal(identify.D, &id))
		assert.Equal(t, "test-token", id.Token)
		assert.Equal(t, gatewayIntents, id.Intents)
	case <-time.After(2 * time.Second):
		t.Fatal("identify never arrived")
	}

	// collect heartbeats until one carries the dispatched sequence number;
	// at 20ms cadence that proves both the requested reply and the ticker
	// kept flowing after the dispatch
	heartbeats := 0
	deadline := time.After(2 * time.Second)
	for {
		var seen gatewayPayload
		select {
		case seen = <-frames:
		case <-deadline:
			t.Fatal("never saw a heartbeat carrying the dispatched sequence")
		}
		require.Equal(t, opHeartbeat, seen.Op)
		heartbeats++
		if string(seen.D) == "7" {
			break
		}
	}
	assert.GreaterOrEqual(t, heartbeats, 1)

	// the dispatched !rate command reached the resolver and got a reply
	select {
	case call := <-resolver.calls:
		assert.Equal(t, resolveCall{id: "1000", result: "cute", origin: request.OriginCommand, actorID: "reviewer-1"}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never reached the resolver")
	}
	select {
	case reply := <-replier.replies:
		assert.Equal(t, sentReply{channelID: "c-1", content: "resolved: cute", replyToID: "m-1"}, reply)
	case <-time.After(2 * time.Second):
		t.Fatal("reply was never sent")
	}

	// cancelling the context closes the connection from the heartbeat
	// goroutine, which is what unblocks the deadline-less read loop
	cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after cancellation")
	}

	// drain any heartbeats that raced the shutdown
	for {
		select {
		case <-frames:
		default:
			return
		}
	}
}

func TestGateway_RunSession_RejectsNonHello(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]interface{}{"op": opDispatch})
	}))
	defer srv.Close()

	g := NewGateway("test-token", &sessionResolver{calls: make(chan resolveCall, 1)}, &sessionReplier{replies: make(chan sentReply, 1)}, zerolog.Nop())
	g.gatewayURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	err := g.runSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected hello")
}
