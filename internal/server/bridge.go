package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// MessageObserver inspects forwarded traffic without altering it. The
// bridge calls it with the raw params of every server-originated
// message so the host can mirror log output onto its diagnostic
// surface.
type MessageObserver func(method string, params *json.RawMessage)

// relay forwards everything received on one connection to its bound
// peer. Requests are re-issued on the peer and their results (or
// errors) propagated back; notifications are forwarded as-is. Traffic
// arriving before the peer is bound is held, not dropped: both sides
// attach at slightly different times and early server log output must
// survive the gap.
type relay struct {
	mu      sync.RWMutex
	peer    *jsonrpc2.Conn
	bound   chan struct{}
	observe MessageObserver
}

func newRelay(observe MessageObserver) *relay {
	return &relay{
		bound:   make(chan struct{}),
		observe: observe,
	}
}

func (r *relay) bind(conn *jsonrpc2.Conn) {
	r.mu.Lock()
	r.peer = conn
	select {
	case <-r.bound:
	default:
		close(r.bound)
	}
	r.mu.Unlock()
}

// awaitPeer blocks until a peer is bound or ctx is cancelled. Handlers
// run async, so the wait stalls only the message that arrived early.
func (r *relay) awaitPeer(ctx context.Context) *jsonrpc2.Conn {
	select {
	case <-r.bound:
	case <-ctx.Done():
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peer
}

func (r *relay) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if r.observe != nil {
		r.observe(req.Method, req.Params)
	}

	peer := r.awaitPeer(ctx)

	// Typed nil confuses json.Marshal inside jsonrpc2.
	var params any
	if req.Params != nil {
		params = req.Params
	}

	if peer == nil {
		if !req.Notif {
			_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInternalError,
				Message: "no peer attached",
			})
		}
		return
	}

	if req.Notif {
		_ = peer.Notify(ctx, req.Method, params)
		return
	}

	var result json.RawMessage
	if err := peer.Call(ctx, req.Method, params, &result); err != nil {
		var respErr *jsonrpc2.Error
		if errors.As(err, &respErr) {
			_ = conn.ReplyWithError(ctx, req.ID, respErr)
			return
		}
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInternalError,
			Message: err.Error(),
		})
		return
	}

	_ = conn.Reply(ctx, req.ID, &result)
}

// Bridge relays framed request/response traffic between the editor's
// stream and the subordinate server's transport. It contains no
// protocol state machine: traffic passes through opaquely apart from
// the observer hook.
type Bridge struct {
	toServer *relay // traffic arriving from the editor
	toEditor *relay // traffic arriving from the server
}

// NewBridge creates a bridge. observe may be nil.
func NewBridge(observe MessageObserver) *Bridge {
	return &Bridge{
		toServer: newRelay(nil),
		toEditor: newRelay(observe),
	}
}

// ServerHandler is the handler to attach to the supervisor's transport
// so that server-initiated traffic flows back to the editor. Handlers
// run async: a relayed call must not block the dispatch loop or the
// two sides deadlock.
func (b *Bridge) ServerHandler() jsonrpc2.Handler {
	return jsonrpc2.AsyncHandler(b.toEditor)
}

// BindServer repoints the editor's traffic at a (re)started server
// connection. Called after every successful supervisor start.
func (b *Bridge) BindServer(conn *jsonrpc2.Conn) {
	b.toServer.bind(conn)
}

// Run attaches the editor-side stream and blocks until the editor
// disconnects or ctx is cancelled. Editor disconnect is an expected
// host shutdown, not an error.
func (b *Bridge) Run(ctx context.Context, editor io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(editor, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(b.toServer))
	b.toEditor.bind(conn)

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}
