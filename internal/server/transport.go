package server

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"
)

// stdioConn adapts a child process's stdout/stdin pipe pair into the
// io.ReadWriteCloser a jsonrpc2 stream requires.
type stdioConn struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (c stdioConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c stdioConn) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c stdioConn) Close() error {
	werr := c.w.Close()
	rerr := c.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// Transport is the framed, bidirectional message channel to the
// subordinate process. The traffic itself is opaque to the supervisor;
// the transport exists so the host tooling can speak to the server and
// so error/close events feed the supervisor's state machine.
type Transport struct {
	conn *jsonrpc2.Conn
}

// newTransport frames the given pipes with the LSP base-protocol codec
// and attaches the handler for server-initiated traffic.
func newTransport(ctx context.Context, r io.ReadCloser, w io.WriteCloser, h jsonrpc2.Handler) *Transport {
	if h == nil {
		h = noopHandler{}
	}
	stream := jsonrpc2.NewBufferedStream(stdioConn{r: r, w: w}, jsonrpc2.VSCodeObjectCodec{})
	return &Transport{conn: jsonrpc2.NewConn(ctx, stream, h)}
}

// Conn exposes the underlying connection to the host tooling layer.
func (t *Transport) Conn() *jsonrpc2.Conn {
	return t.conn
}

// Call sends a request and waits for its response.
func (t *Transport) Call(ctx context.Context, method string, params, result any) error {
	return t.conn.Call(ctx, method, params, result)
}

// Notify sends a notification (no response expected).
func (t *Transport) Notify(ctx context.Context, method string, params any) error {
	return t.conn.Notify(ctx, method, params)
}

// Disconnected returns a channel that is closed when the connection is
// no longer usable, whether by explicit close or by stream failure.
func (t *Transport) Disconnected() <-chan struct{} {
	return t.conn.DisconnectNotify()
}

// Close shuts the transport down.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// noopHandler answers unexpected server requests with MethodNotFound
// and drops notifications. It is used when no host tooling is attached.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		return
	}
	_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: "no handler attached for " + req.Method,
	})
}
