package sigkv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glycerine/idem"
	"github.com/gorilla/websocket"
)

var ErrShutdown = fmt.Errorf("shutting down")

// Client talks to a sigkv server over one websocket.
// Calls are serialized, so each reply read belongs to
// the request just sent.
type Client struct {
	name string
	url  string

	mut  sync.Mutex
	conn *websocket.Conn
	halt *idem.Halter
}

// Dial connects to url, e.g. "ws://127.0.0.1:8080/".
func Dial(ctx context.Context, name, url string) (c *Client, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%v: dial '%v': %w", name, url, err)
	}
	c = &Client{
		name: name,
		url:  url,
		conn: conn,
		halt: idem.NewHalter(),
	}
	vv("%v: connected to '%v' from '%v'", name, url, conn.LocalAddr())
	return c, nil
}

// Close is idempotent.
func (c *Client) Close() error {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.halt.ReqStop.IsClosed() {
		return nil
	}
	c.halt.ReqStop.Close()
	// best effort polite goodbye before we drop the tcp conn.
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	c.halt.Done.Close()
	vv("%v: closed", c.name)
	return err
}

// Send writes req and does not wait for a reply. The
// server stays silent on unrecognized events, so use
// this rather than Do for those.
func (c *Client) Send(ctx context.Context, req *Request) error {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req *Request) error {
	if c.halt.ReqStop.IsClosed() {
		return ErrShutdown
	}
	by, err := req.Bytes()
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(dl)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	vv("%v: send %s", c.name, by)
	return c.conn.WriteMessage(websocket.TextMessage, by)
}

// Do sends req and waits for its reply. If ctx ends
// first the connection is no longer usable and should
// be closed.
func (c *Client) Do(ctx context.Context, req *Request) (resp *Response, err error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if err = c.send(ctx, req); err != nil {
		return nil, err
	}
	return c.readReply(ctx)
}

// DoRaw sends payload as-is and waits for one reply.
// Handy for poking the server with malformed input.
func (c *Client) DoRaw(ctx context.Context, payload []byte) (resp *Response, err error) {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.halt.ReqStop.IsClosed() {
		return nil, ErrShutdown
	}
	vv("%v: send raw %q", c.name, payload)
	if err = c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, err
	}
	return c.readReply(ctx)
}

func (c *Client) readReply(ctx context.Context) (resp *Response, err error) {
	stop := context.AfterFunc(ctx, func() {
		// unblock ReadMessage below.
		c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	_, by, err := c.conn.ReadMessage()
	if err != nil {
		vv("%v: read reply: %v", c.name, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	vv("%v: reply %s", c.name, by)
	return DecodeResponse(by)
}

// Get fetches the record stored under the full identifier.
func (c *Client) Get(ctx context.Context, identifier string) (*Response, error) {
	return c.Do(ctx, NewGetRequest(identifier))
}

// Put signs data with key and stores it under hash,
// namespaced by key's prefix.
func (c *Client) Put(ctx context.Context, key *SigningKey, hash, data string) (*Response, error) {
	return c.Do(ctx, key.NewPutRequest(hash, data))
}
