package sigkv

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageStream is one established connection that
// delivers whole, ordered messages. The websocket
// listener produces them; tests use an in-memory pipe.
type MessageStream interface {
	ReadMessage() ([]byte, error)
	WriteMessage(by []byte) error
	Close() error
}

// ServeStream owns one connection's loop: read a message,
// handle it, write the reply, repeat. Requests are handled
// strictly one at a time, so replies go out in request order.
// It returns when the peer goes away or a read fails, and
// always closes stream.
func (s *Server) ServeStream(stream MessageStream, remote string) {
	log := s.log.With().Str("remote", remote).Logger()

	connOpened()
	defer connClosed()
	defer stream.Close()
	defer func() {
		// a bug on one connection must not take down the others.
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", stack()).Msg("connection handler panic")
		}
	}()

	log.Info().Msg("Client connected")
	for {
		by, err := stream.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				log.Info().Msg("Client disconnected")
			} else {
				log.Warn().Err(err).Msg("Client disconnected on read error")
			}
			return
		}
		reply, send := s.handle(by, log)
		if !send {
			continue
		}
		if err := stream.WriteMessage(reply); err != nil {
			log.Error().Err(err).Msg("send response")
		}
	}
}

func isNormalClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}

// wsStream adapts a gorilla websocket to MessageStream.
// Replies are always text frames; inbound text and binary
// frames are both accepted.
type wsStream struct {
	c *websocket.Conn

	// Close may race with a write from the serving goroutine.
	wmut sync.Mutex
}

func newWsStream(c *websocket.Conn) *wsStream {
	return &wsStream{c: c}
}

func (w *wsStream) ReadMessage() ([]byte, error) {
	_, by, err := w.c.ReadMessage()
	return by, err
}

func (w *wsStream) WriteMessage(by []byte) error {
	w.wmut.Lock()
	defer w.wmut.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, by)
}

func (w *wsStream) Close() error {
	return w.c.Close()
}

// pipeStream is an in-process MessageStream pair, for tests
// and embedding the server without a listener.
type pipeStream struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

// NewPipe returns two connected MessageStreams. Messages
// written to one are read from the other. Closing either
// end closes both.
func NewPipe() (a, b MessageStream) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	done := make(chan struct{})
	once := &sync.Once{}
	a = &pipeStream{in: ba, out: ab, done: done, once: once}
	b = &pipeStream{in: ab, out: ba, done: done, once: once}
	return
}

func (p *pipeStream) ReadMessage() ([]byte, error) {
	select {
	case by := <-p.in:
		return by, nil
	case <-p.done:
		// drain anything already sent before the close.
		select {
		case by := <-p.in:
			return by, nil
		default:
		}
		return nil, io.EOF
	}
}

func (p *pipeStream) WriteMessage(by []byte) error {
	cp := append([]byte{}, by...)
	select {
	case <-p.done:
		return net.ErrClosed
	default:
	}
	select {
	case p.out <- cp:
		return nil
	case <-p.done:
		return net.ErrClosed
	}
}

func (p *pipeStream) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
