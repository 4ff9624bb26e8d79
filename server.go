package sigkv

// server.go: websocket listener. Each accepted
// websocket is served by ServeStream on its own goroutine.

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/glycerine/idem"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var ErrServerClosed = fmt.Errorf("server closed")

// Server holds the one piece of state shared across
// connections: the Store.
type Server struct {
	cfg     *Config
	store   Store
	deriver *Deriver
	log     zerolog.Logger

	// now is the clock for record timestamps.
	now func() time.Time

	halt     *idem.Halter
	upgrader websocket.Upgrader

	mut   sync.Mutex
	lsn   net.Listener
	hsrv  *http.Server
	conns map[*websocket.Conn]bool
}

// NewServer does not take ownership of store; the
// caller closes it after Server.Close returns.
func NewServer(config *Config, store Store, log zerolog.Logger) (s *Server, err error) {
	if store == nil {
		return nil, fmt.Errorf("NewServer: nil store")
	}
	// make our own copy
	var cfg *Config
	if config != nil {
		clone := *config
		cfg = &clone
	} else {
		cfg = NewConfig()
	}
	if err = cfg.FinishConfig(); err != nil {
		return nil, err
	}
	scheme, err := ParsePrefixScheme(cfg.PrefixScheme)
	if err != nil {
		return nil, err
	}
	s = &Server{
		cfg:     cfg,
		store:   store,
		deriver: NewDeriver(scheme),
		log:     log,
		now:     time.Now,
		halt:    idem.NewHalter(),
		conns:   make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// no origin check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	return s, nil
}

// Config returns the finished config in use.
func (s *Server) Config() *Config {
	return s.cfg
}

// Start listens on cfg.ListenAddr and serves in the
// background. Use port 0 to have one picked; the
// returned addr says which.
func (s *Server) Start() (addr net.Addr, err error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.halt.ReqStop.IsClosed() {
		return nil, ErrServerClosed
	}
	if s.lsn != nil {
		return nil, fmt.Errorf("server already started on %v", s.lsn.Addr())
	}

	lsn, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %v: %w", s.cfg.ListenAddr, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WSPath, s.serveWebsocket)
	if s.cfg.MetricsEnabled() {
		registerMetrics()
		mux.Handle(s.cfg.MetricsPath, promhttp.Handler())
	}
	s.lsn = lsn
	s.hsrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 20 * time.Second,
	}
	hsrv := s.hsrv

	go func() {
		defer s.halt.Done.Close()
		err := hsrv.Serve(lsn)
		if err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("http serve")
		}
	}()
	s.log.Info().Str("addr", lsn.Addr().String()).Str("path", s.cfg.WSPath).Msg("WebSocket server running")
	return lsn.Addr(), nil
}

// URL is the ws:// address clients dial; "" before Start.
func (s *Server) URL() string {
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.lsn == nil {
		return ""
	}
	return "ws://" + s.lsn.Addr().String() + s.cfg.WSPath
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an http error.
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket handshake")
		return
	}
	if s.cfg.MaxMessageBytes > 0 {
		c.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	if !s.track(c) {
		c.Close()
		return
	}
	defer s.untrack(c)

	s.ServeStream(newWsStream(c), r.RemoteAddr)
}

func (s *Server) track(c *websocket.Conn) bool {
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.halt.ReqStop.IsClosed() {
		return false
	}
	s.conns[c] = true
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mut.Lock()
	delete(s.conns, c)
	s.mut.Unlock()
}

// NumConns is the number of websockets being served.
func (s *Server) NumConns() int {
	s.mut.Lock()
	defer s.mut.Unlock()
	return len(s.conns)
}

// Close stops the listener and closes every open
// websocket. In flight requests are not waited for.
// The Store is left open.
func (s *Server) Close() error {
	s.mut.Lock()
	s.halt.ReqStop.Close()
	hsrv := s.hsrv
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mut.Unlock()

	if hsrv == nil {
		// never started
		s.halt.Done.Close()
		return nil
	}
	err := hsrv.Close()
	for _, c := range conns {
		c.Close()
	}
	<-s.halt.Done.Chan
	return err
}
