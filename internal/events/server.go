// Package events broadcasts pipeline events to UI shells over a local
// websocket, replacing an in-process window channel with a socket any
// frontend can attach to.
package events

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/pipeline"
)

// subscriberBuffer bounds the per-client backlog. A client that falls this
// far behind starts losing events rather than stalling the pipeline.
const subscriberBuffer = 64

type subscriber struct {
	ch chan pipeline.Event
}

// Server accepts websocket clients and fans pipeline events out to them.
// It implements pipeline.Sink; Emit never blocks.
type Server struct {
	addr string

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}

	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a Server listening on addr once Start is called.
func NewServer(addr string) *Server {
	s := &Server{
		addr:        addr,
		subscribers: make(map[*subscriber]struct{}),
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/events", s.handleEvents)
	// No server-level read/write timeouts: the websocket stream and the
	// command endpoints (which wait on provider calls) are long-lived.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start listens and serves until Shutdown. It blocks.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("event server listening")
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server and disconnects all clients.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Emit implements pipeline.Sink. Events are dropped per-client when a client
// cannot keep up; the pipeline is never back-pressured by a slow UI.
func (s *Server) Emit(e pipeline.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub.ch <- e:
		default:
			log.Warn().Str("event", e.Name).Msg("slow event subscriber, dropping event")
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Local-only server; the UI shell connects from a file:// or
		// app:// origin that browsers would otherwise reject.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	sub := &subscriber{ch: make(chan pipeline.Event, subscriberBuffer)}
	s.addSubscriber(sub)
	defer s.removeSubscriber(sub)

	log.Debug().Str("remote", r.RemoteAddr).Msg("event subscriber connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case e := <-sub.ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, e)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("event subscriber disconnected")
				return
			}
		}
	}
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub] = struct{}{}
}

func (s *Server) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, sub)
}

var _ pipeline.Sink = (*Server)(nil)
