package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/session"
)

// Hub accepts new connections; the world adopts them on its next tick.
type Hub interface {
	Connect() chan<- session.Postbox
}

var (
	ErrSlowConsumer = errors.New("outbound queue full")
	ErrHubBusy      = errors.New("world did not accept connection")
)

const (
	outboundQueue = 256
	writeTimeout  = 5 * time.Second
	readTimeout   = 60 * time.Second
	acceptTimeout = 5 * time.Second
)

type Server struct {
	hub Hub
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(hub Hub, logger *log.Logger) *Server {
	return &Server{
		hub: hub,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		pb := newPostbox()

		select {
		case s.hub.Connect() <- pb:
		case <-time.After(acceptTimeout):
			s.logf("reject %s: %v", r.RemoteAddr, ErrHubBusy)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}
		s.logf("connect %s session=%s", r.RemoteAddr, pb.id)

		go pb.writeLoop(conn)
		pb.readLoop(conn, s.log)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

// postbox bridges one websocket connection and the tick loop. The tick
// loop only touches it through the session.Postbox methods.
type postbox struct {
	id  string
	out chan []byte

	mu    sync.Mutex
	inbox []protocol.ClientMsg
	err   error

	done      chan struct{}
	closeOnce sync.Once
}

func newPostbox() *postbox {
	return &postbox{
		id:   uuid.NewString(),
		out:  make(chan []byte, outboundQueue),
		done: make(chan struct{}),
	}
}

func (p *postbox) ID() string { return p.id }

func (p *postbox) Send(msg protocol.ServerMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		p.fail(err)
		return
	}
	select {
	case <-p.done:
	case p.out <- b:
	default:
		p.fail(ErrSlowConsumer)
	}
}

func (p *postbox) NewMessages() []protocol.ClientMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.inbox
	p.inbox = nil
	return msgs
}

func (p *postbox) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *postbox) Close() { p.closeOnce.Do(func() { close(p.done) }) }

func (p *postbox) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *postbox) push(m protocol.ClientMsg) {
	p.mu.Lock()
	p.inbox = append(p.inbox, m)
	p.mu.Unlock()
}

// writeLoop flushes queued messages until the world closes the postbox,
// then sends a close frame and drops the connection.
func (p *postbox) writeLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		select {
		case <-p.done:
			// Drain what the world queued before closing (DISCONNECT, SHUTDOWN).
			for {
				select {
				case b := <-p.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				default:
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
					return
				}
			}
		case b := <-p.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				p.fail(err)
				return
			}
		}
	}
}

func (p *postbox) readLoop(conn *websocket.Conn, logger *log.Logger) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			p.fail(err)
			return
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil || !protocol.IsClientType(base.Type) {
			if logger != nil {
				logger.Printf("session=%s: dropping malformed message", p.id)
			}
			continue
		}
		var msg protocol.ClientMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		p.push(msg)
	}
}
