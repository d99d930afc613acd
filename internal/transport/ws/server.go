package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
)

// Options configures control sessions.
type Options struct {
	RateLimit    tuning.RateLimit
	TuningDigest string
}

// Server accepts control sessions. Each session sends HELLO, receives
// WELCOME and then streams MODE/CURSOR/HARVEST/PAUSE messages into the
// colony inbox. Sessions also receive the per-tick frame.
type Server struct {
	colony *colony.Colony
	log    *log.Logger
	opts   Options

	upgrader websocket.Upgrader
}

func NewServer(c *colony.Colony, logger *log.Logger, opts Options) *Server {
	if opts.RateLimit.PerSecond <= 0 {
		opts.RateLimit.PerSecond = 20
	}
	if opts.RateLimit.Burst <= 0 {
		opts.RateLimit.Burst = 40
	}
	return &Server{
		colony: c,
		log:    logger,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
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
		defer conn.Close()

		sid, ok := s.handshake(conn)
		if !ok {
			return
		}
		if s.log != nil {
			s.log.Printf("session %s connected from %s", sid, r.RemoteAddr)
		}

		tickOut := make(chan []byte, 8)
		ackOut := make(chan []byte, 32)
		select {
		case s.colony.ObserverJoin() <- colony.ObserverJoinRequest{SessionID: sid, TickOut: tickOut}:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.colony.ObserverLeave() <- sid:
			default:
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: the only writer after the handshake.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-ackOut:
				case b = <-tickOut:
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.opts.RateLimit.PerSecond), s.opts.RateLimit.Burst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			in, ack := s.decode(sid, msg)
			if ack == nil && !limiter.Allow() {
				ack = s.reject(in.msgType, protocol.ErrRateLimit, "too many messages")
			}
			if ack == nil {
				select {
				case s.colony.Inbox() <- in.input:
				default:
					ack = s.reject(in.msgType, protocol.ErrBusy, "inbox full")
				}
			}
			if ack != nil {
				b, _ := json.Marshal(ack)
				select {
				case ackOut <- b:
				default:
				}
			}
		}
		if s.log != nil {
			s.log.Printf("session %s closed", sid)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	sid := uuid.NewString()
	if err := writeJSON(conn, s.welcome(sid)); err != nil {
		return "", false
	}
	return sid, true
}

func (s *Server) welcome(sid string) protocol.WelcomeMsg {
	cfg := s.colony.Config()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sid,
		ColonyParams: protocol.ColonyParams{
			TickRateHz:      cfg.TickRateHz,
			RoomStride:      cfg.RoomStride,
			FineStride:      cfg.FineStride,
			BuildSeconds:    cfg.BuildSeconds,
			DestructSeconds: cfg.DestructSeconds,
			Anchor:          [2]int{cfg.Anchor.X, cfg.Anchor.Y},
			Seed:            cfg.Seed,
		},
		Digests: protocol.Digests{
			Structures: s.colony.Catalog().Digest,
			Tuning:     s.opts.TuningDigest,
		},
	}
}

type decoded struct {
	msgType string
	input   colony.Input
}

// decode turns one client message into a colony input, or an ACK explaining
// why it was refused.
func (s *Server) decode(sid string, msg []byte) (decoded, *protocol.AckMsg) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return decoded{}, s.reject("", protocol.ErrProtoBadRequest, "invalid json")
	}
	out := decoded{msgType: base.Type, input: colony.Input{SessionID: sid}}
	if base.ProtocolVersion != protocol.Version {
		return out, s.reject(base.Type, protocol.ErrProtoBadRequest, "bad protocol_version")
	}

	switch base.Type {
	case protocol.TypeMode:
		var m protocol.ModeMsg
		err = json.Unmarshal(msg, &m)
		out.input.Mode = &m
	case protocol.TypeCursor:
		var m protocol.CursorMsg
		err = json.Unmarshal(msg, &m)
		out.input.Cursor = &m
	case protocol.TypeHarvest:
		var m protocol.HarvestMsg
		err = json.Unmarshal(msg, &m)
		out.input.Harvest = &m
	case protocol.TypePause:
		var m protocol.PauseMsg
		err = json.Unmarshal(msg, &m)
		out.input.Pause = &m
	default:
		return out, s.reject(base.Type, protocol.ErrBadRequest, "unknown message type")
	}
	if err != nil {
		return out, s.reject(base.Type, protocol.ErrProtoBadRequest, err.Error())
	}
	return out, nil
}

func (s *Server) reject(ackFor, code, msg string) *protocol.AckMsg {
	return &protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		Accepted:        false,
		Code:            code,
		Message:         msg,
		ServerTick:      s.colony.CurrentTick(),
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
