package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "client name")
		radius = flag.Int("radius", 3, "how far from the anchor to build rooms")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	b := newBuilder(*radius)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.anchor = w.ColonyParams.Anchor
			logger.Printf("WELCOME session=%s tick_rate=%d seed=%d", w.SessionID, w.ColonyParams.TickRateHz, w.ColonyParams.Seed)

		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil || a.Accepted {
				continue
			}
			if !protocol.IsKnownCode(a.Code) {
				logger.Printf("rejected %s with unknown code %q", a.AckFor, a.Code)
				continue
			}
			logger.Printf("rejected %s: %s %s", a.AckFor, a.Code, a.Message)

		case "TICK":
			var t observerproto.TickMsg
			if err := json.Unmarshal(msg, &t); err != nil {
				continue
			}
			for _, ev := range t.Events {
				if ev.Type == "REJECTED" {
					logger.Printf("tick=%d rejected %s", t.Tick, ev.Code)
				}
			}
			for _, out := range b.next(&t) {
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			}
			if t.Tick%100 == 0 {
				logger.Printf("tick=%d structures=%d energy=%.2f/%.2f", t.Tick, len(t.Structures), t.Economy.EnergyInUse, t.Economy.EnergyAvailable)
			}
		}
	}
}

// builder walks a square spiral around the anchor, placing an empty room
// every few ticks and feeding the anchor with stone.
type builder struct {
	anchor [2]int
	plan   [][2]int
	placed int
	moded  bool
}

func newBuilder(radius int) *builder {
	b := &builder{}
	for r := 1; r <= radius; r++ {
		for x := -r; x <= r; x++ {
			for y := -r; y <= r; y++ {
				if max(abs(x), abs(y)) == r {
					b.plan = append(b.plan, [2]int{x, y})
				}
			}
		}
	}
	return b
}

func (b *builder) next(t *observerproto.TickMsg) []any {
	var out []any
	if !b.moded {
		b.moded = true
		out = append(out, protocol.ModeMsg{
			Type:            protocol.TypeMode,
			ProtocolVersion: protocol.Version,
			Mode:            protocol.ModeConstruct,
			Kind:            "EMPTY_ROOM",
		})
	}
	if t.Tick%20 == 0 && b.placed < len(b.plan) {
		p := b.plan[b.placed]
		b.placed++
		cell := [2]int{b.anchor[0] + p[0], b.anchor[1] + p[1]}
		out = append(out, protocol.CursorMsg{
			Type:            protocol.TypeCursor,
			ProtocolVersion: protocol.Version,
			Cell:            &cell,
			Confirm:         true,
		})
	}
	if t.Tick%50 == 25 {
		out = append(out, protocol.HarvestMsg{
			Type:            protocol.TypeHarvest,
			ProtocolVersion: protocol.Version,
			Cell:            b.anchor,
			Resource:        "STONE",
			Amount:          5,
		})
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
