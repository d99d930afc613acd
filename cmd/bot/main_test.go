package main

import (
	"testing"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/protocol"
)

func TestBuilderSpiral(t *testing.T) {
	b := newBuilder(2)
	if len(b.plan) != 8+16 {
		t.Fatalf("plan=%d", len(b.plan))
	}
	for _, p := range b.plan[:8] {
		if max(abs(p[0]), abs(p[1])) != 1 {
			t.Fatalf("inner ring has %v", p)
		}
	}
}

func TestBuilderScript(t *testing.T) {
	b := newBuilder(1)
	b.anchor = [2]int{10, -3}

	out := b.next(&observerproto.TickMsg{Tick: 20})
	if len(out) != 2 {
		t.Fatalf("first tick msgs=%d", len(out))
	}
	if m, ok := out[0].(protocol.ModeMsg); !ok || m.Mode != protocol.ModeConstruct || m.Kind != "EMPTY_ROOM" {
		t.Fatalf("mode=%+v", out[0])
	}
	c, ok := out[1].(protocol.CursorMsg)
	if !ok || !c.Confirm || *c.Cell != [2]int{10 + b.plan[0][0], -3 + b.plan[0][1]} {
		t.Fatalf("cursor=%+v", out[1])
	}

	if out := b.next(&observerproto.TickMsg{Tick: 21}); len(out) != 0 {
		t.Fatalf("idle tick msgs=%d", len(out))
	}
	out = b.next(&observerproto.TickMsg{Tick: 25})
	if h, ok := out[0].(protocol.HarvestMsg); !ok || h.Cell != b.anchor || h.Resource != "STONE" {
		t.Fatalf("harvest=%+v", out)
	}
}
