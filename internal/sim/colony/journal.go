package colony

import (
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// TickLogEntry carries everything needed to replay one tick.
type TickLogEntry struct {
	Tick   uint64  `json:"tick"`
	Clock  Clock   `json:"clock"`
	Inputs []Input `json:"inputs,omitempty"`
	Digest string  `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64        `json:"tick"`
	Actor  string        `json:"actor"`
	Action string        `json:"action"` // "CONSTRUCT","BUILT","DESTRUCT","DESTROYED"
	Cell   grid.Cell     `json:"cell"`
	Kind   catalogs.Kind `json:"kind"`
	At     float64       `json:"at"`
	Reason string        `json:"reason,omitempty"`
}

func (c *Colony) audit(nowTick uint64, now float64, action string, cell grid.Cell, k catalogs.Kind, reason string) {
	actor := "SYSTEM"
	if action == "CONSTRUCT" || reason == "confirmed" {
		actor = "PLAYER"
	}
	c.audits = append(c.audits, AuditEntry{
		Tick:   nowTick,
		Actor:  actor,
		Action: action,
		Cell:   cell,
		Kind:   k,
		At:     now,
		Reason: reason,
	})
}
