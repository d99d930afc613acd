package main

import "github.com/kirillsurkov/twg-2025-1/internal/sim/colony"

// Fan-out wrappers. The first error wins but every sink still sees the entry.

type multiTickLogger []colony.TickLogger

func (m multiTickLogger) WriteTick(entry colony.TickLogEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteTick(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type multiAuditLogger []colony.AuditLogger

func (m multiAuditLogger) WriteAudit(entry colony.AuditEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteAudit(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type multiMetricsSink []colony.MetricsSink

func (m multiMetricsSink) ObserveTick(s colony.TickStats) {
	for _, sink := range m {
		if sink != nil {
			sink.ObserveTick(s)
		}
	}
}
