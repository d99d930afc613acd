package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Reader runs read-only queries against an index written by SQLiteIndex.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("indexdb: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

type TickRow struct {
	Tick   uint64  `json:"tick"`
	Now    float64 `json:"now"`
	Digest string  `json:"digest"`
	Inputs int     `json:"inputs"`
}

type AuditRow struct {
	Tick   uint64  `json:"tick"`
	Seq    int     `json:"seq"`
	Actor  string  `json:"actor"`
	Action string  `json:"action"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Kind   string  `json:"kind"`
	At     float64 `json:"at"`
	Reason string  `json:"reason,omitempty"`
}

type EconomyRow struct {
	Tick            uint64  `json:"tick"`
	Paused          bool    `json:"paused"`
	EnergyAvailable float64 `json:"energy_available"`
	EnergyInUse     float64 `json:"energy_in_use"`
	EnergyRatio     float64 `json:"energy_ratio"`
	Structures      int     `json:"structures"`
	Orphans         int     `json:"orphans"`
	Cargo           string  `json:"cargo"`
}

type ConfigRow struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	UpdatedAt string `json:"updated_at"`
}

// AuditFilter narrows Audits; zero fields match everything.
type AuditFilter struct {
	Action string
	Cell   *[2]int
	Since  uint64
	Limit  int
}

func (r *Reader) Ticks(ctx context.Context, limit int) ([]TickRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT tick,now,digest,inputs FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TickRow
	for rows.Next() {
		var t TickRow
		if err := rows.Scan(&t.Tick, &t.Now, &t.Digest, &t.Inputs); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Reader) Audits(ctx context.Context, f AuditFilter) ([]AuditRow, error) {
	q := `SELECT tick,seq,actor,action,x,y,kind,at,COALESCE(reason,'') FROM audits WHERE tick >= ?`
	args := []any{int64(f.Since)}
	if f.Action != "" {
		q += ` AND action = ?`
		args = append(args, strings.ToUpper(f.Action))
	}
	if f.Cell != nil {
		q += ` AND x = ? AND y = ?`
		args = append(args, f.Cell[0], f.Cell[1])
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += ` ORDER BY tick, seq LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRow
	for rows.Next() {
		var a AuditRow
		if err := rows.Scan(&a.Tick, &a.Seq, &a.Actor, &a.Action, &a.X, &a.Y, &a.Kind, &a.At, &a.Reason); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Reader) Economy(ctx context.Context, limit int) ([]EconomyRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT tick,paused,energy_available,energy_in_use,energy_ratio,structures,orphans,cargo_json FROM economy ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EconomyRow
	for rows.Next() {
		var e EconomyRow
		if err := rows.Scan(&e.Tick, &e.Paused, &e.EnergyAvailable, &e.EnergyInUse, &e.EnergyRatio, &e.Structures, &e.Orphans, &e.Cargo); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Reader) Configs(ctx context.Context) ([]ConfigRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name,digest,updated_at FROM configs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ConfigRow
	for rows.Next() {
		var c ConfigRow
		if err := rows.Scan(&c.Name, &c.Digest, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
