package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
)

// SQLiteIndex is a secondary, queryable copy of the tick journal. Writes are
// queued and applied by one goroutine; the JSONL logs remain the source of
// truth, so a full queue drops rows instead of stalling the colony.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed      atomic.Bool
	sampleEvery atomic.Uint64

	dropTick    atomic.Uint64
	dropAudit   atomic.Uint64
	dropEconomy atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqEconomy
)

type req struct {
	kind reqKind

	tick    colony.TickLogEntry
	audit   colony.AuditEntry
	economy economyRow
}

type economyRow struct {
	Tick            uint64
	Paused          bool
	EnergyAvailable float64
	EnergyInUse     float64
	EnergyRatio     float64
	Structures      int
	Orphans         int
	CargoJSON       string
}

// Stats reports queue pressure for the index writer.
type Stats struct {
	QueueDepth       int
	QueueCapacity    int
	DropTickTotal    uint64
	DropAuditTotal   uint64
	DropEconomyTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("indexdb: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("indexdb: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: schema: %w", err)
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.sampleEvery.Store(20)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			now REAL NOT NULL,
			digest TEXT NOT NULL,
			inputs INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			kind TEXT NOT NULL,
			at REAL NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, y, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_action_tick ON audits(action, tick);`,
		`CREATE TABLE IF NOT EXISTS economy (
			tick INTEGER PRIMARY KEY,
			paused INTEGER NOT NULL,
			energy_available REAL NOT NULL,
			energy_in_use REAL NOT NULL,
			energy_ratio REAL NOT NULL,
			structures INTEGER NOT NULL,
			orphans INTEGER NOT NULL,
			cargo_json TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SetSampleEvery sets how many ticks pass between economy samples.
// Call it before the colony starts.
func (s *SQLiteIndex) SetSampleEvery(n uint64) {
	if n == 0 {
		n = 1
	}
	s.sampleEvery.Store(n)
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropTickTotal:    s.dropTick.Load(),
		DropAuditTotal:   s.dropAudit.Load(),
		DropEconomyTotal: s.dropEconomy.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *SQLiteIndex) WriteTick(entry colony.TickLogEntry) error {
	s.enqueue(req{kind: reqTick, tick: entry}, &s.dropTick)
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry colony.AuditEntry) error {
	s.enqueue(req{kind: reqAudit, audit: entry}, &s.dropAudit)
	return nil
}

// ObserveTick samples the economy every SetSampleEvery ticks.
func (s *SQLiteIndex) ObserveTick(st colony.TickStats) {
	if s == nil || st.Tick%s.sampleEvery.Load() != 0 {
		return
	}
	cargo, _ := json.Marshal(st.Economy.Cargo)
	n := 0
	for _, byAction := range st.Counts {
		for _, c := range byAction {
			n += c
		}
	}
	s.enqueue(req{kind: reqEconomy, economy: economyRow{
		Tick:            st.Tick,
		Paused:          st.Paused,
		EnergyAvailable: st.Economy.EnergyAvailable,
		EnergyInUse:     st.Economy.EnergyInUse,
		EnergyRatio:     st.Economy.EnergyRatio,
		Structures:      n,
		Orphans:         st.Orphans,
		CargoJSON:       string(cargo),
	}}, &s.dropEconomy)
}

// UpsertConfigs stores the structure table and applied tuning with their digests.
func (s *SQLiteIndex) UpsertConfigs(cat *catalogs.StructureCatalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cat != nil {
		b, err := json.Marshal(cat.Defs)
		if err != nil {
			return fmt.Errorf("indexdb: structures: %w", err)
		}
		rows = append(rows, kv{name: "structures", digest: cat.Digest, json: b})
	}
	{
		b, err := json.Marshal(tune)
		if err != nil {
			return fmt.Errorf("indexdb: tuning: %w", err)
		}
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("indexdb: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return fmt.Errorf("indexdb: meta: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("indexdb: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return fmt.Errorf("indexdb: config %s: %w", r.name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,now,digest,inputs,raw_json) VALUES(?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,x,y,kind,at,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertEconomy, _ := s.db.Prepare(`INSERT OR REPLACE INTO economy(tick,paused,energy_available,energy_in_use,energy_ratio,structures,orphans,cargo_json) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertAudit, insertEconomy} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			exec(insertTick, int64(r.tick.Tick), r.tick.Clock.Now, r.tick.Digest, len(r.tick.Inputs), string(b))

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			exec(insertAudit, int64(a.Tick), seq, a.Actor, a.Action, a.Cell.X, a.Cell.Y, a.Kind.String(), a.At, a.Reason, string(raw))

		case reqEconomy:
			e := r.economy
			exec(insertEconomy, int64(e.Tick), e.Paused, e.EnergyAvailable, e.EnergyInUse, e.EnergyRatio, e.Structures, e.Orphans, e.CargoJSON)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
