package colony

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/kirillsurkov/twg-2025-1/internal/observerproto"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/connectivity"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/economy"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/lifecycle"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
)

type Config struct {
	TickRateHz int
	Seed       int64

	BuildSeconds    float64
	DestructSeconds float64
	DestructJitter  float64

	RoomStride float64
	FineStride float64

	Anchor  grid.Cell
	Starter map[catalogs.Resource]float64
}

func (c *Config) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.BuildSeconds <= 0 {
		c.BuildSeconds = 3.0
	}
	if c.DestructSeconds <= 0 {
		c.DestructSeconds = 3.0
	}
	if c.DestructJitter < 0 {
		c.DestructJitter = 0
	}
	if c.RoomStride <= 0 {
		c.RoomStride = grid.RoomStride
	}
	if c.FineStride <= 0 {
		c.FineStride = grid.FineStride
	}
}

func (c Config) TickSeconds() float64 { return 1 / float64(c.TickRateHz) }

// ConfigFromTuning maps a validated tuning file onto a colony config.
func ConfigFromTuning(t tuning.Tuning) (Config, error) {
	starter, err := t.StarterResources()
	if err != nil {
		return Config{}, err
	}
	return Config{
		TickRateHz:      t.TickRateHz,
		Seed:            t.Seed,
		BuildSeconds:    t.BuildSeconds,
		DestructSeconds: t.DestructSeconds,
		DestructJitter:  t.DestructJitterSeconds,
		RoomStride:      t.RoomStride,
		FineStride:      t.FineStride,
		Anchor:          t.Anchor,
		Starter:         starter,
	}, nil
}

// Clock is the external time source for one tick, in seconds.
type Clock struct {
	Now   float64 `json:"now"`
	Delta float64 `json:"delta"`
}

// Colony is a single-threaded authoritative simulation.
// All state must be accessed only from the loop goroutine, or from the
// caller of Step when the loop is not running.
type Colony struct {
	cfg Config
	cat *catalogs.StructureCatalog

	tick atomic.Uint64

	store  *mapstore.Store
	table  *lifecycle.Table
	ledger *economy.Ledger
	pcg    *rand.PCG
	rng    *rand.Rand

	mode    Mode
	cursor  *Cursor
	confirm bool
	ghost   *lifecycle.Ghost
	paused  bool

	// Build-layer connectivity from the current tick, before any speculative removal.
	conn connectivity.Result

	inbox         chan Input
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}
	observers     map[string]*observerClient

	// Optional sinks (may be nil).
	tickLogger  TickLogger
	auditLogger AuditLogger
	metrics     MetricsSink

	events     []observerproto.Event
	audits     []AuditEntry
	lastReport economy.Report
	latest     atomic.Pointer[observerproto.TickMsg]
}

func New(cfg Config, cat *catalogs.StructureCatalog) (*Colony, error) {
	cfg.applyDefaults()
	if cat == nil {
		cat = catalogs.Default()
	}
	for r := range cfg.Starter {
		if !r.Valid() {
			return nil, fmt.Errorf("starter: invalid resource %d", r)
		}
	}

	seed := uint64(cfg.Seed)
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	c := &Colony{
		cfg:           cfg,
		cat:           cat,
		store:         mapstore.New(),
		table:         lifecycle.NewTable(cfg.BuildSeconds, cfg.DestructSeconds),
		ledger:        economy.NewLedger(),
		pcg:           pcg,
		rng:           rand.New(pcg),
		inbox:         make(chan Input, 1024),
		observerJoin:  make(chan ObserverJoinRequest, 64),
		observerLeave: make(chan string, 64),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}

	c.store.Place(cfg.Anchor, catalogs.KindPrimaryBlock, mapstore.Main)
	c.table.Track(cfg.Anchor)
	c.store.SyncPreviewFromMain()
	c.conn = connectivity.Compute(c.store.View(mapstore.Build))

	// Capacity must exist before the starter credit, or it would clamp to zero.
	c.ledger.Recompute(cat, []catalogs.Kind{catalogs.KindPrimaryBlock})
	for _, r := range catalogs.AllResources() {
		if amt := cfg.Starter[r]; amt != 0 {
			c.ledger.Harvest(r, amt)
		}
	}
	return c, nil
}

func (c *Colony) SetTickLogger(l TickLogger)   { c.tickLogger = l }
func (c *Colony) SetAuditLogger(l AuditLogger) { c.auditLogger = l }
func (c *Colony) SetMetrics(m MetricsSink)     { c.metrics = m }

func (c *Colony) Inbox() chan<- Input                      { return c.inbox }
func (c *Colony) ObserverJoin() chan<- ObserverJoinRequest { return c.observerJoin }
func (c *Colony) ObserverLeave() chan<- string             { return c.observerLeave }
func (c *Colony) Config() Config                           { return c.cfg }
func (c *Colony) Catalog() *catalogs.StructureCatalog      { return c.cat }
func (c *Colony) CurrentTick() uint64                      { return c.tick.Load() }

// Latest returns the most recent tick frame; safe from any goroutine.
func (c *Colony) Latest() *observerproto.TickMsg { return c.latest.Load() }

// Structure is a read-only view of one committed structure.
type Structure struct {
	Cell      grid.Cell
	Kind      catalogs.Kind
	State     lifecycle.State
	Connected bool
}

func (c *Colony) Structure(cell grid.Cell) (Structure, bool) {
	k, ok := c.store.KindAt(cell, mapstore.Main)
	if !ok {
		return Structure{}, false
	}
	st, _ := c.table.Get(cell)
	return Structure{
		Cell:      cell,
		Kind:      k,
		State:     st,
		Connected: k == catalogs.KindPrimaryBlock || c.conn.Connected(cell),
	}, true
}

// Structures lists Main-layer structures in row-major order.
func (c *Colony) Structures() []Structure {
	cells := c.store.Cells(mapstore.Main)
	out := make([]Structure, 0, len(cells))
	for _, cell := range cells {
		if s, ok := c.Structure(cell); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Colony) Economy() economy.Summary          { return c.ledger.Summary() }
func (c *Colony) Mode() Mode                        { return c.mode }
func (c *Colony) Ghost() *lifecycle.Ghost           { return c.ghost }
func (c *Colony) Paused() bool                      { return c.paused }
func (c *Colony) Bounds() mapstore.Bounds           { return c.store.BoundingBox() }
func (c *Colony) LastEconomyReport() economy.Report { return c.lastReport }

func (c *Colony) jitter() float64 {
	if c.cfg.DestructJitter <= 0 {
		return 0
	}
	return c.rng.Float64() * c.cfg.DestructJitter
}
