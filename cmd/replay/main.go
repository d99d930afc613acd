package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "github.com/kirillsurkov/twg-2025-1/internal/persistence/log"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
)

func main() {
	var (
		ticksDir   = flag.String("ticks", "./data/ticks", "dir containing tick-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "seed override used by the recorded run (0 keeps the file value)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load structures:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	cfg, err := colony.ConfigFromTuning(tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tuning:", err)
		os.Exit(1)
	}
	c, err := colony.New(cfg, cat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "colony:", err)
		os.Exit(1)
	}

	checked, err := replay(c, *ticksDir, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks last=%d structures=%d\n", checked, c.CurrentTick(), len(c.Structures()))
}

var errStop = errors.New("stop")

// replay feeds recorded inputs back through c and compares state digests.
// The log must start at tick 0 since there is no snapshot to resume from.
func replay(c *colony.Colony, dir string, verifyFrom, toTick uint64) (uint64, error) {
	files, err := persistlog.ListFiles(dir, persistlog.TickPrefix)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no tick files found in %s", dir)
	}

	var checked uint64
	err = persistlog.ReadTicks(dir, func(entry colony.TickLogEntry) error {
		if toTick != 0 && entry.Tick > toTick {
			return errStop
		}
		if entry.Tick != c.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", c.CurrentTick(), entry.Tick)
		}
		tick, got := c.Step(entry.Clock, entry.Inputs)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		}
		if tick >= verifyFrom {
			checked++
			if got != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return checked, err
	}
	return checked, nil
}
