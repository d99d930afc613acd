package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	persistlog "github.com/kirillsurkov/twg-2025-1/internal/persistence/log"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "health":
			healthCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	for _, d := range []struct{ dir, prefix string }{
		{persistlog.TickDir(*dataDir), persistlog.TickPrefix},
		{persistlog.AuditDir(*dataDir), persistlog.AuditPrefix},
	} {
		files, err := persistlog.ListFiles(d.dir, d.prefix)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, f := range files {
			fmt.Println(f)
		}
	}
}

// auditCmd scans the raw audit journal, which is complete even when the
// sqlite index dropped rows under pressure.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	action := fs.String("action", "", "action filter (CONSTRUCT, BUILT, DESTRUCT, DESTROYED)")
	rect := fs.String("rect", "", "cell rectangle filter: x1,y1:x2,y2")
	sinceTick := fs.Uint64("since_tick", 0, "lower tick bound (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "upper tick bound (inclusive, optional)")
	_ = fs.Parse(args)

	f := auditFilter{Action: strings.ToUpper(strings.TrimSpace(*action)), Since: *sinceTick, To: *toTick}
	if s := strings.TrimSpace(*rect); s != "" {
		min, max, err := parseRect(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -rect:", err)
			os.Exit(2)
		}
		f.Rect = &[2][2]int{min, max}
	}

	recs, err := readAudit(persistlog.AuditDir(*dataDir), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	for _, e := range recs {
		printJSON(e)
	}
}

type auditFilter struct {
	Action string
	Since  uint64
	To     uint64
	Rect   *[2][2]int
}

func (f auditFilter) match(e colony.AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if e.Tick < f.Since || (f.To != 0 && e.Tick > f.To) {
		return false
	}
	if f.Rect != nil {
		min, max := f.Rect[0], f.Rect[1]
		if e.Cell.X < min[0] || e.Cell.X > max[0] || e.Cell.Y < min[1] || e.Cell.Y > max[1] {
			return false
		}
	}
	return true
}

func readAudit(dir string, f auditFilter) ([]colony.AuditEntry, error) {
	files, err := persistlog.ListFiles(dir, persistlog.AuditPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]colony.AuditEntry, 0, 256)
	for _, path := range files {
		err := persistlog.ScanJSONL(path, func(line []byte) error {
			var e colony.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if f.match(e) {
				out = append(out, e)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseRect(s string) (min, max [2]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1:x2,y2")
	}
	a, err := parseCell(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseCell(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 2; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseCell(s string) ([2]int, error) {
	var v [2]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return v, fmt.Errorf("expected x,y")
	}
	for i := 0; i < 2; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
