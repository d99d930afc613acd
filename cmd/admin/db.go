package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillsurkov/twg-2025-1/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/colony.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	action := fs.String("action", "", "audit action filter (CONSTRUCT, BUILT, DESTRUCT, DESTROYED)")
	cellStr := fs.String("cell", "", "audit cell filter: x,y")
	since := fs.Uint64("since", 0, "audit tick lower bound (inclusive)")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "colony.sqlite")
	}
	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	if *limit <= 0 {
		*limit = 20
	}
	ctx := context.Background()

	var out any
	switch q {
	case "ticks":
		out, err = r.Ticks(ctx, *limit)
	case "economy":
		out, err = r.Economy(ctx, *limit)
	case "configs":
		out, err = r.Configs(ctx)
	case "audits":
		f := indexdb.AuditFilter{Action: strings.ToUpper(strings.TrimSpace(*action)), Since: *since, Limit: *limit}
		if s := strings.TrimSpace(*cellStr); s != "" {
			cell, perr := parseCell(s)
			if perr != nil {
				fmt.Fprintln(os.Stderr, "bad -cell:", perr)
				os.Exit(2)
			}
			f.Cell = &cell
		}
		out, err = r.Audits(ctx, f)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(ticks|audits|economy|configs)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printRows(out)
}

// printRows writes one JSON object per line.
func printRows(rows any) {
	switch v := rows.(type) {
	case []indexdb.TickRow:
		for _, r := range v {
			printJSON(r)
		}
	case []indexdb.AuditRow:
		for _, r := range v {
			printJSON(r)
		}
	case []indexdb.EconomyRow:
		for _, r := range v {
			printJSON(r)
		}
	case []indexdb.ConfigRow:
		for _, r := range v {
			printJSON(r)
		}
	default:
		printJSON(v)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
