package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillsurkov/twg-2025-1/internal/persistence/indexdb"
)

func TestRegisterIndexQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := indexdb.Stats{QueueDepth: 3, QueueCapacity: 16, DropAuditTotal: 7}
	if err := RegisterIndexQueue(reg, func() indexdb.Stats { return st }); err != nil {
		t.Fatalf("register: %v", err)
	}

	want := `
# HELP colony_index_dropped_audits_total Audit rows dropped on a full queue
# TYPE colony_index_dropped_audits_total counter
colony_index_dropped_audits_total 7
# HELP colony_index_queue_depth Pending index writes
# TYPE colony_index_queue_depth gauge
colony_index_queue_depth 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "colony_index_queue_depth", "colony_index_dropped_audits_total"); err != nil {
		t.Fatalf("gather: %v", err)
	}

	st.QueueDepth = 0
	n, err := testutil.GatherAndCount(reg, "colony_index_queue_depth")
	if err != nil || n != 1 {
		t.Fatalf("series=%d err=%v", n, err)
	}
}
