package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if got := Defaults().TickSeconds(); got != 0.05 {
		t.Fatalf("tick seconds: got %v", got)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	p := writeFile(t, "tick_rate_hz: 10\nanchor: {x: 3, y: -2}\nstarter:\n  ice: 5\n")
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz != 10 || tu.BuildSeconds != 3.0 || tu.DestructJitterSeconds != 0.5 {
		t.Fatalf("unexpected tuning: %+v", tu)
	}
	if tu.Anchor.X != 3 || tu.Anchor.Y != -2 {
		t.Fatalf("anchor: %+v", tu.Anchor)
	}
	res, err := tu.StarterResources()
	if err != nil {
		t.Fatalf("starter: %v", err)
	}
	if res[catalogs.Ice] != 5 {
		t.Fatalf("starter ice: %v", res)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"tick rate": "tick_rate_hz: 0\n",
		"build":     "build_seconds: -1\n",
		"starter":   "starter:\n  gold: 1\n",
		"negative":  "starter:\n  stone: -4\n",
		"syntax":    "tick_rate_hz: [\n",
	}
	for name, body := range cases {
		_, err := Load(writeFile(t, body))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.HasPrefix(err.Error(), "tuning.yaml:") {
			t.Fatalf("%s: unexpected error prefix: %v", name, err)
		}
	}
}

func TestDigestTracksValues(t *testing.T) {
	a, b := Defaults(), Defaults()
	if a.Digest() != b.Digest() {
		t.Fatalf("digest not stable")
	}
	b.Seed = 99
	if a.Digest() == b.Digest() {
		t.Fatalf("digest ignores seed")
	}
}

func TestShippedTuningLoads(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Seed != 1337 || tu.TickRateHz != 20 || tu.RoomStride != 2.01 {
		t.Fatalf("unexpected values: %+v", tu)
	}
}
