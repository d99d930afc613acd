package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/grid"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" validate:"required"`

	TickRateHz int   `yaml:"tick_rate_hz" validate:"min=1,max=240"`
	Seed       int64 `yaml:"seed"`

	BuildSeconds          float64 `yaml:"build_seconds" validate:"gt=0"`
	DestructSeconds       float64 `yaml:"destruct_seconds" validate:"gt=0"`
	DestructJitterSeconds float64 `yaml:"destruct_jitter_seconds" validate:"gte=0"`

	RoomStride float64 `yaml:"room_stride" validate:"gt=0"`
	FineStride float64 `yaml:"fine_stride" validate:"gt=0"`

	Anchor  grid.Cell          `yaml:"anchor"`
	Starter map[string]float64 `yaml:"starter" validate:"dive,gte=0"`

	RateLimit RateLimit `yaml:"rate_limit"`
}

type RateLimit struct {
	PerSecond float64 `yaml:"per_second" validate:"gt=0"`
	Burst     int     `yaml:"burst" validate:"min=1"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:       "1.0",
		TickRateHz:            20,
		BuildSeconds:          3.0,
		DestructSeconds:       3.0,
		DestructJitterSeconds: 0.5,
		RoomStride:            grid.RoomStride,
		FineStride:            grid.FineStride,
		Starter: map[string]float64{
			"STONE":   30,
			"SILICON": 20,
		},
		RateLimit: RateLimit{PerSecond: 20, Burst: 40},
	}
}

// Load decodes path over Defaults() and validates the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

var validate = validator.New()

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := t.StarterResources(); err != nil {
		return err
	}
	return nil
}

func (t Tuning) TickSeconds() float64 { return 1 / float64(t.TickRateHz) }

// StarterResources resolves the starter map to resource kinds.
func (t Tuning) StarterResources() (map[catalogs.Resource]float64, error) {
	out := make(map[catalogs.Resource]float64, len(t.Starter))
	for name, amt := range t.Starter {
		r, ok := catalogs.ParseResource(name)
		if !ok {
			return nil, fmt.Errorf("starter: unknown resource %q", name)
		}
		out[r] += amt
	}
	return out, nil
}

// Digest fingerprints the applied values so clients and logs can tell
// two runs apart.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
