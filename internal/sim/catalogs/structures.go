package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type ResourceAmount struct {
	Resource Resource `json:"resource"`
	Amount   float64  `json:"amount"`
}

// Conversion moves min(Rate*dt, min(inputs)) from every input into
// Output at Ratio output units per input unit.
type Conversion struct {
	ID     string     `json:"id"`
	Inputs []Resource `json:"inputs"`
	Output Resource   `json:"output"`
	Rate   float64    `json:"rate"`
	Ratio  float64    `json:"ratio"`
}

type StructureDef struct {
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	// Energy is generation when positive and consumption when negative.
	Energy      float64          `json:"energy"`
	Capacity    []ResourceAmount `json:"capacity,omitempty"`
	Recipe      []ResourceAmount `json:"recipe,omitempty"`
	Conversions []Conversion     `json:"conversions,omitempty"`
}

type StructureCatalog struct {
	Defs   [NumKinds]StructureDef
	Digest string
}

func (c *StructureCatalog) Def(k Kind) StructureDef {
	if !k.Valid() {
		return StructureDef{Kind: k}
	}
	return c.Defs[k]
}

func (c *StructureCatalog) Recipe(k Kind) []ResourceAmount {
	return c.Def(k).Recipe
}

// Buildable lists the kinds a player may place (everything but the anchor).
func (c *StructureCatalog) Buildable() []Kind {
	out := make([]Kind, 0, NumKinds-1)
	for _, k := range AllKinds() {
		if k != KindPrimaryBlock {
			out = append(out, k)
		}
	}
	return out
}

func rawCapacity(n float64) []ResourceAmount {
	out := make([]ResourceAmount, 0, NumResources)
	for _, r := range AllResources() {
		if r.Raw() {
			out = append(out, ResourceAmount{Resource: r, Amount: n})
		}
	}
	return out
}

func refinedCapacity(n float64) []ResourceAmount {
	out := make([]ResourceAmount, 0, NumResources)
	for _, r := range AllResources() {
		if !r.Raw() {
			out = append(out, ResourceAmount{Resource: r, Amount: n})
		}
	}
	return out
}

func defaultDefs() []StructureDef {
	return []StructureDef{
		{
			Kind: KindPrimaryBlock, Name: "Main block", Description: "Your rescue capsule", Icon: "primary.png",
			Energy:   10,
			Capacity: append(rawCapacity(50), refinedCapacity(20)...),
		},
		{
			Kind: KindEmptyRoom, Name: "Empty room", Description: "Just an empty room", Icon: "room.png",
			Recipe: []ResourceAmount{{Resource: Silicon, Amount: 10}},
		},
		{
			Kind: KindFurnace, Name: "Furnace", Description: "Melts ores and ice", Icon: "furnace.png",
			Energy: -4,
			Recipe: []ResourceAmount{{Resource: Silicon, Amount: 10}, {Resource: Stone, Amount: 20}},
			Conversions: []Conversion{
				{ID: "melt_ice", Inputs: []Resource{Ice}, Output: Water, Rate: 0.4, Ratio: 1},
				{ID: "smelt_copper", Inputs: []Resource{Copper}, Output: CopperPlates, Rate: 0.4, Ratio: 1},
				{ID: "smelt_uranium", Inputs: []Resource{Uranium}, Output: UraniumRods, Rate: 0.4, Ratio: 1},
			},
		},
		{
			Kind: KindGenerator, Name: "Generator", Description: "Generates power", Icon: "generator.png",
			Energy: 8,
			Recipe: []ResourceAmount{{Resource: CopperPlates, Amount: 10}, {Resource: Silicon, Amount: 10}},
		},
		{
			Kind: KindCrusher, Name: "Crusher", Description: "Crushes stones into the silicone dust", Icon: "crusher.png",
			Energy: -3,
			Recipe: []ResourceAmount{{Resource: Stone, Amount: 20}},
			Conversions: []Conversion{
				{ID: "crush_stone", Inputs: []Resource{Stone}, Output: Silicon, Rate: 0.5, Ratio: 0.5},
			},
		},
		{
			Kind: KindCargo, Name: "Cargo", Description: "Increases your storage capabilities", Icon: "cargo.png",
			Energy:   -1,
			Capacity: append(rawCapacity(50), refinedCapacity(25)...),
			Recipe:   []ResourceAmount{{Resource: Stone, Amount: 10}, {Resource: Silicon, Amount: 5}},
		},
		{
			Kind: KindHook, Name: "Hook", Description: "Automatic hook", Icon: "hook.png",
			Energy: -2,
			Recipe: []ResourceAmount{{Resource: Silicon, Amount: 5}, {Resource: Stone, Amount: 10}},
		},
		{
			Kind: KindEnrichment, Name: "Enrichment station", Description: "Produces batteries", Icon: "enrichment.png",
			Energy: -6,
			Recipe: []ResourceAmount{{Resource: CopperPlates, Amount: 20}, {Resource: Silicon, Amount: 20}},
			Conversions: []Conversion{
				{ID: "enrich", Inputs: []Resource{UraniumRods, Aurelium}, Output: Batteries, Rate: 0.1, Ratio: 1},
			},
		},
	}
}

// Default returns the built-in structure table.
func Default() *StructureCatalog {
	var c StructureCatalog
	defs := defaultDefs()
	for _, d := range defs {
		c.Defs[d.Kind] = d
	}
	raw, _ := json.Marshal(defs)
	c.Digest = sha256Hex(raw)
	return &c
}

// Load reads structures.json from configDir. Kinds absent from the file keep
// their built-in definition; a missing file yields Default().
func Load(configDir string) (*StructureCatalog, error) {
	path := filepath.Join(configDir, "structures.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(raw)
}

// presence mirrors the fields whose zero value is a real enum member, so a
// missing key can be told apart from PRIMARY_BLOCK or STONE.
type presence struct {
	Kind        *Kind `json:"kind"`
	Conversions []struct {
		Output *Resource `json:"output"`
	} `json:"conversions"`
}

func Parse(raw []byte) (*StructureCatalog, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("structures.json: %w", err)
	}
	defs := make([]StructureDef, 0, len(entries))
	for i, e := range entries {
		var p presence
		if err := json.Unmarshal(e, &p); err != nil {
			return nil, fmt.Errorf("structures.json: entry %d: %w", i, err)
		}
		if p.Kind == nil {
			return nil, fmt.Errorf("structures.json: entry %d: missing kind", i)
		}
		for j, cv := range p.Conversions {
			if cv.Output == nil {
				return nil, fmt.Errorf("structures.json: %s: conversion %d: missing output", *p.Kind, j)
			}
		}
		var d StructureDef
		if err := json.Unmarshal(e, &d); err != nil {
			return nil, fmt.Errorf("structures.json: entry %d: %w", i, err)
		}
		defs = append(defs, d)
	}

	c := Default()
	seen := map[Kind]bool{}
	for _, d := range defs {
		if seen[d.Kind] {
			return nil, fmt.Errorf("structures.json: duplicate kind %s", d.Kind)
		}
		seen[d.Kind] = true
		if err := validateDef(d); err != nil {
			return nil, fmt.Errorf("structures.json: %s: %w", d.Kind, err)
		}
		c.Defs[d.Kind] = d
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

func validateDef(d StructureDef) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("unknown kind %d", d.Kind)
	}
	for _, a := range append(append([]ResourceAmount(nil), d.Capacity...), d.Recipe...) {
		if !a.Resource.Valid() {
			return fmt.Errorf("unknown resource %d", a.Resource)
		}
	}
	for _, a := range d.Capacity {
		if a.Amount < 0 {
			return fmt.Errorf("negative capacity for %s", a.Resource)
		}
	}
	for _, a := range d.Recipe {
		if a.Amount < 0 {
			return fmt.Errorf("negative recipe amount for %s", a.Resource)
		}
	}
	ids := make([]string, 0, len(d.Conversions))
	for _, cv := range d.Conversions {
		if cv.ID == "" {
			return fmt.Errorf("conversion: empty id")
		}
		if len(cv.Inputs) == 0 {
			return fmt.Errorf("conversion %q: missing inputs", cv.ID)
		}
		if !cv.Output.Valid() {
			return fmt.Errorf("conversion %q: unknown output %d", cv.ID, cv.Output)
		}
		for _, in := range cv.Inputs {
			if !in.Valid() {
				return fmt.Errorf("conversion %q: unknown input %d", cv.ID, in)
			}
		}
		if cv.Rate <= 0 {
			return fmt.Errorf("conversion %q: invalid rate=%v", cv.ID, cv.Rate)
		}
		if cv.Ratio <= 0 {
			return fmt.Errorf("conversion %q: invalid ratio=%v", cv.ID, cv.Ratio)
		}
		for _, in := range cv.Inputs {
			if in == cv.Output {
				return fmt.Errorf("conversion %q: output %s is also an input", cv.ID, in)
			}
		}
		ids = append(ids, cv.ID)
	}
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return fmt.Errorf("duplicate conversion id %q", ids[i])
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
