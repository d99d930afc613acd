package catalogs

import (
	"fmt"
	"strings"
)

// Kind is a structure kind. The set is closed.
type Kind uint8

const (
	KindPrimaryBlock Kind = iota
	KindEmptyRoom
	KindFurnace
	KindGenerator
	KindCrusher
	KindCargo
	KindHook
	KindEnrichment

	NumKinds = iota
)

var kindNames = [NumKinds]string{
	"PRIMARY_BLOCK",
	"EMPTY_ROOM",
	"FURNACE",
	"GENERATOR",
	"CRUSHER",
	"CARGO",
	"HOOK",
	"ENRICHMENT",
}

func (k Kind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

func (k Kind) Valid() bool { return int(k) < NumKinds }

func ParseKind(s string) (Kind, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown kind %q", string(b))
	}
	*k = v
	return nil
}

// AllKinds lists kinds in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

type Resource uint8

const (
	Stone Resource = iota
	Silicon
	Ice
	Copper
	Uranium
	Aurelium
	Water
	CopperPlates
	UraniumRods
	Batteries

	NumResources = iota
)

var resourceNames = [NumResources]string{
	"STONE",
	"SILICON",
	"ICE",
	"COPPER",
	"URANIUM",
	"AURELIUM",
	"WATER",
	"COPPER_PLATES",
	"URANIUM_RODS",
	"BATTERIES",
}

func (r Resource) String() string {
	if int(r) < NumResources {
		return resourceNames[r]
	}
	return fmt.Sprintf("RESOURCE(%d)", uint8(r))
}

func (r Resource) Valid() bool { return int(r) < NumResources }

// Raw reports whether r is mined rather than produced.
func (r Resource) Raw() bool { return r <= Aurelium }

func ParseResource(s string) (Resource, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range resourceNames {
		if n == s {
			return Resource(i), true
		}
	}
	return 0, false
}

func (r Resource) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid resource %d", uint8(r))
	}
	return []byte(resourceNames[r]), nil
}

func (r *Resource) UnmarshalText(b []byte) error {
	v, ok := ParseResource(string(b))
	if !ok {
		return fmt.Errorf("unknown resource %q", string(b))
	}
	*r = v
	return nil
}

func AllResources() []Resource {
	out := make([]Resource, NumResources)
	for i := range out {
		out[i] = Resource(i)
	}
	return out
}
