package grid

import (
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, stride := range []float64{RoomStride, FineStride, 0.5} {
		for x := -25; x <= 25; x++ {
			for y := -25; y <= 25; y += 5 {
				c := Cell{X: x, Y: y}
				if got := ToCell(ToWorld(c, stride), stride); got != c {
					t.Fatalf("stride %v: round trip %v -> %v", stride, c, got)
				}
			}
		}
	}
}

func TestToCellRoundsToNearestCentre(t *testing.T) {
	cases := []struct {
		p    Vec2
		want Cell
	}{
		{Vec2{X: 0.49, Y: -0.49}, Cell{X: 0, Y: 0}},
		{Vec2{X: 0.5, Y: -0.5}, Cell{X: 1, Y: 0}},
		{Vec2{X: -0.51, Y: 1.51}, Cell{X: -1, Y: 2}},
		{Vec2{X: -1.4, Y: 2.6}, Cell{X: -1, Y: 3}},
	}
	for _, tc := range cases {
		if got := ToCell(tc.p, FineStride); got != tc.want {
			t.Fatalf("ToCell(%v): got %v want %v", tc.p, got, tc.want)
		}
	}
	// Truncation would give 0 here.
	if got := ToCell(Vec2{X: 1.9}, RoomStride); got.X != 1 {
		t.Fatalf("room stride: got %v want x=1", got)
	}
}

func TestNeighbors(t *testing.T) {
	n := Cell{X: 2, Y: -1}.Neighbors()
	want := [4]Cell{{3, -1}, {1, -1}, {2, 0}, {2, -2}}
	if n != want {
		t.Fatalf("neighbors: got %v want %v", n, want)
	}
}

func TestFrac(t *testing.T) {
	f := Frac(Vec2{X: 1.25, Y: -0.25}, FineStride)
	if f.X != 0.25 || f.Y != -0.25 {
		t.Fatalf("frac: got %+v", f)
	}
}

func TestToCellCheckedRejectsWildPositions(t *testing.T) {
	for _, p := range []Vec2{
		{X: math.NaN(), Y: 0},
		{X: 0, Y: math.Inf(-1)},
		{X: 1e300, Y: 0},
		{X: 0, Y: -(MaxCoord + 1) * RoomStride},
	} {
		if c, ok := ToCellChecked(p, RoomStride); ok {
			t.Fatalf("ToCellChecked(%v) accepted as %v", p, c)
		}
	}
	edge := ToWorld(Cell{X: MaxCoord, Y: -MaxCoord}, RoomStride)
	if c, ok := ToCellChecked(edge, RoomStride); !ok || c != (Cell{X: MaxCoord, Y: -MaxCoord}) {
		t.Fatalf("edge: %v %v", c, ok)
	}
	if (Cell{X: MaxCoord + 1}).InRange() || !(Cell{X: -MaxCoord}).InRange() {
		t.Fatalf("InRange bounds")
	}
}
