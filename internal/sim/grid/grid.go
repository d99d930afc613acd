package grid

import "math"

const (
	RoomStride = 2.01
	FineStride = 1.0
)

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var cardinalDirs = []Cell{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

func (c Cell) Add(d Cell) Cell { return Cell{X: c.X + d.X, Y: c.Y + d.Y} }

// Neighbors returns the four orthogonal neighbours in a fixed order.
func (c Cell) Neighbors() [4]Cell {
	var out [4]Cell
	for i, d := range cardinalDirs {
		out[i] = c.Add(d)
	}
	return out
}

// Less orders cells row-major (Y, then X).
func (c Cell) Less(o Cell) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

func ToWorld(c Cell, stride float64) Vec2 {
	return Vec2{X: float64(c.X) * stride, Y: float64(c.Y) * stride}
}

// ToCell rounds to the nearest cell centre; a position exactly on a boundary
// resolves to the cell on the positive side.
func ToCell(p Vec2, stride float64) Cell {
	return Cell{X: toAxis(p.X, stride), Y: toAxis(p.Y, stride)}
}

// MaxCoord bounds cell coordinates accepted from outside the simulation.
const MaxCoord = 1 << 20

// InRange reports whether both axes lie within ±MaxCoord.
func (c Cell) InRange() bool {
	return c.X >= -MaxCoord && c.X <= MaxCoord && c.Y >= -MaxCoord && c.Y <= MaxCoord
}

// ToCellChecked is ToCell for untrusted positions. It fails on NaN, infinities
// and anything that maps outside ±MaxCoord.
func ToCellChecked(p Vec2, stride float64) (Cell, bool) {
	lim := (MaxCoord + 0.5) * stride
	if !(math.Abs(p.X) < lim) || !(math.Abs(p.Y) < lim) {
		return Cell{}, false
	}
	c := ToCell(p, stride)
	return c, c.InRange()
}

func toAxis(v, stride float64) int {
	return int(math.Floor((v + stride/2) / stride))
}

// Frac is the offset of p from the centre of its cell, in cell units (-0.5..0.5).
func Frac(p Vec2, stride float64) Vec2 {
	c := ToWorld(ToCell(p, stride), stride)
	return Vec2{X: (p.X - c.X) / stride, Y: (p.Y - c.Y) / stride}
}
