package colony

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/mapstore"
)

func (c *Colony) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	h.Write([]byte{byte(c.mode.Kind), byte(c.mode.Structure), boolByte(c.paused)})
	digestWriteI64(h, &tmp, int64(c.mode.Cell.X))
	digestWriteI64(h, &tmp, int64(c.mode.Cell.Y))

	for _, cell := range c.store.Cells(mapstore.Main) {
		k, _ := c.store.KindAt(cell, mapstore.Main)
		st, _ := c.table.Get(cell)
		digestWriteI64(h, &tmp, int64(cell.X))
		digestWriteI64(h, &tmp, int64(cell.Y))
		h.Write([]byte{byte(k), byte(st.Action)})
		digestWriteF64(h, &tmp, st.StartedAt)
	}

	digestWriteF64(h, &tmp, c.ledger.EnergyAvailable)
	digestWriteF64(h, &tmp, c.ledger.EnergyInUse)
	for _, r := range catalogs.AllResources() {
		s := c.ledger.Stock(r)
		digestWriteF64(h, &tmp, s.Current)
		digestWriteF64(h, &tmp, s.Capacity)
	}

	if b, err := c.pcg.MarshalBinary(); err == nil {
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
