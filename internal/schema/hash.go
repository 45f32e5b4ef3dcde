package schema

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// hasher feeds fields into an xxhash digest with explicit framing so that
// adjacent fields cannot run into each other.
type hasher struct {
	d   *xxhash.Digest
	buf [9]byte
}

func newHasher() *hasher {
	return &hasher{d: xxhash.New()}
}

func (h *hasher) str(s string) {
	binary.LittleEndian.PutUint64(h.buf[:8], uint64(len(s)))
	_, _ = h.d.Write(h.buf[:8])
	_, _ = h.d.WriteString(s)
}

func (h *hasher) optStr(s *string) {
	if s == nil {
		h.flag(false)
		return
	}
	h.flag(true)
	h.str(*s)
}

func (h *hasher) int(n int64) {
	binary.LittleEndian.PutUint64(h.buf[:8], uint64(n))
	_, _ = h.d.Write(h.buf[:8])
}

func (h *hasher) optInt(n *int) {
	if n == nil {
		h.flag(false)
		return
	}
	h.flag(true)
	h.int(int64(*n))
}

func (h *hasher) flag(b bool) {
	h.buf[8] = 0
	if b {
		h.buf[8] = 1
	}
	_, _ = h.d.Write(h.buf[8:])
}

func (h *hasher) sum() uint64 {
	return h.d.Sum64()
}
