package galaxy

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// StreamVersion names the generator layout. Bump it whenever the order or
// meaning of draws changes so old seeds are never silently reinterpreted.
const StreamVersion = "galaxy/v1"

const golden = 0x9E3779B97F4A7C15

// Stream is a counter-based generator: the n-th draw is a pure function of
// the stream key and n, so forks can be consumed in any order.
type Stream struct {
	key     uint64
	counter uint64
}

// NewStream keys a stream from a namespace and a seed string.
func NewStream(namespace, seed string) *Stream {
	sum := blake3.Sum256([]byte(namespace + ":" + seed))
	return &Stream{key: binary.LittleEndian.Uint64(sum[:8])}
}

// Fork derives an independent stream labelled by label.
func (s *Stream) Fork(label string) *Stream {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], s.key)
	h := blake3.New(32, nil)
	h.Write(buf[:])
	h.Write([]byte(label))
	sum := h.Sum(nil)
	return &Stream{key: binary.LittleEndian.Uint64(sum[:8])}
}

func (s *Stream) Uint64() uint64 {
	s.counter++
	return mix(s.key + s.counter*golden)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). n must be positive.
func (s *Stream) Intn(n int) int {
	return int(s.Uint64() % uint64(n))
}

// Between returns a value in [lo, hi].
func (s *Stream) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// splitmix64 finalizer
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
