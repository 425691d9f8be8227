package dataflow

import "github.com/flowlake/ddflow/lattice"

// Message is one delivery on a Stream: a batch of items emitted under a
// capability (spec §6's Stream<G, C> channel abstraction).
type Message[T lattice.Lattice[T], Item any] struct {
	Cap  *Capability[T]
	Data []Item
}

// Stream is a single-producer, single-consumer channel of Messages plus
// a frontier — the minimal shape unary_frontier/binary_frontier
// operators need (spec §6). Delivery is synchronous: Send buffers into
// Pending, and the consumer drains it during its own scheduling turn,
// matching the cooperative single-threaded model of spec §5.
type Stream[T lattice.Lattice[T], Item any] struct {
	pending  []Message[T, Item]
	frontier lattice.Antichain[T]
}

func NewStream[T lattice.Lattice[T], Item any](initial lattice.Antichain[T]) *Stream[T, Item] {
	return &Stream[T, Item]{frontier: initial}
}

func (s *Stream[T, Item]) Send(cap *Capability[T], data []Item) {
	s.pending = append(s.pending, Message[T, Item]{Cap: cap, Data: data})
}

// AdvanceFrontier moves the stream's frontier forward. The spec requires
// this never regress (§5: "the batcher asserts upper_antichain never
// regresses"); callers are trusted substrate code, so this is an
// assertion a caller can check with Frontier before calling, not a
// returned error.
func (s *Stream[T, Item]) AdvanceFrontier(f lattice.Antichain[T]) {
	s.frontier = f
}

func (s *Stream[T, Item]) Frontier() lattice.Antichain[T] { return s.frontier }

// Drain removes and returns every buffered message.
func (s *Stream[T, Item]) Drain() []Message[T, Item] {
	out := s.pending
	s.pending = nil
	return out
}
