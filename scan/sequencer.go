// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import "sort"

// sequencer buffers results arriving in any order and releases them in index
// order as soon as all preceding results have arrived.
type sequencer[T any] struct {
	next    int
	pending map[int]T
	emit    func(T)
}

func newSequencer[T any](emit func(T)) *sequencer[T] {
	return &sequencer[T]{pending: map[int]T{}, emit: emit}
}

// Put the result with the specified index and flush all results that are now
// in sequence.
func (s *sequencer[T]) Put(idx int, result T) {
	s.pending[idx] = result
	for {
		r, ok := s.pending[s.next]
		if !ok {
			return
		}
		delete(s.pending, s.next)
		s.next++
		s.emit(r)
	}
}

// Flush releases all results still pending, in index order, skipping over the
// gaps left by results that never arrived.
func (s *sequencer[T]) Flush() {
	idxs := make([]int, 0, len(s.pending))
	for idx := range s.pending {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		s.emit(s.pending[idx])
		delete(s.pending, idx)
		s.next = idx + 1
	}
}
