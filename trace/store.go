/*
   Copyright 2022 Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package trace provides the clonable handle onto a spine (spec.md §3's
// "Trace agents") and the prior-value lookup store upsert-arrange needs
// (spec §4.9).
//
// store.go is adapted from erigon-lib's kv/kv_interface.go: that file's
// `Has`/`Getter` naming convention for "does this key exist, and if so
// what is its current value" is kept, repurposed from an on-disk mdbx
// transaction to an in-memory btree index over a collection's current
// key→value state.
package trace

//Variables Naming (kept from the teacher's convention):
//  k - key
//  v - value
//Methods Naming:
//  Has: does the key currently exist
//  Get: current value for a key, or found=false

import (
	"github.com/google/btree"
)

// storeItem is the btree.BTreeG element: ordered by Key via Less.
type storeItem[K any, V any] struct {
	key   K
	val   V
	less  func(a, b K) bool
}

func (s storeItem[K, V]) Less(other storeItem[K, V]) bool {
	return s.less(s.key, other.key)
}

// Store is the current-value index upsert-arrange consults for each
// key's prior value before emitting a retraction/insertion pair (spec
// §4.9). It is not the trace itself — it is maintained alongside it,
// updated by upsert's Apply as each upsert is consumed, before the batch
// holding the resulting diffs is sealed.
type Store[K comparable, V any] struct {
	tree *btree.BTreeG[storeItem[K, V]]
	less func(a, b K) bool
}

func NewStore[K comparable, V any](less func(a, b K) bool) *Store[K, V] {
	return &Store[K, V]{
		tree: btree.NewG[storeItem[K, V]](32, func(a, b storeItem[K, V]) bool { return less(a.key, b.key) }),
		less: less,
	}
}

// Has reports whether k currently has a value recorded.
func (s *Store[K, V]) Has(k K) bool {
	_, found := s.tree.Get(storeItem[K, V]{key: k, less: s.less})
	return found
}

// Get returns the key's current value, or found=false if it has none
// (either never set or retracted to empty by a prior upsert).
func (s *Store[K, V]) Get(k K) (v V, found bool) {
	item, found := s.tree.Get(storeItem[K, V]{key: k, less: s.less})
	if !found {
		var zero V
		return zero, false
	}
	return item.val, true
}

// Set records k's new current value, overwriting any prior one.
func (s *Store[K, V]) Set(k K, v V) {
	s.tree.ReplaceOrInsert(storeItem[K, V]{key: k, val: v, less: s.less})
}

// Delete removes k's current value (an upsert with Option<value> = None).
func (s *Store[K, V]) Delete(k K) {
	s.tree.Delete(storeItem[K, V]{key: k, less: s.less})
}
