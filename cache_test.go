// seehuhn.de/go/pdfgraph - an object graph engine for PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdfgraph

import "testing"

func TestLRUCache(t *testing.T) {
	cache := newCache[uint32, string](12)
	cache.Put(100, "a")
	cache.Put(101, "b")
	cache.Put(102, "c")
	val, ok := cache.Get(100)
	if !ok || val != "a" {
		t.Errorf("Get(100) = %q, %t", val, ok)
	}
	// now 101 is the oldest entry and should drop out later

	if _, ok := cache.Get(0); ok {
		t.Error("unexpected cache hit")
	}

	for i := range 25 {
		key := uint32(i % 10)
		_, ok := cache.Get(key)
		if ok != (i >= 10) {
			t.Errorf("%d: cache hit/miss mismatch", i)
		}
		if !ok {
			cache.Put(key, "x")
		}
	}

	for _, test := range []struct {
		key  uint32
		want bool
	}{
		{100, true},
		{101, false},
		{102, true},
	} {
		if _, ok := cache.Get(test.key); ok != test.want {
			t.Errorf("Get(%d): got %t, want %t", test.key, ok, test.want)
		}
	}

	cache.Clear()
	if _, ok := cache.Get(100); ok {
		t.Error("cache not cleared")
	}
}

func TestLRUCacheDisabled(t *testing.T) {
	cache := newCache[int, int](0)
	cache.Put(1, 1)
	if _, ok := cache.Get(1); ok {
		t.Error("zero capacity cache stored a value")
	}
}
