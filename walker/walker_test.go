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

package walker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfgraph"
)

type mockSource struct {
	objects map[pdfgraph.Reference]pdfgraph.Object
	trailer pdfgraph.Dict
}

var (
	errRef   = pdfgraph.NewReference(99, 0)
	finalRef = pdfgraph.NewReference(42, 0)
	errMock  = errors.New("mock error")
)

func (m *mockSource) Get(ref pdfgraph.Reference) (pdfgraph.Object, error) {
	if ref == errRef {
		return nil, errMock
	}
	return m.objects[ref], nil
}

func (m *mockSource) Trailer() pdfgraph.Dict {
	return m.trailer
}

func ref(n uint32) pdfgraph.Reference {
	return pdfgraph.NewReference(n, 0)
}

func newMockSource() *mockSource {
	return &mockSource{
		objects: map[pdfgraph.Reference]pdfgraph.Object{
			ref(1): pdfgraph.Name("unused object"),
			ref(2): pdfgraph.Dict{
				"Type": pdfgraph.Name("Pages"),
				"Kids": pdfgraph.Array{ref(3), ref(4)},
			},
			ref(3): pdfgraph.Dict{
				"Type":     pdfgraph.Name("Page"),
				"Parent":   ref(2),
				"Contents": ref(5),
			},
			ref(4): pdfgraph.Dict{
				"Type":     pdfgraph.Name("Page"),
				"Parent":   ref(2),
				"Contents": ref(6),
			},
			ref(5):   pdfgraph.NewStream(nil, []byte("content 1")),
			ref(6):   pdfgraph.NewStream(nil, []byte("content 2")),
			ref(10):  pdfgraph.Dict{"Type": pdfgraph.Name("Catalog"), "Pages": ref(2)},
			ref(11):  pdfgraph.Dict{"Title": pdfgraph.String("Mock PDF")},
			finalRef: pdfgraph.String("final object"),
		},
		trailer: pdfgraph.Dict{
			"Root":  ref(10),
			"Info":  ref(11),
			"Final": finalRef,
		},
	}
}

func collect(seq func(func(pdfgraph.Reference, pdfgraph.Object) bool)) []pdfgraph.Reference {
	var res []pdfgraph.Reference
	for r := range seq {
		if r != 0 {
			res = append(res, r)
		}
	}
	return res
}

func TestPreOrder(t *testing.T) {
	w := New(newMockSource())
	got := collect(w.PreOrder())
	if w.Err != nil {
		t.Fatal(w.Err)
	}
	want := []pdfgraph.Reference{ref(11), ref(10), ref(2), ref(3), ref(5), ref(4), ref(6), finalRef}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("pre-order (-want +got):\n%s", d)
	}
}

func TestPostOrder(t *testing.T) {
	w := New(newMockSource())
	got := collect(w.PostOrder())
	if w.Err != nil {
		t.Fatal(w.Err)
	}
	want := []pdfgraph.Reference{ref(11), ref(5), ref(3), ref(6), ref(4), ref(2), ref(10), finalRef}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("post-order (-want +got):\n%s", d)
	}
}

func TestEarlyStop(t *testing.T) {
	w := New(newMockSource())
	n := 0
	for range w.IndirectObjects() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 || w.Err != nil {
		t.Errorf("n=%d, err=%v", n, w.Err)
	}
}

func TestError(t *testing.T) {
	src := newMockSource()
	src.objects[ref(10)].(pdfgraph.Dict)["Metadata"] = errRef

	w := New(src)
	for r := range w.PreOrder() {
		if r == errRef || r == finalRef {
			t.Errorf("%s should not be reached", r)
		}
	}
	if !errors.Is(w.Err, errMock) {
		t.Errorf("expected errMock, got %v", w.Err)
	}

	_, err := Reachable(src)
	if !errors.Is(err, errMock) {
		t.Errorf("Reachable: expected errMock, got %v", err)
	}
}

func TestReachable(t *testing.T) {
	g, err := pdfgraph.NewGraph(pdfgraph.V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	unused, err := g.Alloc(pdfgraph.String("garbage"))
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := g.Alloc(nil)
	if err != nil {
		t.Fatal(err)
	}
	// a cycle through the catalog
	err = g.Put(catalog, pdfgraph.Dict{"Type": pdfgraph.Name("Catalog"), "Self": catalog})
	if err != nil {
		t.Fatal(err)
	}
	err = g.SetRoot(catalog)
	if err != nil {
		t.Fatal(err)
	}

	reachable, err := Reachable(g)
	if err != nil {
		t.Fatal(err)
	}
	if !reachable[catalog] || reachable[unused] || len(reachable) != 1 {
		t.Errorf("wrong reachable set %v", reachable)
	}
}
