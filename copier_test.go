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

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCopySharing(t *testing.T) {
	src := newTestGraph(t)
	font, err := src.Alloc(Dict{"Type": Name("Font"), "BaseFont": Name("Helvetica")})
	if err != nil {
		t.Fatal(err)
	}
	res := Dict{"Font": Dict{"F1": font}}
	page1, err := src.Alloc(Dict{"Type": Name("Page"), "Resources": res})
	if err != nil {
		t.Fatal(err)
	}
	page2, err := src.Alloc(Dict{"Type": Name("Page"), "Resources": res})
	if err != nil {
		t.Fatal(err)
	}
	kids, err := src.Alloc(Array{page1, page2, page1})
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestGraph(t)
	newKids, err := CopyObject(dst, src, kids)
	if err != nil {
		t.Fatal(err)
	}

	// kids, two pages and one font
	if n := dst.NumObjects(); n != 5 {
		t.Errorf("%d objects in destination, want 5", n)
	}

	arr, err := GetArray(dst, newKids)
	if err != nil {
		t.Fatal(err)
	}
	if len(arr) != 3 || arr[0] != arr[2] || arr[0] == arr[1] {
		t.Fatalf("wrong page references %v", arr)
	}
	var fonts []Reference
	for _, pageRef := range arr[:2] {
		page, err := GetDict(dst, pageRef)
		if err != nil {
			t.Fatal(err)
		}
		r, _ := page["Resources"].(Dict)
		f, _ := r["Font"].(Dict)
		ref, ok := f["F1"].(Reference)
		if !ok {
			t.Fatalf("missing font in %v", page)
		}
		fonts = append(fonts, ref)
	}
	if fonts[0] != fonts[1] {
		t.Error("shared font was copied twice")
	}
	fontDict, err := GetDict(dst, fonts[0])
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(Dict{"Type": Name("Font"), "BaseFont": Name("Helvetica")}, fontDict); d != "" {
		t.Errorf("font (-want +got):\n%s", d)
	}
}

func TestCopyCycle(t *testing.T) {
	src := newTestGraph(t)
	catalog, _, _ := buildThreePages(t, src)

	dst := newTestGraph(t)
	// occupy some object numbers, so that the references change
	for range 4 {
		_, err := dst.Alloc(Integer(0))
		if err != nil {
			t.Fatal(err)
		}
	}
	newCatalog, err := CopyObject(dst, src, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if newCatalog == catalog {
		t.Error("references were not translated")
	}
	err = dst.SetRoot(newCatalog)
	if err != nil {
		t.Fatal(err)
	}
	checkThreePages(t, dst)

	// Parent of the page must point back to the copied page tree
	cat, err := dst.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	pages, err := GetDict(dst, cat["Pages"])
	if err != nil {
		t.Fatal(err)
	}
	kids, err := GetArray(dst, pages["Kids"])
	if err != nil {
		t.Fatal(err)
	}
	page, err := GetDict(dst, kids[0])
	if err != nil {
		t.Fatal(err)
	}
	if page["Parent"] != cat["Pages"] {
		t.Errorf("Parent is %v, want %v", page["Parent"], cat["Pages"])
	}
	if n := dst.NumObjects(); n != 8 {
		t.Errorf("%d objects in destination, want 8", n)
	}
}

func TestCopyNoAliasing(t *testing.T) {
	src := newTestGraph(t)
	str := String("original")
	payload := []byte("stream data")
	stm := NewStream(Dict{"Title": str, "Kids": Array{Integer(1)}}, payload)
	ref, err := src.Alloc(stm)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestGraph(t)
	c := NewCopier(dst, src)
	newRef, err := c.CopyReference(ref)
	if err != nil {
		t.Fatal(err)
	}

	str[0] = 'X'
	payload[0] = 'X'
	stm.Dict["Kids"].(Array)[0] = Integer(2)
	stm.Dict["New"] = Bool(true)

	copied, err := GetStream(dst, newRef)
	if err != nil {
		t.Fatal(err)
	}
	if copied == stm {
		t.Fatal("stream not copied")
	}
	want := Dict{"Title": String("original"), "Kids": Array{Integer(1)}}
	if d := cmp.Diff(want, copied.Dict); d != "" {
		t.Errorf("dict (-want +got):\n%s", d)
	}
	raw, err := copied.Raw()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "stream data" {
		t.Errorf("payload changed to %q", raw)
	}
}

func TestCopyDirect(t *testing.T) {
	src := newTestGraph(t)
	dst := newTestGraph(t)
	c := NewCopier(dst, src)

	cases := []Object{
		nil,
		Bool(true),
		Integer(-3),
		Real(1.5),
		Name("Name"),
		String("text"),
		Array{Integer(1), nil, Array{}},
		Dict{"A": Dict{"B": Array{Name("C")}}},
	}
	for _, obj := range cases {
		out, err := c.Copy(obj)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(obj, out); d != "" {
			t.Errorf("%s (-want +got):\n%s", Format(obj), d)
		}
	}

	d, err := c.CopyDict(nil)
	if d != nil || err != nil {
		t.Errorf("nil dict copied to %v %v", d, err)
	}
	a, err := c.CopyArray(nil)
	if a != nil || err != nil {
		t.Errorf("nil array copied to %v %v", a, err)
	}
	if n := dst.NumObjects(); n != 1 {
		t.Errorf("direct objects allocated %d slots", n-1)
	}
}

func TestCopyRedirect(t *testing.T) {
	src := newTestGraph(t)
	oldFont, err := src.Alloc(Dict{"BaseFont": Name("Times-Roman")})
	if err != nil {
		t.Fatal(err)
	}
	page, err := src.Alloc(Dict{"Font": oldFont})
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestGraph(t)
	newFont, err := dst.Alloc(Dict{"BaseFont": Name("Helvetica")})
	if err != nil {
		t.Fatal(err)
	}
	c := NewCopier(dst, src)
	c.Redirect(oldFont, newFont)
	newPage, err := c.CopyReference(page)
	if err != nil {
		t.Fatal(err)
	}

	dict, err := GetDict(dst, newPage)
	if err != nil {
		t.Fatal(err)
	}
	if dict["Font"] != newFont {
		t.Errorf("Font is %v, want %v", dict["Font"], newFont)
	}
	if n := dst.NumObjects(); n != 3 {
		t.Errorf("%d objects in destination, want 3", n)
	}
}

func TestCopyMissing(t *testing.T) {
	src := newTestGraph(t)
	ref, err := src.Alloc(Array{NewReference(42, 0)})
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestGraph(t)
	newRef, err := CopyObject(dst, src, ref)
	if err != nil {
		t.Fatal(err)
	}
	arr, err := GetArray(dst, newRef)
	if err != nil {
		t.Fatal(err)
	}
	missing, ok := arr[0].(Reference)
	if !ok {
		t.Fatalf("wrong element %v", arr[0])
	}
	obj, err := dst.Get(missing)
	if obj != nil || err != nil {
		t.Errorf("missing object copied to %v %v", obj, err)
	}
}

type failingGetter struct{}

var errGetFailed = errors.New("get failed")

func (failingGetter) Get(Reference) (Object, error) {
	return nil, errGetFailed
}

func TestCopyError(t *testing.T) {
	dst := newTestGraph(t)
	c := NewCopier(dst, failingGetter{})
	for i := 0; i < 2; i++ {
		_, err := c.CopyReference(NewReference(1, 0))
		if !errors.Is(err, errGetFailed) {
			t.Errorf("%d: expected get failure, got %v", i, err)
		}
		if n := len(dst.Objects()); n != 0 {
			t.Errorf("%d: %d objects left in destination", i, n)
		}
	}
}

// partialGetter fails for a single reference.
type partialGetter struct {
	mapGetter
	bad Reference
}

func (p partialGetter) Get(ref Reference) (Object, error) {
	if ref == p.bad {
		return nil, errGetFailed
	}
	return p.mapGetter.Get(ref)
}

func TestCopyErrorInCycle(t *testing.T) {
	pages := NewReference(1, 0)
	page := NewReference(2, 0)
	contents := NewReference(3, 0)
	font := NewReference(4, 0)
	src := partialGetter{
		mapGetter: mapGetter{
			pages:    Dict{"Type": Name("Pages"), "Kids": Array{page}, "Res": font},
			page:     Dict{"Type": Name("Page"), "Parent": pages, "Contents": contents},
			contents: Dict{"Length": Integer(0)},
			font:     Dict{"Type": Name("Font")},
		},
		bad: contents,
	}

	dst := newTestGraph(t)
	c := NewCopier(dst, src)
	_, err := c.CopyReference(pages)
	if !errors.Is(err, errGetFailed) {
		t.Fatalf("expected get failure, got %v", err)
	}
	if refs := dst.Objects(); len(refs) != 0 {
		t.Errorf("objects left in destination: %v", refs)
	}

	// after the failure, the copier can still be used
	newFont, err := c.CopyReference(font)
	if err != nil {
		t.Fatal(err)
	}
	obj, err := dst.Get(newFont)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(Dict{"Type": Name("Font")}, obj); d != "" {
		t.Errorf("wrong font copy (-want +got):\n%s", d)
	}
	if refs := dst.Objects(); len(refs) != 1 {
		t.Errorf("wrong objects %v", refs)
	}
}

func TestCopyFromFile(t *testing.T) {
	data := buildPDF("1.4", threePageObjects, "/Root 1 0 R")
	src, _ := readTestGraph(t, data, nil)
	catalog, ok := src.Trailer()["Root"].(Reference)
	if !ok {
		t.Fatal("missing /Root")
	}

	dst := newTestGraph(t)
	newCatalog, err := CopyObject(dst, src, catalog)
	if err != nil {
		t.Fatal(err)
	}
	err = dst.SetRoot(newCatalog)
	if err != nil {
		t.Fatal(err)
	}
	out, err := dst.Save(FullRewrite)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := readTestGraph(t, out, nil)
	checkThreePages(t, g)
}
