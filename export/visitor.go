// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"strconv"
)

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/xmlnode"
)

// The format version stamped into binary resource headers.
const binaryVersion = 2

// The format version written as the Version attribute of XML resources.
const textVersion = 0

// A fieldVisitor receives the ordered, named fields of an entity. Each entity
// is described once, as a sequence of visitor calls, and the binary and XML
// encodings are two interpreters of that description; the two encodings can
// therefore never disagree on which facts they record or in what order.
type fieldVisitor interface {
	Header(t resource.Type)

	Uint8(name string, v uint8)
	Int16(name string, v int16)
	Uint16(name string, v uint16)
	Uint32(name string, v uint32)
	Float32(name string, v float32)
	Bool(name string, v bool)
	String(name string, v string)
	Medium(name string, m bank.Medium)
	CachePolicy(name string, p bank.CachePolicy)

	// Presence records whether an optional value follows and returns present.
	// The binary encoding writes a flag byte; the XML encoding records
	// presence only through the attributes that follow.
	Presence(present bool) bool
	// Child visits a nested entity named name.
	Child(name string, fn func(v fieldVisitor))
	// List visits n elements of a counted list. Each element is named elem.
	List(name, elem string, n int, fn func(i int, v fieldVisitor))
}

// A binaryVisitor writes fields to a binary resource.
type binaryVisitor struct {
	w *resource.Writer
}

func (v binaryVisitor) Header(t resource.Type) {
	resource.WriteHeader(v.w, t, binaryVersion)
}

func (v binaryVisitor) Uint8(_ string, x uint8)     { v.w.Uint8(x) }
func (v binaryVisitor) Int16(_ string, x int16)     { v.w.Int16(x) }
func (v binaryVisitor) Uint16(_ string, x uint16)   { v.w.Uint16(x) }
func (v binaryVisitor) Uint32(_ string, x uint32)   { v.w.Uint32(x) }
func (v binaryVisitor) Float32(_ string, x float32) { v.w.Float32(x) }
func (v binaryVisitor) Bool(_ string, x bool)       { v.w.Bool(x) }
func (v binaryVisitor) String(_ string, x string)   { v.w.String(x) }

func (v binaryVisitor) Medium(_ string, m bank.Medium) {
	v.w.Uint8(uint8(m))
}

func (v binaryVisitor) CachePolicy(_ string, p bank.CachePolicy) {
	v.w.Uint8(uint8(p))
}

func (v binaryVisitor) Presence(present bool) bool {
	v.w.Bool(present)
	return present
}

func (v binaryVisitor) Child(_ string, fn func(v fieldVisitor)) {
	fn(v)
}

func (v binaryVisitor) List(_, _ string, n int, fn func(i int, v fieldVisitor)) {
	v.w.Count(n)
	for i := 0; i < n; i++ {
		fn(i, v)
	}
}

// A textVisitor records fields as attributes and children of an element.
type textVisitor struct {
	e *xmlnode.Element
}

func (v textVisitor) Header(_ resource.Type) {
	v.e.SetAttr("Version", strconv.Itoa(textVersion))
}

func (v textVisitor) Uint8(name string, x uint8) {
	v.e.SetAttr(name, strconv.FormatUint(uint64(x), 10))
}

func (v textVisitor) Int16(name string, x int16) {
	v.e.SetAttr(name, strconv.FormatInt(int64(x), 10))
}

func (v textVisitor) Uint16(name string, x uint16) {
	v.e.SetAttr(name, strconv.FormatUint(uint64(x), 10))
}

func (v textVisitor) Uint32(name string, x uint32) {
	v.e.SetAttr(name, strconv.FormatUint(uint64(x), 10))
}

func (v textVisitor) Float32(name string, x float32) {
	v.e.SetAttr(name, formatFloat(x))
}

func (v textVisitor) Bool(name string, x bool) {
	v.e.SetAttr(name, strconv.FormatBool(x))
}

func (v textVisitor) String(name string, x string) {
	v.e.SetAttr(name, x)
}

func (v textVisitor) Medium(name string, m bank.Medium) {
	v.e.SetAttr(name, m.String())
}

func (v textVisitor) CachePolicy(name string, p bank.CachePolicy) {
	v.e.SetAttr(name, p.String())
}

func (v textVisitor) Presence(present bool) bool {
	return present
}

func (v textVisitor) Child(name string, fn func(v fieldVisitor)) {
	fn(textVisitor{v.e.AddChild(name)})
}

func (v textVisitor) List(name, elem string, n int, fn func(i int, v fieldVisitor)) {
	list := v.e.AddChild(name)
	list.SetAttr("Count", strconv.Itoa(n))
	for i := 0; i < n; i++ {
		fn(i, textVisitor{list.AddChild(elem)})
	}
}

// formatFloat prints x with eight significant digits, the precision loaders
// of the XML resources expect.
func formatFloat(x float32) string {
	return strconv.FormatFloat(float64(x), 'g', 8, 32)
}
