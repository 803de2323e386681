// Package xmlnode implements the structured-text tree written alongside
// binary resources. Attribute order is preserved, since the attribute layout
// is part of what resource loaders read.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// The indentation used per level of depth when printing.
const indent = "    "

// An Attr is a single name/value attribute of an Element.
type Attr struct {
	Name  string
	Value string
}

// An Element is a node in the tree. Elements carry attributes and children
// but no character data.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// New returns a new Element with no attributes and no children.
func New(name string) *Element {
	return &Element{Name: name}
}

// SetAttr sets the attribute name to value. An existing attribute keeps its
// position; a new one is appended.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{name, value})
}

// Attr returns the value of the attribute name and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AddChild appends a new child named name and returns it.
func (e *Element) AddChild(name string) *Element {
	child := New(name)
	e.Children = append(e.Children, child)
	return child
}

// Child returns the first child named name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all children named name, in order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var children []*Element
	for _, c := range e.Children {
		if c.Name == name {
			children = append(children, c)
		}
	}
	return children
}

// WriteTo prints the tree rooted at e to w.
func (e *Element) WriteTo(w io.Writer) (written int64, err error) {
	b := new(bytes.Buffer)
	e.print(b, 0)
	return b.WriteTo(w)
}

// Bytes returns the printed tree rooted at e.
func (e *Element) Bytes() []byte {
	b := new(bytes.Buffer)
	e.print(b, 0)
	return b.Bytes()
}

func (e *Element) String() string {
	return string(e.Bytes())
}

func (e *Element) print(b *bytes.Buffer, depth int) {
	pad := strings.Repeat(indent, depth)
	b.WriteString(pad)
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		fmt.Fprintf(b, " %s=\"", a.Name)
		xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}
	if len(e.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range e.Children {
		c.print(b, depth+1)
	}
	fmt.Fprintf(b, "%s</%s>\n", pad, e.Name)
}

// Parse reads a single tree from r. Character data, comments and processing
// instructions are ignored.
func Parse(r io.Reader) (*Element, error) {
	d := xml.NewDecoder(r)
	var root *Element
	var stack []*Element
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := New(t.Name.Local)
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{a.Name.Local, a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("document has more than one root element")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}
