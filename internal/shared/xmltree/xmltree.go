// Package xmltree parses XML documents into a small navigable element tree.
//
// Method documents and parameter catalogs are both vendor XML files that are
// searched by element name, attribute and child path rather than unmarshalled
// into fixed structs, so both share this representation.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Element is one XML element. Children keep document order.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
	Parent   *Element
}

// Options controls how raw bytes are decoded before parsing.
type Options struct {
	// Encoding forces a source encoding regardless of the XML declaration.
	// Empty or "utf-8" trusts the declaration.
	Encoding string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads an entire document and returns its root element.
func Parse(r io.Reader, opts Options) (*Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xml: %w", err)
	}
	return ParseBytes(data, opts)
}

// ParseBytes parses data and returns its root element.
func ParseBytes(data []byte, opts Options) (*Element, error) {
	forced, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if forced != nil {
		data, err = forced.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", opts.Encoding, err)
		}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if forced != nil {
			// Already converted to UTF-8 above.
			return input, nil
		}
		enc, err := lookupEncoding(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return input, nil
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				el.Parent = parent
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parse xml: document has no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parse xml: unclosed element %q", stack[len(stack)-1].Name)
	}
	return root, nil
}

func lookupEncoding(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported xml encoding %q", label)
	}
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or fallback when absent.
func (e *Element) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// TrimmedText returns the element's character data without surrounding space.
func (e *Element) TrimmedText() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find follows a slash separated path of direct child names and returns the
// first match, e.g. "method/qtofimpactemacq/timetable".
func (e *Element) Find(path string) *Element {
	matches := e.FindAll(path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindAll follows a slash separated child path and returns every match in
// document order.
func (e *Element) FindAll(path string) []*Element {
	if e == nil {
		return nil
	}
	current := []*Element{e}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" || part == "." {
			continue
		}
		next := make([]*Element, 0)
		for _, el := range current {
			for _, c := range el.Children {
				if part == "*" || c.Name == part {
					next = append(next, c)
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// Walk visits e and all of its descendants in document order. Returning false
// from fn stops the walk below that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Iter returns e and all descendants named name, in document order.
func (e *Element) Iter(name string) []*Element {
	var out []*Element
	e.Walk(func(el *Element) bool {
		if el.Name == name {
			out = append(out, el)
		}
		return true
	})
	return out
}

// FirstDescendant returns the first strict descendant of e matching pred.
func (e *Element) FirstDescendant(pred func(*Element) bool) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if pred(c) {
			return c
		}
		if found := c.FirstDescendant(pred); found != nil {
			return found
		}
	}
	return nil
}
