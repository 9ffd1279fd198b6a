package dmx

import (
	"bytes"
	"fmt"
	"strings"
)

// Document is a fully parsed DMX file: the root element plus every
// element reachable from it, indexed by id so that "elementid" attribute
// references can be resolved regardless of definition order.
type Document struct {
	Root     *Element
	byID     map[string]*Element
	Encoding string
	Format   string
	Version  int
}

// Parse decodes a keyvalues2-encoded DMX document. It tolerates the
// leading `<!-- dmx encoding ... -->` header comment but does not
// require it.
func Parse(src []byte) (*Document, error) {
	doc := &Document{byID: make(map[string]*Element)}

	header, body := splitHeader(src)
	if header != "" {
		if err := parseHeader(header, doc); err != nil {
			return nil, err
		}
	}

	p := &parser{tok: newTokenizer(body), doc: doc}
	for {
		p.tok.skipWhitespaceAndComments()
		if p.tok.pos >= len(p.tok.src) {
			break
		}
		el, err := p.parseElement()
		if err != nil {
			return nil, fmt.Errorf("dmx: %w", err)
		}
		if doc.Root == nil {
			doc.Root = el
		}
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("dmx: document has no elements")
	}
	return doc, nil
}

func splitHeader(src []byte) (header string, body []byte) {
	if !bytes.HasPrefix(bytes.TrimSpace(src), []byte("<!--")) {
		return "", src
	}
	start := bytes.Index(src, []byte("<!--"))
	end := bytes.Index(src, []byte("-->"))
	if start < 0 || end < 0 || end < start {
		return "", src
	}
	return string(src[start+4 : end]), src[end+3:]
}

func parseHeader(header string, doc *Document) error {
	var kw string
	fields := bytes.Fields([]byte(header))
	for i := 0; i < len(fields); i++ {
		kw = string(fields[i])
		switch kw {
		case "encoding":
			if i+1 < len(fields) {
				doc.Encoding = string(fields[i+1])
			}
		case "format":
			if i+1 < len(fields) {
				doc.Format = string(fields[i+1])
			}
			if i+2 < len(fields) {
				fmt.Sscanf(string(fields[i+2]), "%d", &doc.Version)
			}
		}
	}
	return nil
}

type parser struct {
	tok *tokenizer
	doc *Document
}

// parseElement expects the cursor positioned just before a `"Type" { ... }`
// block and consumes it fully.
func (p *parser) parseElement() (*Element, error) {
	typeTok, err := p.tok.next()
	if err != nil {
		return nil, err
	}
	if typeTok.kind == tokenEOF {
		return nil, fmt.Errorf("unexpected end of document, wanted element type")
	}
	if typeTok.kind != tokenString {
		return nil, fmt.Errorf("expected element type string")
	}

	open, err := p.tok.next()
	if err != nil {
		return nil, err
	}
	if open.kind != tokenBraceOpen {
		return nil, fmt.Errorf("expected '{' after element type %q", typeTok.text)
	}

	el := newElement(typeTok.text)
	for {
		peek, err := p.tok.next()
		if err != nil {
			return nil, err
		}
		if peek.kind == tokenBraceClose {
			break
		}
		if peek.kind != tokenString {
			return nil, fmt.Errorf("expected attribute name, got token kind %d", peek.kind)
		}

		key := peek.text
		kindTok, err := p.tok.next()
		if err != nil {
			return nil, err
		}
		if kindTok.kind != tokenString {
			return nil, fmt.Errorf("expected attribute type for %q", key)
		}

		attr, err := p.parseAttributeValue(kindTok.text)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		el.Attributes[key] = attr

		if key == "id" {
			el.ID = attr.String
		}
		if key == "name" {
			el.Name = attr.String
		}
	}

	if el.ID != "" {
		p.doc.byID[el.ID] = el
	}
	return el, nil
}

func (p *parser) parseAttributeValue(valueType string) (Attribute, error) {
	switch {
	case valueType == "element":
		return p.parseElementAttribute()
	case valueType == "element_array":
		return p.parseElementArrayAttribute()
	case strings.HasSuffix(valueType, "_array"):
		// int_array, float_array, string_array, vector2_array,
		// vector3_array, quaternion_array, time_array: all carry a
		// bracketed list of raw string-literal payloads in this
		// encoding, interpreted per attribute by the caller.
		return p.parseStringArrayAttribute()
	default:
		// string, int, float, bool, vector2/3/4, quaternion, time, color,
		// binary: all carry a single string-literal payload in this
		// encoding, interpreted by the caller per attribute semantics.
		valTok, err := p.tok.next()
		if err != nil {
			return Attribute{}, err
		}
		if valTok.kind != tokenString {
			return Attribute{}, fmt.Errorf("expected scalar value")
		}
		return Attribute{String: valTok.text}, nil
	}
}

func (p *parser) parseElementAttribute() (Attribute, error) {
	peek, err := p.tok.next()
	if err != nil {
		return Attribute{}, err
	}
	switch peek.kind {
	case tokenString:
		// An inline reference by id, e.g. "key" "element" "<uuid>".
		return Attribute{Element: &Element{ID: peek.text}}, nil
	default:
		return Attribute{}, fmt.Errorf("malformed element attribute")
	}
}

func (p *parser) parseElementArrayAttribute() (Attribute, error) {
	open, err := p.tok.next()
	if err != nil {
		return Attribute{}, err
	}
	if open.kind != tokenBracketOpen {
		return Attribute{}, fmt.Errorf("expected '[' to start element_array")
	}

	var elements []*Element
	for {
		peek, err := p.tok.next()
		if err != nil {
			return Attribute{}, err
		}
		if peek.kind == tokenBracketClose {
			break
		}
		if peek.kind != tokenString {
			return Attribute{}, fmt.Errorf("expected element id in element_array")
		}
		elements = append(elements, &Element{ID: peek.text})
	}
	return Attribute{Elements: elements}, nil
}

func (p *parser) parseStringArrayAttribute() (Attribute, error) {
	open, err := p.tok.next()
	if err != nil {
		return Attribute{}, err
	}
	if open.kind != tokenBracketOpen {
		return Attribute{}, fmt.Errorf("expected '[' to start string_array")
	}

	var values []string
	for {
		peek, err := p.tok.next()
		if err != nil {
			return Attribute{}, err
		}
		if peek.kind == tokenBracketClose {
			break
		}
		if peek.kind != tokenString {
			return Attribute{}, fmt.Errorf("expected string in string_array")
		}
		values = append(values, peek.text)
	}
	return Attribute{Array: values}, nil
}

// Resolve follows an element reference (one produced with only an ID
// populated, from an element/element_array attribute) to its fully
// parsed element body.
func (doc *Document) Resolve(ref *Element) (*Element, bool) {
	if ref == nil {
		return nil, false
	}
	if len(ref.Attributes) > 0 {
		return ref, true
	}
	full, ok := doc.byID[ref.ID]
	return full, ok
}

// ResolveAll resolves a slice of references in order, skipping any that
// fail to resolve against the document's id index.
func (doc *Document) ResolveAll(refs []*Element) []*Element {
	out := make([]*Element, 0, len(refs))
	for _, ref := range refs {
		if full, ok := doc.Resolve(ref); ok {
			out = append(out, full)
		}
	}
	return out
}
