package adapter

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"docparse/internal/domain"
	"docparse/internal/port"
)

// XMLAdapter handles structured XML documents (UBL, Factur-X and the like).
// The element tree is flattened twice: once as indented text for the
// extraction capability and once as a generic map for structured access. No
// schema knowledge is assumed; the capability maps tags to canonical fields.
type XMLAdapter struct{}

// NewXMLAdapter creates an XML adapter.
func NewXMLAdapter() *XMLAdapter {
	return &XMLAdapter{}
}

func (a *XMLAdapter) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	root, err := decodeElement(xml.NewDecoder(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	if root == nil {
		return nil, domain.ErrEmptyDocument
	}

	var text strings.Builder
	root.render(&text, 0)

	return &port.RawContent{
		Text:           strings.TrimSpace(text.String()),
		StructuredData: map[string]any{root.name: root.toMap()},
		SourceType:     domain.SourceXML,
	}, nil
}

// element is a schema-free XML node.
type element struct {
	name     string
	attrs    map[string]string
	text     string
	children []*element
}

func decodeElement(dec *xml.Decoder) (*element, error) {
	var root *element
	var stack []*element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local}
			if len(t.Attr) > 0 {
				el.attrs = make(map[string]string, len(t.Attr))
				for _, attr := range t.Attr {
					el.attrs[attr.Name.Local] = attr.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += strings.TrimSpace(string(t))
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("unexpected end of document inside %s", stack[len(stack)-1].name)
	}
	return root, nil
}

func (e *element) render(w *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteString(e.name)
	// Sorted so the rendered text is stable for identical input.
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, " [%s=%s]", k, e.attrs[k])
	}
	if e.text != "" {
		w.WriteString(": ")
		w.WriteString(e.text)
	}
	w.WriteString("\n")
	for _, child := range e.children {
		child.render(w, depth+1)
	}
}

func (e *element) toMap() any {
	if len(e.children) == 0 && len(e.attrs) == 0 {
		return e.text
	}

	out := make(map[string]any)
	for k, v := range e.attrs {
		out["@"+k] = v
	}
	if e.text != "" {
		out["#text"] = e.text
	}
	for _, child := range e.children {
		val := child.toMap()
		switch existing := out[child.name].(type) {
		case nil:
			out[child.name] = val
		case []any:
			out[child.name] = append(existing, val)
		default:
			out[child.name] = []any{existing, val}
		}
	}
	return out
}
