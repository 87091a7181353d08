package document

import (
	"io"

	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// Document is a bound interchange (or any stream bound against a root
// loop) together with the delimiters it was read with.
type Document struct {
	Schema     *schema.Loop
	Delimiters x12.Delimiters
	Root       *Layout
}

// New returns an empty document for authoring, written with d.
func New(root *schema.Loop, d x12.Delimiters) *Document {
	return &Document{Schema: root, Delimiters: d, Root: NewLayout(root)}
}

// Parse tokenizes r and binds it against root.
func Parse(r io.Reader, root *schema.Loop, opts ...x12.Option) (*Document, error) {
	return Bind(x12.NewTokenizer(r, opts...), root)
}

// Bind consumes every segment of tok, binding against root. On error no
// partial graph is returned.
func Bind(tok *x12.Tokenizer, root *schema.Loop) (*Document, error) {
	b := newBinder(root)
	for {
		seg, err := tok.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := b.bind(seg); err != nil {
			return nil, err
		}
	}
	if err := b.finish(); err != nil {
		return nil, err
	}
	return &Document{Schema: root, Delimiters: tok.Delimiters(), Root: b.root}, nil
}

// Transactions returns every ST loop in the document, across all groups,
// in document order.
func (d *Document) Transactions() []*Layout {
	var out []*Layout
	for _, group := range d.Root.Loops(schema.GroupRef) {
		for _, ref := range group.desc.Children {
			if ref.IsLoop() {
				out = append(out, group.Loops(ref.Name)...)
			}
		}
	}
	return out
}
