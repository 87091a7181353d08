package document

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/testutil"
)

func professional(t *testing.T) *schema.Loop {
	t.Helper()
	root, err := schema.MustBuiltin().Interchange("837P")
	require.NoError(t, err)
	return root
}

func build837P(body []string) string {
	env := testutil.NewEnvelope()
	env.Suffix = "\n"
	return env.Build(body)
}

func fixture837P() string {
	return build837P(testutil.Professional837())
}

func mustParse(t *testing.T, text string, root *schema.Loop) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(text), root)
	require.NoError(t, err)
	return doc
}

func parseErr(t *testing.T, text string, root *schema.Loop) error {
	t.Helper()
	doc, err := Parse(strings.NewReader(text), root)
	require.Error(t, err)
	require.Nil(t, doc, "no partial graph on error")
	return err
}

// edit returns a copy of body with the first segment equal to old
// replaced by repl (possibly nothing).
func edit(t *testing.T, body []string, old string, repl ...string) []string {
	t.Helper()
	i := slices.Index(body, old)
	require.GreaterOrEqual(t, i, 0, "segment %q not in body", old)
	out := slices.Clone(body[:i])
	out = append(out, repl...)
	return append(out, body[i+1:]...)
}

// levelSchema is a transaction whose body is one root level (code 20)
// that may contain child levels (code 22).
func levelSchema() *schema.Loop {
	hl := schema.MustBuiltin().Segments["HL"]
	hlRef := func(code string) *schema.Reference {
		return &schema.Reference{Name: "HL", Min: 1, Max: 1, Segment: hl,
			Qualifiers: []schema.Qualifier{{Element: 3, Values: []string{code}}}}
	}
	sub := &schema.Loop{ID: "2000B", Level: "22", Children: []*schema.Reference{hlRef("22")}}
	bill := &schema.Loop{ID: "2000A", Level: "20", Children: []*schema.Reference{
		hlRef("20"),
		{Name: "2000B", Min: 0, Max: schema.Unbounded, Loop: sub},
	}}
	tx := &schema.Transaction{ID: "837", Name: "TEST", Body: &schema.Loop{ID: "TEST", Children: []*schema.Reference{
		{Name: "2000A", Min: 1, Max: schema.Unbounded, Loop: bill},
	}}}
	return schema.Interchange(tx)
}

func levelDoc(levels ...string) string {
	return testutil.NewEnvelope().Build(levels)
}

func fixtureBody() []string {
	return testutil.Professional837()
}
