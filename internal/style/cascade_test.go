package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/tablelayout/internal/parser/css"
)

type element struct {
	tag    string
	attrs  map[string]string
	parent *element
	index  int
	count  int
}

func (e *element) Tag() string { return e.tag }

func (e *element) Attribute(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

func (e *element) ParentElement() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *element) Position() (int, int) { return e.index, e.count }

func el(tag string, parent *element, attrs ...string) *element {
	e := &element{tag: tag, parent: parent, attrs: map[string]string{}, count: 1}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

func engine(t *testing.T, sheet string) *StyleEngine {
	t.Helper()
	s, err := css.NewParser().ParseString(sheet)
	require.NoError(t, err)
	e := NewStyleEngine()
	e.AddStylesheet(s)
	return e
}

func TestSpecificityDecides(t *testing.T) {
	e := engine(t, `
		table.report td { color: blue }
		td { color: red }
		#total { color: green }
	`)
	tbl := el("table", nil, "class", "report")
	tr := el("tr", tbl)
	td := el("td", tr)

	style := e.Compute(td, nil)
	assert.Equal(t, "blue", style.Get("color"))
	assert.Equal(t, 102.0, style.Specificity("color"))

	total := el("td", tr, "id", "total")
	assert.Equal(t, "green", e.Compute(total, nil).Get("color"))
}

func TestLaterRuleWinsTie(t *testing.T) {
	e := engine(t, `td { padding: 1px } td { padding: 3px }`)
	assert.Equal(t, "3px", e.Compute(el("td", nil), nil).Get("padding"))
}

func TestImportantAndInline(t *testing.T) {
	e := engine(t, `td { color: red !important; width: 10px }`)
	td := el("td", nil, "style", "color: blue; width: 20px")

	style := e.Compute(td, nil)
	assert.Equal(t, "red", style.Get("color"))
	assert.Equal(t, "20px", style.Get("width"))
	assert.Equal(t, SourceInline, style["width"].Source)
}

func TestAuthorBeatsUserAgent(t *testing.T) {
	e := engine(t, `th { font-weight: normal }`)
	th := el("th", nil)

	style := e.Compute(th, nil)
	assert.Equal(t, "normal", style.Get("font-weight"))
	assert.Equal(t, "center", style.Get("text-align"))
	assert.Equal(t, SourceUserAgent, style["text-align"].Source)
}

func TestInheritance(t *testing.T) {
	e := engine(t, `table { color: navy; border-collapse: collapse; background: #eee }`)
	tbl := el("table", nil)
	td := el("td", el("tr", tbl))

	parent := e.Compute(tbl, nil)
	style := e.Compute(td, parent)

	assert.Equal(t, "navy", style.Get("color"))
	assert.True(t, style["color"].Inherited)
	assert.Zero(t, style.Specificity("color"))
	assert.Equal(t, "collapse", style.Get("border-collapse"))
	_, ok := style.Lookup("background")
	assert.False(t, ok)
}

func TestChildCombinatorAndPseudo(t *testing.T) {
	e := engine(t, `
		table > tr > td { color: red }
		tr:nth-child(even) td { background: #eee }
		tr:first-child td { font-weight: bold }
	`)
	tbl := el("table", nil)
	body := el("tbody", tbl)
	tr := el("tr", body)
	tr.index, tr.count = 1, 3
	td := el("td", tr)

	style := e.Compute(td, nil)
	_, ok := style.Lookup("color")
	assert.False(t, ok)
	assert.Equal(t, "#eee", style.Get("background"))
	_, ok = style.Lookup("font-weight")
	assert.False(t, ok)

	direct := el("td", el("tr", tbl))
	assert.Equal(t, "red", e.Compute(direct, nil).Get("color"))
}

func TestCalculateSpecificity(t *testing.T) {
	assert.Equal(t, Specificity{ID: 1, Class: 1, Element: 1}, calculateSpecificity("td#a.b"))
	assert.Equal(t, Specificity{Class: 1, Element: 2}, calculateSpecificity("tr:first-child > td"))
	assert.Equal(t, Specificity{Class: 2}, calculateSpecificity(".a.b"))
	assert.Equal(t, Specificity{}, calculateSpecificity("*"))
}

func TestPageProperty(t *testing.T) {
	e := engine(t, `@page { size: letter }`)
	e.AddStylesheet(nil)
	v, ok := e.PageProperty("size")
	assert.True(t, ok)
	assert.Equal(t, "letter", v)
}
