// Package style cascades stylesheet rules and inline styles onto the
// elements of a table.
package style

import (
	"strings"

	"github.com/gompdf/tablelayout/internal/parser/css"
)

// Element is the view of a document node the cascade needs
type Element interface {
	Tag() string
	Attribute(key string) (string, bool)
	ParentElement() Element
}

// Specificity represents the specificity of a CSS selector
type Specificity struct {
	ID      int
	Class   int
	Element int
}

// Weight folds the specificity into one comparable number. Inline styles
// rank above any selector.
func (s Specificity) Weight() float64 {
	return float64(s.ID)*10000 + float64(s.Class)*100 + float64(s.Element)
}

// inlineSpecificity outranks any selector short of 100 ids
var inlineSpecificity = Specificity{ID: 100}

// StyleProperty represents a computed style property
type StyleProperty struct {
	Name        string
	Value       string
	Important   bool
	Source      Source
	Specificity Specificity
	// Inherited marks values taken from the parent element
	Inherited bool
}

// Source represents the source of a style property
type Source int

const (
	SourceUserAgent Source = iota
	SourceAuthor
	SourceInline
)

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]StyleProperty

// Get returns the value of a property, or "" when it is not set
func (s ComputedStyle) Get(name string) string {
	return s[name].Value
}

// Lookup returns the value of a property and whether it is set
func (s ComputedStyle) Lookup(name string) (string, bool) {
	p, ok := s[name]
	return p.Value, ok
}

// Specificity returns the weight of the rule that set a property, 0 for
// unset or inherited values
func (s ComputedStyle) Specificity(name string) float64 {
	p, ok := s[name]
	if !ok || p.Inherited {
		return 0
	}
	return p.Specificity.Weight()
}

// inherited lists the properties a table element takes from its parent
var inherited = map[string]bool{
	"color":           true,
	"font":            true,
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-weight":     true,
	"line-height":     true,
	"text-align":      true,
	"white-space":     true,
	"direction":       true,
	"vertical-align":  true,
	"border-collapse": true,
	"border-spacing":  true,
}

// StyleEngine handles the CSS cascade and style computation
type StyleEngine struct {
	userAgentStyles *css.Stylesheet
	authorStyles    []*css.Stylesheet
}

// NewStyleEngine creates a new style engine
func NewStyleEngine() *StyleEngine {
	return &StyleEngine{
		userAgentStyles: defaultUserAgentStyles(),
	}
}

// AddStylesheet adds an author stylesheet to the style engine
func (e *StyleEngine) AddStylesheet(stylesheet *css.Stylesheet) {
	if stylesheet != nil {
		e.authorStyles = append(e.authorStyles, stylesheet)
	}
}

// PageProperty returns the last @page value of property across the author
// stylesheets
func (e *StyleEngine) PageProperty(property string) (string, bool) {
	for i := len(e.authorStyles) - 1; i >= 0; i-- {
		if v, ok := e.authorStyles[i].PageProperty(property); ok {
			return v, true
		}
	}
	return "", false
}

// Compute computes the style of node. Inherited properties the node does
// not set are copied from parent, which may be nil.
func (e *StyleEngine) Compute(node Element, parent ComputedStyle) ComputedStyle {
	style := make(ComputedStyle)

	e.applyStylesheet(style, node, e.userAgentStyles, SourceUserAgent)
	for _, stylesheet := range e.authorStyles {
		e.applyStylesheet(style, node, stylesheet, SourceAuthor)
	}
	if v, ok := node.Attribute("style"); ok {
		applyDeclarations(style, css.ParseDeclarations(v), inlineSpecificity, SourceInline)
	}

	for name, p := range parent {
		if !inherited[name] {
			continue
		}
		if _, ok := style[name]; !ok {
			p.Inherited = true
			style[name] = p
		}
	}

	return style
}

func (e *StyleEngine) applyStylesheet(style ComputedStyle, node Element, stylesheet *css.Stylesheet, source Source) {
	for _, rule := range stylesheet.Rules {
		for _, selector := range rule.Selectors {
			if selectorMatches(node, selector) {
				applyDeclarations(style, rule.Declarations, calculateSpecificity(selector), source)
			}
		}
	}
}

// applyDeclarations applies declarations in cascade order: importance,
// then origin, then specificity, then source order.
func applyDeclarations(style ComputedStyle, declarations []*css.Declaration, specificity Specificity, source Source) {
	for _, decl := range declarations {
		existing, exists := style[decl.Property]
		if exists && !wins(decl.Important, source, specificity, existing) {
			continue
		}
		style[decl.Property] = StyleProperty{
			Name:        decl.Property,
			Value:       decl.Value,
			Important:   decl.Important,
			Source:      source,
			Specificity: specificity,
		}
	}
}

func wins(important bool, source Source, specificity Specificity, existing StyleProperty) bool {
	if important != existing.Important {
		return important
	}
	if source != existing.Source {
		// important user agent rules would invert this; none exist
		return source > existing.Source
	}
	return compareSpecificity(specificity, existing.Specificity) >= 0
}

// selectorMatches checks if an element matches a selector with descendant
// (space) and child (>) combinators
func selectorMatches(node Element, selector string) bool {
	parts := strings.Fields(strings.ReplaceAll(selector, ">", " > "))
	if len(parts) == 0 || node == nil {
		return false
	}
	if !matchCompoundSelector(node, parts[len(parts)-1]) {
		return false
	}

	current := node.ParentElement()
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == ">" {
			i--
			if i < 0 || current == nil || !matchCompoundSelector(current, parts[i]) {
				return false
			}
			current = current.ParentElement()
			continue
		}
		found := false
		for anc := current; anc != nil; anc = anc.ParentElement() {
			if matchCompoundSelector(anc, parts[i]) {
				found = true
				current = anc.ParentElement()
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// matchCompoundSelector matches a single compound selector against a node.
// Compound selectors can be forms like:
//   - tag
//   - .class
//   - #id
//   - tag#id.class1.class2
//   - tr:first-child, tr:nth-child(odd)
//
// Attribute selectors are not supported.
func matchCompoundSelector(node Element, sel string) bool {
	if node == nil || sel == "" {
		return false
	}

	sel, pseudo, _ := strings.Cut(sel, ":")

	var (
		wantTag     string
		wantID      string
		wantClasses []string
	)

	i := 0
	if i < len(sel) && sel[i] != '.' && sel[i] != '#' {
		j := i
		for j < len(sel) && sel[j] != '#' && sel[j] != '.' {
			j++
		}
		wantTag = sel[i:j]
		i = j
	}
	for i < len(sel) {
		j := i + 1
		for j < len(sel) && sel[j] != '.' && sel[j] != '#' {
			j++
		}
		switch sel[i] {
		case '#':
			wantID = sel[i+1 : j]
		case '.':
			wantClasses = append(wantClasses, sel[i+1:j])
		default:
			return false
		}
		i = j
	}

	if wantTag != "" && wantTag != "*" && !strings.EqualFold(wantTag, node.Tag()) {
		return false
	}

	if wantID != "" {
		if id, _ := node.Attribute("id"); id != wantID {
			return false
		}
	}

	if len(wantClasses) > 0 {
		classAttr, _ := node.Attribute("class")
		have := make(map[string]struct{})
		for _, c := range strings.Fields(classAttr) {
			have[c] = struct{}{}
		}
		for _, need := range wantClasses {
			if _, ok := have[need]; !ok {
				return false
			}
		}
	}

	return pseudo == "" || matchPseudo(node, pseudo)
}

// Positional is implemented by elements that know their index among
// their element siblings
type Positional interface {
	Position() (index, count int)
}

// matchPseudo supports the structural pseudo-classes used to stripe tables
func matchPseudo(node Element, pseudo string) bool {
	p, ok := node.(Positional)
	if !ok {
		return false
	}
	index, count := p.Position()
	n := index + 1

	switch pseudo {
	case "first-child":
		return index == 0
	case "last-child":
		return index == count-1
	case "nth-child(odd)":
		return n%2 == 1
	case "nth-child(even)":
		return n%2 == 0
	}
	if arg, ok := strings.CutPrefix(pseudo, "nth-child("); ok {
		var want int
		for _, ch := range strings.TrimSuffix(arg, ")") {
			if ch < '0' || ch > '9' {
				return false
			}
			want = want*10 + int(ch-'0')
		}
		return n == want
	}
	return false
}

// calculateSpecificity calculates the specificity of a CSS selector
func calculateSpecificity(selector string) Specificity {
	specificity := Specificity{}

	for _, part := range strings.Fields(strings.ReplaceAll(selector, ">", " ")) {
		part, pseudo, hasPseudo := strings.Cut(part, ":")
		if hasPseudo && pseudo != "" {
			specificity.Class++
		}
		specificity.ID += strings.Count(part, "#")
		specificity.Class += strings.Count(part, ".")
		if part != "" && part[0] != '.' && part[0] != '#' && part[0] != '*' {
			specificity.Element++
		}
	}

	return specificity
}

// compareSpecificity compares two specificities
func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

// defaultUserAgentStyles returns the default user agent stylesheet for
// table content
func defaultUserAgentStyles() *css.Stylesheet {
	stylesheet, _ := css.NewParser().ParseString(`
		table { border-collapse: separate; border-spacing: 2px; }
		thead, tbody, tfoot, tr { vertical-align: middle; }
		th { font-weight: bold; text-align: center; }
		td, th { padding: 1px; }
		b, strong { font-weight: bold; }
		i, em { font-style: italic; }
		pre, code, tt { font-family: monospace; }
		pre { white-space: pre; }
	`)
	return stylesheet
}
