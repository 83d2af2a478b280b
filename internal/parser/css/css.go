// Package css parses the small subset of CSS that styles tables: rule sets,
// inline declarations, @page blocks and the value syntaxes the table
// builder needs.
package css

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Parser represents a CSS parser
type Parser struct{}

// Rule represents a CSS rule
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
}

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []*Rule
	// Page holds the declarations of @page blocks in source order
	Page []*Declaration
}

// NewParser creates a new CSS parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses CSS from a string
func (p *Parser) ParseString(content string) (*Stylesheet, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses CSS from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Stylesheet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read stylesheet")
	}
	return p.parseCSS(string(content)), nil
}

// Merge appends the rules of other after those of s
func (s *Stylesheet) Merge(other *Stylesheet) {
	if other == nil {
		return
	}
	s.Rules = append(s.Rules, other.Rules...)
	s.Page = append(s.Page, other.Page...)
}

// PageProperty returns the last @page value declared for property
func (s *Stylesheet) PageProperty(property string) (string, bool) {
	for i := len(s.Page) - 1; i >= 0; i-- {
		if s.Page[i].Property == property {
			return s.Page[i].Value, true
		}
	}
	return "", false
}

func (p *Parser) parseCSS(content string) *Stylesheet {
	sheet := &Stylesheet{}

	for _, block := range splitRules(removeComments(content)) {
		if strings.HasPrefix(block, "@") {
			if strings.HasPrefix(block, "@page") {
				if _, body, ok := strings.Cut(block, "{"); ok {
					sheet.Page = append(sheet.Page, ParseDeclarations(strings.TrimSuffix(body, "}"))...)
				}
			}
			// other at-rules (@media, @font-face) do not apply to paged tables
			continue
		}
		rule, err := p.parseRule(block)
		if err != nil {
			continue
		}
		sheet.Rules = append(sheet.Rules, rule)
	}

	return sheet
}

func (p *Parser) parseRule(ruleStr string) (*Rule, error) {
	selectorStr, body, ok := strings.Cut(ruleStr, "{")
	if !ok {
		return nil, errors.New("invalid rule format")
	}

	selectors := parseSelectors(strings.TrimSpace(selectorStr))
	if len(selectors) == 0 {
		return nil, errors.New("no selectors found")
	}

	return &Rule{
		Selectors:    selectors,
		Declarations: ParseDeclarations(strings.TrimSuffix(strings.TrimSpace(body), "}")),
	}, nil
}

func parseSelectors(selectorStr string) []string {
	selectors := strings.Split(selectorStr, ",")
	result := make([]string, 0, len(selectors))

	for _, selector := range selectors {
		selector = strings.Join(strings.Fields(selector), " ")
		if selector != "" {
			result = append(result, selector)
		}
	}

	return result
}

// ParseDeclarations parses a declaration block body or a style attribute.
// Property names are lower-cased.
func ParseDeclarations(block string) []*Declaration {
	parts := splitTopLevel(block, ';')
	result := make([]*Declaration, 0, len(parts))

	for _, decl := range parts {
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}

		important := false
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			important = true
			value = strings.TrimSpace(value[:i])
		}

		result = append(result, &Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		})
	}

	return result
}

// splitTopLevel splits s on sep outside parentheses and quotes, so url()
// and rgb() arguments survive. Empty parts are dropped.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == sep && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func removeComments(content string) string {
	var result strings.Builder
	i := 0

	for i < len(content) {
		if i+1 < len(content) && content[i] == '/' && content[i+1] == '*' {
			end := strings.Index(content[i+2:], "*/")
			if end == -1 {
				break
			}
			i += end + 4
			continue
		}
		result.WriteByte(content[i])
		i++
	}

	return result.String()
}

// splitRules splits CSS content into top-level blocks. Nested blocks of
// at-rules stay inside their parent.
func splitRules(content string) []string {
	var (
		rules   []string
		current strings.Builder
		depth   int
	)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				current.WriteByte(ch)
				rules = append(rules, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
			if depth < 0 {
				depth = 0
				continue
			}
		case ';':
			// body-less at-rules such as @import
			if depth == 0 {
				current.Reset()
				continue
			}
		}

		if depth > 0 || !isWhitespace(ch) || current.Len() > 0 {
			current.WriteByte(ch)
		}
	}

	return rules
}

func isWhitespace(char byte) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}
