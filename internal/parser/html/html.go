// Package html reads HTML documents and builds layout tables from their
// <table> elements.
package html

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/gompdf/tablelayout/internal/style"
)

// Parser represents an HTML parser
type Parser struct{}

// Node represents an HTML node in the document tree
type Node struct {
	Type        html.NodeType
	Data        string
	Attr        []html.Attribute
	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Document represents a parsed HTML document
type Document struct {
	Root *Node
}

// NewParser creates a new HTML parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses HTML from a string
func (p *Parser) ParseString(content string) (*Document, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses HTML from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return &Document{Root: convertNode(node, nil)}, nil
}

func convertNode(n *html.Node, parent *Node) *Node {
	node := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   n.Attr,
		Parent: parent,
	}

	var lastChild *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := convertNode(c, node)
		if node.FirstChild == nil {
			node.FirstChild = child
		}
		if lastChild != nil {
			lastChild.NextSibling = child
			child.PrevSibling = lastChild
		}
		lastChild = child
	}
	node.LastChild = lastChild

	return node
}

// IsElement reports whether n is an element with one of the given tags
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// Tag returns the element name
func (n *Node) Tag() string {
	return n.Data
}

// Attribute returns the value of an attribute
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ParentElement returns the enclosing element, or nil at the root
func (n *Node) ParentElement() style.Element {
	if !n.Parent.IsElement() {
		return nil
	}
	return n.Parent
}

// Position returns the index of n among its parent's element children
func (n *Node) Position() (index, count int) {
	if n.Parent == nil {
		return 0, 1
	}
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if !c.IsElement() {
			continue
		}
		if c == n {
			index = count
		}
		count++
	}
	return index, count
}

// Children returns the element children of n
func (n *Node) Children(tags ...string) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.IsElement(tags...) {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of a node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.Walk(fn)
	}
}

// Stylesheets returns the contents of <style> elements and the targets of
// stylesheet links, in document order
func (d *Document) Stylesheets() (inline []string, links []string) {
	d.Root.Walk(func(n *Node) bool {
		switch {
		case n.IsElement("style"):
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			inline = append(inline, b.String())
			return false
		case n.IsElement("link"):
			rel, _ := n.Attribute("rel")
			href, ok := n.Attribute("href")
			if ok && strings.EqualFold(strings.TrimSpace(rel), "stylesheet") {
				links = append(links, href)
			}
		}
		return true
	})
	return inline, links
}

// Title returns the text of the <title> element
func (d *Document) Title() string {
	var title string
	d.Root.Walk(func(n *Node) bool {
		if n.IsElement("title") {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return false
		}
		return title == ""
	})
	return title
}
