// Package index renders the human-readable index page listing every
// exported document.
package index

import (
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"paperdump/internal/registry"
)

func elem(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func href(u string) html.Attribute {
	return html.Attribute{Key: "href", Val: u}
}

// pathHref percent-encodes a local file path for use in an href. Spaces
// become %20, not +, so file:// browsing works.
func pathHref(p string) string {
	return strings.ReplaceAll(url.QueryEscape(p), "+", "%20")
}

// Write renders index.html at path with one entry per record: the local
// file link, the owner, and a link back to the source document.
func Write(path string, docs []registry.Record) error {
	root := elem(atom.Html)
	head := elem(atom.Head)
	title := elem(atom.Title)
	title.AppendChild(text("Paper Doc Index"))
	head.AppendChild(title)
	root.AppendChild(head)

	body := elem(atom.Body)
	for _, doc := range docs {
		p := elem(atom.P)

		local := elem(atom.A, href(pathHref(doc.Path)))
		local.AppendChild(text(doc.Name))
		p.AppendChild(local)
		p.AppendChild(elem(atom.Br))

		owner := elem(atom.Small)
		owner.AppendChild(text(doc.Owner))
		p.AppendChild(owner)
		p.AppendChild(text(" · "))

		source := elem(atom.Small)
		link := elem(atom.A, href(doc.URL))
		link.AppendChild(text("link"))
		source.AppendChild(link)
		p.AppendChild(source)

		body.AppendChild(p)
	}
	root.AppendChild(body)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return html.Render(file, root)
}
