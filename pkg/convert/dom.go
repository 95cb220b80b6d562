package convert

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

var titleCase = cases.Title(language.English)

// rewriteDOM parses markup as a body fragment, lets mutate edit it under a
// synthetic root and renders the result. Markup is returned untouched when
// mutate reports no change.
func rewriteDOM(in string, mutate func(root *html.Node) bool) (string, error) {
	root, err := parseFragment(in)
	if err != nil {
		return "", err
	}
	if !mutate(root) {
		return in, nil
	}
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", errors.WrapParse("html", "", err)
		}
	}
	return buf.String(), nil
}

func parseFragment(in string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(in), body)
	if err != nil {
		return nil, errors.WrapParse("html", "", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// findAll collects element nodes matching pred in document order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classes(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// moveChildren reparents every child of from under to.
func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

func replaceNode(old, replacement *html.Node) {
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

// noticeMacro builds an info/note/tip/warning macro around body's children.
func noticeMacro(style string, body *html.Node) *html.Node {
	typ := noticeType(style)
	macro := element("ac:structured-macro", "ac:name", typ)

	icon := element("ac:parameter", "ac:name", "icon")
	icon.AppendChild(textNode("false"))
	title := element("ac:parameter", "ac:name", "title")
	title.AppendChild(textNode(titleCase.String(typ)))
	rich := element("ac:rich-text-body")
	moveChildren(body, rich)

	macro.AppendChild(icon)
	macro.AppendChild(title)
	macro.AppendChild(rich)
	return macro
}

var alertMarker = regexp.MustCompile(`^\s*\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*`)

// noticeBlocks converts AsciiDoc admonition blocks and Markdown alert
// blockquotes (> [!NOTE]) into notice macros.
func noticeBlocks(_ Env, in string) (string, error) {
	if !strings.Contains(in, "admonitionblock") && !strings.Contains(in, "[!") {
		return in, nil
	}
	return rewriteDOM(in, func(root *html.Node) bool {
		changed := false

		for _, div := range findAll(root, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && hasClass(n, "admonitionblock")
		}) {
			style := ""
			for _, c := range classes(div) {
				if c != "admonitionblock" {
					style = c
					break
				}
			}
			content := findAll(div, func(n *html.Node) bool {
				return n.DataAtom == atom.Td && hasClass(n, "content")
			})
			if len(content) == 0 {
				continue
			}
			replaceNode(div, noticeMacro(style, content[0]))
			changed = true
		}

		for _, quote := range findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Blockquote }) {
			style, ok := stripAlertMarker(quote)
			if !ok {
				continue
			}
			replaceNode(quote, noticeMacro(style, quote))
			changed = true
		}
		return changed
	})
}

// stripAlertMarker removes a leading [!TYPE] from the first paragraph of a
// blockquote and returns the type.
func stripAlertMarker(quote *html.Node) (string, bool) {
	var para *html.Node
	for c := quote.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			para = c
			break
		}
	}
	if para == nil || para.DataAtom != atom.P || para.FirstChild == nil || para.FirstChild.Type != html.TextNode {
		return "", false
	}
	text := para.FirstChild
	m := alertMarker.FindStringSubmatch(text.Data)
	if m == nil {
		return "", false
	}
	text.Data = text.Data[len(m[0]):]
	if text.Data == "" {
		para.RemoveChild(text)
	}
	if para.FirstChild == nil {
		quote.RemoveChild(para)
	}
	return m[1], true
}

// tocBlock replaces the generated table of contents, or a Markdown [TOC]
// paragraph, with the toc macro.
func tocBlock(_ Env, in string) (string, error) {
	if tocPara.MatchString(in) {
		return tocPara.ReplaceAllLiteralString(in, tocMacro()), nil
	}
	if !strings.Contains(in, `id="toc"`) {
		return in, nil
	}
	return rewriteDOM(in, func(root *html.Node) bool {
		found := findAll(root, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && attr(n, "id") == "toc"
		})
		if len(found) == 0 {
			return false
		}
		macro, err := parseFragment(tocMacro())
		if err != nil || macro.FirstChild == nil {
			return false
		}
		replacement := macro.FirstChild
		macro.RemoveChild(replacement)
		replaceNode(found[0], replacement)
		return true
	})
}
