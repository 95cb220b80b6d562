package convert

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
)

// param is one macro parameter.
type param struct {
	name  string
	value string
}

// structuredMacro renders a storage-format macro. Values are inserted as is.
func structuredMacro(name string, params []param, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<ac:structured-macro ac:name="%s">`, name)
	for _, p := range params {
		fmt.Fprintf(&b, `<ac:parameter ac:name="%s">%s</ac:parameter>`, p.name, p.value)
	}
	b.WriteString(body)
	b.WriteString(`</ac:structured-macro>`)
	return b.String()
}

// pageLink renders a link to a page by title. The element is closed
// explicitly so HTML parsers in later stages keep its siblings intact.
func pageLink(title string) string {
	return fmt.Sprintf(`<ac:link><ri:page ri:content-title="%s"></ri:page></ac:link>`, html.EscapeString(title))
}

// blockMacro matches `name::target[attrs]` on its own line, optionally
// commented out with a leading `//`.
func blockMacro(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*(?://.*?)?` + name + `::([^\[\n]*)\[[^\]\n]*\][ \t]*$`)
}

var (
	childrenPattern = blockMacro("children")
	pagetreePattern = blockMacro("pagetree")
)

// passthrough wraps raw markup so the backend emits it unchanged.
func passthrough(format document.Format, markup string) string {
	if format == document.FormatMarkdown {
		return "\n" + markup + "\n"
	}
	return "++++\n" + markup + "\n++++"
}

func macroTitle(target string) string {
	return strings.TrimSpace(strings.ReplaceAll(target, "+", " "))
}

func childrenMacro(env Env, in string) (string, error) {
	return childrenPattern.ReplaceAllStringFunc(in, func(line string) string {
		target := childrenPattern.FindStringSubmatch(line)[1]
		macro := structuredMacro("children", []param{
			{"reverse", "false"},
			{"sort", "title"},
			{"style", "h4"},
			{"excerpt", "false"},
			{"first", "99"},
			{"depth", "3"},
			{"all", "true"},
			{"page", pageLink(macroTitle(target))},
		}, "")
		return passthrough(env.Format, "<div>"+macro+"</div>")
	}), nil
}

func pagetreeMacro(env Env, in string) (string, error) {
	return pagetreePattern.ReplaceAllStringFunc(in, func(line string) string {
		target := pagetreePattern.FindStringSubmatch(line)[1]
		macro := structuredMacro("pagetree", []param{
			{"reverse", "false"},
			{"sort", "natural"},
			{"root", pageLink(macroTitle(target))},
			{"startDepth", "3"},
			{"excerpt", "true"},
			{"searchBox", "false"},
			{"expandCollapseAll", "false"},
		}, "")
		return passthrough(env.Format, "<div>"+macro+"</div>")
	}), nil
}

func tocMacro() string {
	return "<div>" + structuredMacro("toc", []param{
		{"printable", "true"},
		{"style", "circle"},
		{"indent", "1em"},
		{"maxLevel", "3"},
		{"minLevel", "2"},
		{"class", "bigpink"},
		{"type", "list"},
		{"outline", "false"},
	}, "") + "</div>"
}

// noticeType maps an admonition style to the wiki macro name.
func noticeType(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "warning", "caution":
		return "warning"
	case "important":
		return "note"
	case "tip":
		return "tip"
	default:
		return "info"
	}
}

var (
	preBlock  = regexp.MustCompile(`(?s)<pre\b.*?</pre>`)
	codeBlock = regexp.MustCompile(`(?s)<pre\b[^>]*>\s*<code\b([^>]*)>(.*?)</code>\s*</pre>`)
	codeLang  = regexp.MustCompile(`(?:class="[^"]*language-([\w+#.-]+)|data-lang="([\w+#.-]+)")`)
	wikiHref  = regexp.MustCompile(`href="wiki:([^"]*)"`)
	tocPara   = regexp.MustCompile(`<p>\s*\[TOC\]\s*</p>`)
)

// outsidePre applies fn to the text between <pre> blocks only.
func outsidePre(in string, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range preBlock.FindAllStringIndex(in, -1) {
		b.WriteString(fn(in[last:loc[0]]))
		b.WriteString(in[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(in[last:]))
	return b.String()
}

var latexReplacer = strings.NewReplacer(
	`\[\l`, `<div class="math-left">(mathjax-block(`,
	`\[\r`, `<div class="math-right">(mathjax-block(`,
	`\[`, `<div>(mathjax-block(`,
	`\]`, `)mathjax-block)</div>`,
	`\(`, `(mathjax-inline(`,
	`\)`, `)mathjax-inline)`,
)

func latexMarkers(_ Env, in string) (string, error) {
	return outsidePre(in, latexReplacer.Replace), nil
}

// wikiLinks rewrites href="wiki:SPACE:Page" and href="wiki:Page" to page
// addresses, defaulting to the document's space.
func wikiLinks(env Env, in string) (string, error) {
	return wikiHref.ReplaceAllStringFunc(in, func(m string) string {
		target := html.UnescapeString(wikiHref.FindStringSubmatch(m)[1])
		space, page := env.Space, target
		if s, p, ok := strings.Cut(target, ":"); ok {
			space, page = s, p
		}
		page = strings.ReplaceAll(strings.TrimSpace(page), " ", "+")
		return fmt.Sprintf(`href="/display/%s/%s"`, html.EscapeString(space), html.EscapeString(page))
	}), nil
}

// cdata wraps text in a CDATA section, splitting any terminator it contains.
func cdata(text string) string {
	return "<![CDATA[" + strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// codeBlocks replaces <pre><code> blocks with the code macro.
func codeBlocks(env Env, in string) (string, error) {
	return codeBlock.ReplaceAllStringFunc(in, func(m string) string {
		parts := codeBlock.FindStringSubmatch(m)
		lang := env.DefaultLanguage
		if l := codeLang.FindStringSubmatch(parts[1]); l != nil {
			lang = l[1] + l[2]
		}
		params := []param{
			{"title", ""},
			{"theme", "default"},
			{"linenumbers", "false"},
			{"language", html.EscapeString(lang)},
			{"firstline", "0001"},
			{"collapse", "false"},
		}
		body := "<ac:plain-text-body>" + cdata(html.UnescapeString(parts[2])) + "</ac:plain-text-body>"
		return structuredMacro("code", params, body)
	}), nil
}
