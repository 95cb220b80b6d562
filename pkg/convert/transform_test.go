package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

var adocEnv = Env{Space: "DOCS", Format: document.FormatAsciiDoc, DefaultLanguage: "text"}

// TestChildrenMacro verifies the block macro becomes a passthrough children macro.
func TestChildrenMacro(t *testing.T) {
	in := "intro\nchildren::Release+Notes[]\nouter"
	out, err := childrenMacro(adocEnv, in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "intro\n++++\n<div><ac:structured-macro ac:name=\"children\">"))
	assert.Contains(t, out, `<ac:parameter ac:name="first">99</ac:parameter>`)
	assert.Contains(t, out, `<ri:page ri:content-title="Release Notes"></ri:page>`)
	assert.True(t, strings.HasSuffix(out, "\n++++\nouter"))
}

// TestPagetreeMacro verifies commented pagetree lines are activated.
func TestPagetreeMacro(t *testing.T) {
	out, err := pagetreeMacro(Env{Format: document.FormatMarkdown}, "// hidden from viewers pagetree::Handbook[]\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "//")
	assert.NotContains(t, out, "++++")
	assert.Contains(t, out, `<ac:structured-macro ac:name="pagetree">`)
	assert.Contains(t, out, `<ri:page ri:content-title="Handbook"></ri:page>`)

	unchanged, err := pagetreeMacro(adocEnv, "see pagetree::X[] inline")
	require.NoError(t, err)
	assert.Equal(t, "see pagetree::X[] inline", unchanged)
}

// TestNoticeBlocks verifies admonitions map to notice macros.
func TestNoticeBlocks(t *testing.T) {
	tests := []struct {
		style string
		macro string
		title string
	}{
		{"note", "info", "Info"},
		{"tip", "tip", "Tip"},
		{"important", "note", "Note"},
		{"warning", "warning", "Warning"},
		{"caution", "warning", "Warning"},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			in := `<div class="admonitionblock ` + tt.style + `"><table><tr><td class="icon"><div class="title">X</div></td>` +
				`<td class="content">Mind <b>this</b>.</td></tr></table></div><p>after</p>`
			out, err := noticeBlocks(adocEnv, in)
			require.NoError(t, err)

			assert.Equal(t, `<ac:structured-macro ac:name="`+tt.macro+`">`+
				`<ac:parameter ac:name="icon">false</ac:parameter>`+
				`<ac:parameter ac:name="title">`+tt.title+`</ac:parameter>`+
				`<ac:rich-text-body>Mind <b>this</b>.</ac:rich-text-body>`+
				`</ac:structured-macro><p>after</p>`, out)
		})
	}
}

// TestNoticeBlocks_MarkdownAlert verifies GitHub style alerts.
func TestNoticeBlocks_MarkdownAlert(t *testing.T) {
	in := "<blockquote>\n<p>[!TIP]\nUse the cache.</p>\n</blockquote>\n<blockquote><p>plain quote</p></blockquote>"
	out, err := noticeBlocks(Env{}, in)
	require.NoError(t, err)

	assert.Contains(t, out, `<ac:structured-macro ac:name="tip">`)
	assert.Contains(t, out, `<p>Use the cache.</p>`)
	assert.NotContains(t, out, "[!TIP]")
	assert.Contains(t, out, "<blockquote><p>plain quote</p></blockquote>")
}

func TestNoticeBlocks_NoChange(t *testing.T) {
	in := `<p class="x">unchanged &amp; raw</p>`
	out, err := noticeBlocks(adocEnv, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// TestTocBlock verifies the generated toc is replaced by the macro.
func TestTocBlock(t *testing.T) {
	in := `<div id="toc" class="toc"><ul><li>a</li></ul></div><p>body</p>`
	out, err := tocBlock(adocEnv, in)
	require.NoError(t, err)
	assert.Equal(t, tocMacro()+"<p>body</p>", out)

	md, err := tocBlock(Env{}, "<p>[TOC]</p>\n<h2>x</h2>")
	require.NoError(t, err)
	assert.Equal(t, tocMacro()+"\n<h2>x</h2>", md)
}

// TestLatexMarkers verifies math delimiters outside code.
func TestLatexMarkers(t *testing.T) {
	in := `<p>\[x^2\] and \(y\) and \[\l z\]</p><pre>\[keep\]</pre>`
	out, err := latexMarkers(adocEnv, in)
	require.NoError(t, err)
	assert.Equal(t, `<p><div>(mathjax-block(x^2)mathjax-block)</div> and (mathjax-inline(y)mathjax-inline) and `+
		`<div class="math-left">(mathjax-block( z)mathjax-block)</div></p><pre>\[keep\]</pre>`, out)
}

// TestWikiLinks verifies space-qualified and local page links.
func TestWikiLinks(t *testing.T) {
	in := `<a href="wiki:OPS:Run Book">a</a> <a href="wiki:Setup Guide">b</a> <a href="https://x">c</a>`
	out, err := wikiLinks(adocEnv, in)
	require.NoError(t, err)
	assert.Equal(t, `<a href="/display/OPS/Run+Book">a</a> <a href="/display/DOCS/Setup+Guide">b</a> <a href="https://x">c</a>`, out)
}

// TestCodeBlocks verifies code macros with language detection and CDATA.
func TestCodeBlocks(t *testing.T) {
	in := `<div class="listingblock"><div class="content"><pre class="highlight"><code class="language-go" data-lang="go">if a &lt; b &amp;&amp; c[d[0]]&gt;1 {}</code></pre></div></div>` +
		"\n<pre><code>plain</code></pre>"
	out, err := codeBlocks(adocEnv, in)
	require.NoError(t, err)

	assert.Contains(t, out, `<ac:parameter ac:name="language">go</ac:parameter>`)
	assert.Contains(t, out, `<ac:plain-text-body><![CDATA[if a < b && c[d[0]]]]><![CDATA[>1 {}]]></ac:plain-text-body>`)
	assert.Contains(t, out, `<ac:parameter ac:name="language">text</ac:parameter>`)
	assert.Contains(t, out, `<![CDATA[plain]]>`)
	assert.NotContains(t, out, "<pre")
}

// TestResolve verifies transform name validation.
func TestResolve(t *testing.T) {
	ts, err := resolve(StagePost, []string{"Code", " ", "toc"})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "code", ts[0].Name)

	_, err = resolve(StagePost, []string{"children"})
	assert.True(t, errors.IsValidationError(err))

	_, err = resolve(StagePre, []string{"bogus"})
	assert.ErrorContains(t, err, "unknown transform bogus")

	names := Transforms()
	assert.Equal(t, []string{"children", "pagetree"}, names[StagePre])
}
