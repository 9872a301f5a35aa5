package render

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday"
)

// telegram accepts only a small subset of HTML, so the full markdown output
// is rewritten: block tags become newlines, unsupported inline tags become
// their supported equivalents.
var htmlReplacer = strings.NewReplacer(
	"<p>", "", "</p>", "\n",
	"<strong>", "<b>", "</strong>", "</b>",
	"<em>", "<i>", "</em>", "</i>",
	"<del>", "<s>", "</del>", "</s>",
	"<h1>", "<b>", "</h1>", "</b>\n",
	"<h2>", "<b>", "</h2>", "</b>\n",
	"<h3>", "<b>", "</h3>", "</b>\n",
	"<ul>", "", "</ul>", "",
	"<ol>", "", "</ol>", "",
	"<li>", "• ", "</li>", "\n",
	"<blockquote>", "", "</blockquote>", "",
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"<hr>", "\n", "<hr/>", "\n",
)

var codeLanguageRe = regexp.MustCompile(`<pre><code class="language-[^"]*">`)

// ToHTML converts markdown to telegram-flavored HTML.
func ToHTML(markdown string) string {
	html := string(blackfriday.MarkdownCommon([]byte(markdown)))
	html = codeLanguageRe.ReplaceAllString(html, "<pre><code>")
	html = htmlReplacer.Replace(html)
	return strings.TrimSpace(html)
}
