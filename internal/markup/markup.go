// Package markup rewrites author-convenience note syntax into self-contained
// HTML suitable for display outside the vault.
//
// The pipeline order is fixed: wikilinks, then image embeds, then callout
// blocks, then a full markdown render. Each stage feeds the next, and
// unmatched patterns always pass through literally; Render never fails.
package markup

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Context carries the rendering environment for a document.
type Context struct {
	// VaultName identifies the vault in generated deep links.
	VaultName string
}

var (
	wikilinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]]+)\]\]`)
	embedRe    = regexp.MustCompile(`!\[\[([^\[\]]+)\]\]`)
	calloutRe  = regexp.MustCompile(`^>\s*\[!([A-Za-z][A-Za-z0-9_-]*)\]\s*(.*)$`)
)

// engine is stateless, so a single instance is shared across calls.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithUnsafe(),
	),
)

// Render transforms raw note markdown into portable HTML.
func Render(raw string, ctx Context) string {
	s := rewriteWikilinks(raw, ctx)
	s = rewriteEmbeds(s)
	s = rewriteCallouts(s)

	var buf bytes.Buffer
	if err := engine.Convert([]byte(s), &buf); err != nil {
		// Malformed input never aborts rendering; fall back to the
		// transformed text verbatim.
		return s
	}
	return strings.TrimRight(buf.String(), "\n")
}

// rewriteWikilinks converts [[target]], [[target|label]], and
// [[target#heading]] into anchors deep-linking into the vault. Embeds
// (leading !) are left for the next stage.
func rewriteWikilinks(s string, ctx Context) string {
	return wikilinkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := wikilinkRe.FindStringSubmatch(m)
		if parts[1] == "!" {
			return m
		}
		target, label := splitAlias(parts[2])
		if target == "" {
			return m
		}
		href := fmt.Sprintf("obsidian://open?vault=%s&file=%s",
			url.QueryEscape(ctx.VaultName), url.QueryEscape(target))
		return fmt.Sprintf(`<a href="%s">%s</a>`, href, html.EscapeString(label))
	})
}

// splitAlias resolves the visible label for a wikilink: explicit alias
// first, then the text after the last # for heading references, then the
// raw target.
func splitAlias(inner string) (target, label string) {
	target = inner
	if i := strings.Index(inner, "|"); i >= 0 {
		target = strings.TrimSpace(inner[:i])
		label = strings.TrimSpace(inner[i+1:])
		if label != "" {
			return target, label
		}
	}
	label = target
	if i := strings.LastIndex(target, "#"); i >= 0 && i+1 < len(target) {
		label = strings.TrimSpace(target[i+1:])
	}
	return strings.TrimSpace(target), label
}

// rewriteEmbeds converts ![[path]] into an image element referencing the
// literal path. No media transfer happens; a missing file simply renders
// as a broken image with the path as alt text.
func rewriteEmbeds(s string) string {
	return embedRe.ReplaceAllStringFunc(s, func(m string) string {
		path := strings.TrimSpace(embedRe.FindStringSubmatch(m)[1])
		if path == "" {
			return m
		}
		esc := html.EscapeString(path)
		return fmt.Sprintf(`<img src="%s" alt="%s">`, esc, esc)
	})
}

// rewriteCallouts replaces the opening line of a blockquote callout
// ("> [!type] optional title") with a styled container; the remaining
// quoted lines stay untouched for the markdown renderer.
func rewriteCallouts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		m := calloutRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := strings.ToLower(m[1])
		title := strings.TrimSpace(m[2])
		if title == "" {
			title = strings.ToUpper(kind[:1]) + kind[1:]
		}
		lines[i] = fmt.Sprintf(`<div class="callout callout-%s"><b>%s</b></div>`,
			kind, html.EscapeString(title))
	}
	return strings.Join(lines, "\n")
}
