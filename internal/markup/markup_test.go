package markup

import (
	"strings"
	"testing"
)

var testCtx = Context{VaultName: "My Vault"}

func TestRender_WikilinkAliasAndHeading(t *testing.T) {
	out := Render("[[Skeleton#Joints|the joints page]]", testCtx)
	if !strings.Contains(out, ">the joints page</a>") {
		t.Errorf("visible text missing: %q", out)
	}
	if !strings.Contains(out, "file=Skeleton%23Joints") {
		t.Errorf("target not encoded: %q", out)
	}
	if !strings.Contains(out, "vault=My+Vault") {
		t.Errorf("vault not encoded: %q", out)
	}
}

func TestRender_WikilinkHeadingLabel(t *testing.T) {
	out := Render("[[Skeleton#Joints]]", testCtx)
	if !strings.Contains(out, ">Joints</a>") {
		t.Errorf("heading label not used: %q", out)
	}
}

func TestRender_WikilinkEscapesLabel(t *testing.T) {
	out := Render(`[[Note|<script>alert("x")</script>]]`, testCtx)
	if strings.Contains(out, "<script>") {
		t.Errorf("label not escaped: %q", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("expected escaped label: %q", out)
	}
}

func TestRender_ImageEmbed(t *testing.T) {
	out := Render("![[diagrams/cell.png]]", testCtx)
	if !strings.Contains(out, `<img src="diagrams/cell.png" alt="diagrams/cell.png">`) {
		t.Errorf("embed not rewritten: %q", out)
	}
	if strings.Contains(out, "<a ") {
		t.Errorf("embed must not be treated as a link: %q", out)
	}
}

func TestRender_Callout(t *testing.T) {
	out := Render("> [!note] Remember\n> The mitochondria.", testCtx)
	if !strings.Contains(out, `class="callout callout-note"`) {
		t.Errorf("callout class missing: %q", out)
	}
	if !strings.Contains(out, "<b>Remember</b>") {
		t.Errorf("title not bolded: %q", out)
	}
	if !strings.Contains(out, "The mitochondria.") {
		t.Errorf("quoted body lost: %q", out)
	}
}

func TestRender_CalloutDefaultTitle(t *testing.T) {
	out := Render("> [!warning]\n> Careful.", testCtx)
	if !strings.Contains(out, "<b>Warning</b>") {
		t.Errorf("default title missing: %q", out)
	}
}

func TestRender_MarkdownWithLineBreaks(t *testing.T) {
	out := Render("Line one\nLine two", testCtx)
	if !strings.Contains(out, "<br") {
		t.Errorf("hard wraps not preserved: %q", out)
	}
}

func TestRender_GFMTable(t *testing.T) {
	out := Render("| a | b |\n|---|---|\n| 1 | 2 |", testCtx)
	if !strings.Contains(out, "<table>") {
		t.Errorf("table extension inactive: %q", out)
	}
}

func TestRender_UnmatchedPassThrough(t *testing.T) {
	out := Render("plain [[ broken and ![[", testCtx)
	if !strings.Contains(out, "[[ broken") {
		t.Errorf("unmatched pattern should pass through: %q", out)
	}
}
