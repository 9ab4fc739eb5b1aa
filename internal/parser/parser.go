// Package parser extracts flashcards from markdown documents.
//
// A document is split into a metadata block and a body. Three extraction
// strategies are tried against the body in fixed priority order (separator, then
// callout, then heading) and the first one that yields at least one card wins
// for the whole document.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/mimir/internal/identity"
	"github.com/starford/mimir/internal/markup"
	"github.com/starford/mimir/internal/models"
)

// DeckSep joins deck hierarchy segments.
const DeckSep = "::"

// subjectNames maps short subject codes used in document metadata to the
// human-readable deck segment. Unknown codes fall back to the raw code.
var subjectNames = map[string]string{
	"BIOL": "Biology",
	"CHEM": "Chemistry",
	"PHYS": "Physics",
	"MATH": "Mathematics",
	"HIST": "History",
	"GEOG": "Geography",
	"ENG":  "English",
	"CS":   "Computer Science",
}

// Config holds the per-vault parsing settings.
type Config struct {
	// DeckPrefix is the root segment of every resolved deck name.
	DeckPrefix string
	// VaultName identifies the vault in rendered deep links.
	VaultName string
}

// Parser turns document text into cards.
type Parser struct {
	cfg Config
}

// New creates a Parser.
func New(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// Result holds the output of parsing one document.
type Result struct {
	Cards []models.Card
	Meta  models.DocMeta
	// BodyStart is the number of lines consumed by the metadata block,
	// including both delimiters. Card line numbers already account for it.
	BodyStart int
}

// rawCard is a pre-render extraction: raw front/back text plus the 1-based
// body line where the front began.
type rawCard struct {
	front, back string
	line        int
}

var (
	separatorRe   = regexp.MustCompile(`^-{3,}$`)
	headingRe     = regexp.MustCompile(`^#{1,6}\s+`)
	h2Re          = regexp.MustCompile(`^##\s+(.+)$`)
	calloutOpenRe = regexp.MustCompile(`(?i)^>\s*\[!flashcard\]`)
	questionRe    = regexp.MustCompile(`(?i)^q:\s*`)
	answerRe      = regexp.MustCompile(`(?i)^a:\s*`)
)

// Parse extracts every card from a document. It never fails: a malformed
// metadata block degrades to empty metadata and an empty body yields no
// cards.
func (p *Parser) Parse(path string, data []byte) *Result {
	raw, body, offset := SplitMetadata(data)
	meta := MetaFromMap(raw)

	lines := strings.Split(body, "\n")
	var rcs []rawCard
	for _, strategy := range []func([]string) []rawCard{
		extractSeparators,
		extractCallouts,
		extractHeadings,
	} {
		if rcs = strategy(lines); len(rcs) > 0 {
			break
		}
	}

	deck := p.resolveDeck(meta)
	rctx := markup.Context{VaultName: p.cfg.VaultName}
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}

	cards := make([]models.Card, 0, len(rcs))
	for _, rc := range rcs {
		id := identity.CardID(rc.front, rc.back, path)
		cards = append(cards, models.Card{
			ID:       id,
			Front:    markup.Render(rc.front, rctx),
			Back:     markup.Render(rc.back, rctx),
			FrontRaw: rc.front,
			BackRaw:  rc.back,
			Deck:     deck,
			Tags:     tags,
			File:     path,
			Line:     rc.line + offset,
			NoteID:   meta.NoteIDs[id],
		})
	}
	return &Result{Cards: cards, Meta: meta, BodyStart: offset}
}

// resolveDeck builds the target deck name: an explicit metadata override is
// used verbatim; otherwise prefix, scope, and resolved subject name are
// joined, omitting absent segments. The prefix alone is the floor, so a deck
// name is never empty.
func (p *Parser) resolveDeck(meta models.DocMeta) string {
	if meta.Deck != "" {
		return meta.Deck
	}
	segments := []string{p.cfg.DeckPrefix}
	if meta.Scope != "" {
		segments = append(segments, meta.Scope)
	}
	if meta.Subject != "" {
		name, ok := subjectNames[strings.ToUpper(meta.Subject)]
		if !ok {
			name = meta.Subject
		}
		segments = append(segments, name)
	}
	return strings.Join(segments, DeckSep)
}

// extractSeparators finds lines of three or more dashes. The contiguous
// non-blank block above a separator is the front, the one below is the
// back; scanning resumes after the consumed back block.
func extractSeparators(lines []string) []rawCard {
	var out []rawCard
	i := 0
	for i < len(lines) {
		if !isSeparator(lines[i]) {
			i++
			continue
		}

		// Front: skip blanks upward, then take the contiguous run.
		j := i - 1
		for j >= 0 && isBlank(lines[j]) {
			j--
		}
		start := j
		for start >= 0 && !isBlank(lines[start]) && !isSeparator(lines[start]) {
			start--
		}
		front := joinBlock(lines[start+1 : j+1])

		// Back: skip blanks downward, then take the contiguous run.
		k := i + 1
		for k < len(lines) && isBlank(lines[k]) {
			k++
		}
		end := k
		for end < len(lines) && !isBlank(lines[end]) && !isSeparator(lines[end]) {
			end++
		}
		back := joinBlock(lines[k:end])

		if front != "" && back != "" {
			out = append(out, rawCard{front: front, back: back, line: start + 2})
		}

		if end > i {
			i = end
		} else {
			i++
		}
	}
	return out
}

// extractCallouts finds "> [!flashcard]" blockquotes. Inside the quoted
// run, a "Q:" line starts the front, an "A:" line switches to the back, and
// every other quoted line appends to the active side.
func extractCallouts(lines []string) []rawCard {
	var out []rawCard
	i := 0
	for i < len(lines) {
		if !calloutOpenRe.MatchString(lines[i]) {
			i++
			continue
		}

		var front, back []string
		side := (*[]string)(nil)
		cardLine := i + 1

		j := i + 1
		for ; j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), ">"); j++ {
			content := stripQuote(lines[j])
			switch {
			case questionRe.MatchString(content):
				side = &front
				content = questionRe.ReplaceAllString(content, "")
				cardLine = j + 1
			case answerRe.MatchString(content):
				side = &back
				content = answerRe.ReplaceAllString(content, "")
			}
			if side != nil {
				*side = append(*side, content)
			}
		}

		f, b := joinBlock(front), joinBlock(back)
		if f != "" && b != "" {
			out = append(out, rawCard{front: f, back: b, line: cardLine})
		}
		i = j
	}
	return out
}

// extractHeadings treats every H2 as a front; the back runs until the next
// heading of any level or end of document.
func extractHeadings(lines []string) []rawCard {
	var out []rawCard
	i := 0
	for i < len(lines) {
		m := h2Re.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && !headingRe.MatchString(lines[j]) {
			j++
		}
		front := strings.TrimSpace(m[1])
		back := joinBlock(lines[i+1 : j])
		if front != "" && back != "" {
			out = append(out, rawCard{front: front, back: back, line: i + 1})
		}
		i = j
	}
	return out
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isSeparator(line string) bool {
	return separatorRe.MatchString(strings.TrimSpace(line))
}

// stripQuote removes the leading "> " marker from a blockquote line.
func stripQuote(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, ">")
	return strings.TrimPrefix(s, " ")
}

// joinBlock joins lines and trims surrounding blank lines; trailing
// whitespace on each line is dropped.
func joinBlock(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(strings.Join(trimmed, "\n"))
}
