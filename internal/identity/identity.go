// Package identity derives stable card identities from extracted content.
//
// The identity is a pure function of the raw front text, raw back text, and
// the source document path. It is computed before any markup transformation
// so that rendering changes never move a card's identity, while any edit to
// the underlying question or answer text does.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// IDLength is the number of hex characters in a card identity.
const IDLength = 16

// fieldSep joins the normalised fields before hashing. A unit separator
// cannot appear in markdown content, so the combination is unambiguous.
const fieldSep = "\x1f"

var hspaceRe = regexp.MustCompile(`[ \t]+`)

// CardID returns the 16-hex-character identity for a card.
func CardID(front, back, sourcePath string) string {
	h := sha256.Sum256([]byte(
		NormalizeText(front) + fieldSep + NormalizeText(back) + fieldSep + NormalizePath(sourcePath),
	))
	return hex.EncodeToString(h[:])[:IDLength]
}

// NormalizeText canonicalises whitespace so that identity survives
// reformatting: line endings unified to \n, runs of horizontal whitespace
// collapsed to one space, runs of blank lines collapsed to one, and the
// whole trimmed.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(hspaceRe.ReplaceAllString(line, " "))
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// NormalizePath lower-cases a document path and unifies separators to
// forward slashes, so identity is insensitive to OS path style and casing.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.ToLower(strings.TrimSpace(p))
}

// ContentHash returns the full hex SHA-256 of raw document bytes. Unlike
// CardID it applies no normalisation: change detection must notice
// metadata-only and whitespace-only edits too.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
