package mcpserver

// FlashcardFormatContract describes the canonical Markdown flashcard
// format that LLM consumers should follow when authoring sync-eligible
// documents.
const FlashcardFormatContract = `# Mimir Flashcard Format Contract

Every Markdown document that Mimir syncs MUST follow this structure.

## Document metadata

` + "```" + `markdown
---
subject: BIOL                       # OPTIONAL – subject code, mapped to a deck name
scope: Semester 1                   # OPTIONAL – extra deck segment between prefix and subject
deck: My::Exact::Deck               # OPTIONAL – overrides subject/scope resolution verbatim
tags: cells, membrane               # OPTIONAL – string (comma/space separated) or YAML list
---
` + "```" + `

Decks resolve to ` + "`" + `prefix::scope::subject` + "`" + `; omitted parts collapse.
An explicit ` + "`" + `deck` + "`" + ` wins over everything else.

## Card formats

One document uses ONE format; the first format that yields a card claims
the whole document. Checked in this order:

### 1. Separator cards

A line of three or more dashes splits front from back:

` + "```" + `markdown
What organelle produces ATP?

---

The mitochondrion.
` + "```" + `

The front is the text block above the rule, the back the block below it.
Separate consecutive cards with a blank line only. Do NOT put another
rule between an answer and the next question: every rule splits a front
from a back, so an extra one turns the answer above it and the question
below it into a card of their own.

### 2. Callout cards

` + "```" + `markdown
> [!flashcard]
> Q: What is DNA?
> A: Deoxyribonucleic acid.
` + "```" + `

` + "`" + `Q:` + "`" + ` and ` + "`" + `A:` + "`" + ` markers are case-insensitive. Both sides are required.

### 3. Heading cards

An H2 heading is the front; everything until the next heading is the back:

` + "```" + `markdown
## What is osmosis?

Diffusion of water across a semipermeable membrane.
` + "```" + `

## Rules

1. **Both sides required.** A card missing a front or a back is skipped.
2. **Formats never mix.** Pick one format per document.
3. **Markup is portable.** ` + "`" + `[[wikilinks]]` + "`" + `, ` + "`" + `![[embeds]]` + "`" + `, and ` + "`" + `> [!note]` + "`" + ` callouts
   are converted to HTML on sync; standard Markdown passes through.
4. **Never edit ` + "`" + `anki_ids` + "`" + `, ` + "`" + `anki_synced` + "`" + `, or ` + "`" + `anki_card_count` + "`" + ` by hand.**
   These metadata fields are written back by the sync engine.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
subject: BIOL
tags: cells
---

What organelle produces ATP?

---

The **mitochondrion** (see [[Cell Organelles]]).

What is the powerhouse of the cell?

---

Also the mitochondrion.
` + "```" + `
`
