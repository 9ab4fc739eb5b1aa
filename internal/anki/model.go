package anki

// ModelName is the note model every synced card uses.
const ModelName = "Mimir Basic"

// modelFields is the fixed field pair of the model.
var modelFields = []string{"Front", "Back"}

// modelCSS styles both sides of the card, including the callout containers
// and source links the markup transformer emits.
const modelCSS = `.card {
  font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
  font-size: 18px;
  text-align: left;
  color: #1f2328;
  background-color: #ffffff;
  padding: 12px 16px;
}
.card a { color: #0969da; text-decoration: none; }
.card img { max-width: 100%; }
.card table { border-collapse: collapse; }
.card th, .card td { border: 1px solid #d0d7de; padding: 4px 8px; }
.card code { background: #f6f8fa; padding: 1px 4px; border-radius: 4px; }
.callout { border-left: 4px solid #0969da; background: #f6f8fa; padding: 6px 10px; margin: 6px 0; }
.callout-warning { border-left-color: #d4a72c; }
.callout-important { border-left-color: #cf222e; }
`

// cardTemplate is the single card layout of the model.
var cardTemplate = map[string]string{
	"Name":  "Card 1",
	"Front": "{{Front}}",
	"Back":  "{{FrontSide}}<hr id=\"answer\">{{Back}}",
}
