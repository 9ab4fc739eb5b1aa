package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starford/mimir/internal/apperr"
)

// protocolVersion is the AnkiConnect API version this client speaks.
const protocolVersion = 6

// Client is the HTTP implementation of Connector.
type Client struct {
	endpoint string
	http     *http.Client
}

// Verify *Client satisfies Connector at compile time.
var _ Connector = (*Client)(nil)

// NewClient creates a client for the given AnkiConnect endpoint
// (e.g. http://127.0.0.1:8765).
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke posts one envelope and decodes the result into out (if non-nil).
func (c *Client) invoke(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(rpcRequest{Action: action, Version: protocolVersion, Params: params})
	if err != nil {
		return fmt.Errorf("anki: marshal %s: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anki: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("anki: %s: %w: %v", action, apperr.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anki: %s: unexpected status %d", action, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("anki: decode %s response: %w", action, err)
	}
	if envelope.Error != nil && *envelope.Error != "" {
		return fmt.Errorf("anki: %s: %s", action, *envelope.Error)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("anki: decode %s result: %w", action, err)
		}
	}
	return nil
}

// Ping calls the version action and returns the protocol version.
func (c *Client) Ping(ctx context.Context) (int, error) {
	var version int
	if err := c.invoke(ctx, "version", nil, &version); err != nil {
		return 0, err
	}
	return version, nil
}

// EnsureDeck creates the deck if missing. AnkiConnect's createDeck is a
// no-op for existing decks, so no lookup is needed.
func (c *Client) EnsureDeck(ctx context.Context, name string) error {
	return c.invoke(ctx, "createDeck", map[string]any{"deck": name}, nil)
}

// EnsureModel creates the note model on first contact and refreshes its
// styling on every later run so CSS changes propagate.
func (c *Client) EnsureModel(ctx context.Context) error {
	var names []string
	if err := c.invoke(ctx, "modelNames", nil, &names); err != nil {
		return err
	}
	for _, n := range names {
		if n == ModelName {
			return c.invoke(ctx, "updateModelStyling", map[string]any{
				"model": map[string]any{"name": ModelName, "css": modelCSS},
			}, nil)
		}
	}
	return c.invoke(ctx, "createModel", map[string]any{
		"modelName":     ModelName,
		"inOrderFields": modelFields,
		"css":           modelCSS,
		"cardTemplates": []map[string]string{cardTemplate},
	}, nil)
}

// FindFirstByTag queries notes carrying the given tag. The identity tag is
// unique per logical card, so at most one hit is expected; the first is
// returned either way.
func (c *Client) FindFirstByTag(ctx context.Context, tag string) (int64, bool, error) {
	var ids []int64
	if err := c.invoke(ctx, "findNotes", map[string]any{"query": "tag:" + tag}, &ids); err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// AddNote creates a note in the given deck.
func (c *Client) AddNote(ctx context.Context, deck, front, back string, tags []string) (int64, error) {
	var id int64
	err := c.invoke(ctx, "addNote", map[string]any{
		"note": map[string]any{
			"deckName":  deck,
			"modelName": ModelName,
			"fields":    map[string]string{"Front": front, "Back": back},
			"tags":      tags,
			"options":   map[string]any{"allowDuplicate": false},
		},
	}, &id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateNoteFields rewrites the rendered fields of an existing note.
func (c *Client) UpdateNoteFields(ctx context.Context, noteID int64, front, back string) error {
	return c.invoke(ctx, "updateNoteFields", map[string]any{
		"note": map[string]any{
			"id":     noteID,
			"fields": map[string]string{"Front": front, "Back": back},
		},
	}, nil)
}

// NoteTags returns the tags currently on a note.
func (c *Client) NoteTags(ctx context.Context, noteID int64) ([]string, error) {
	var infos []struct {
		Tags []string `json:"tags"`
	}
	if err := c.invoke(ctx, "notesInfo", map[string]any{"notes": []int64{noteID}}, &infos); err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("anki: note %d: %w", noteID, apperr.ErrNotFound)
	}
	return infos[0].Tags, nil
}

// AddTags adds tags to a note.
func (c *Client) AddTags(ctx context.Context, noteID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.invoke(ctx, "addTags", map[string]any{
		"notes": []int64{noteID},
		"tags":  strings.Join(tags, " "),
	}, nil)
}

// RemoveTags removes tags from a note.
func (c *Client) RemoveTags(ctx context.Context, noteID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.invoke(ctx, "removeTags", map[string]any{
		"notes": []int64{noteID},
		"tags":  strings.Join(tags, " "),
	}, nil)
}
