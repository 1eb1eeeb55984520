package plexus

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// ShareState is the compact persisted form of a visualization: the
// recognized options, the current viewport rectangle, and selection ids.
// Raw per-node positions are deliberately excluded; the deterministic
// seeding and solver reproduce the layout from the same data.
type ShareState struct {
	Options   Options  `json:"options"`
	World     Rect     `json:"world"`
	ClickedID string   `json:"clickedId,omitempty"`
	PinnedIDs []string `json:"pinnedIds,omitempty"`
	LassoIDs  []string `json:"lassoIds,omitempty"`
}

// CaptureState snapshots the engine into a shareable state object.
func (e *Engine) CaptureState() ShareState {
	sel := e.Selection()
	return ShareState{
		Options:   e.opts,
		World:     e.viewport.World(),
		ClickedID: sel.ClickedID,
		PinnedIDs: sortedKeys(sel.Pinned),
		LassoIDs:  sortedKeys(sel.Lasso),
	}
}

// ApplyState restores options, viewport, and selection from a shared state.
// Ids that don't resolve in the current graph are ignored.
func (e *Engine) ApplyState(st ShareState) {
	e.SetOptions(st.Options)
	e.viewport.SetWorld(st.World)

	sel := e.Selection()
	if e.graph.NodeByID(st.ClickedID) != nil {
		sel.ClickedID = st.ClickedID
	}
	for _, id := range st.PinnedIDs {
		if n := e.graph.NodeByID(id); n != nil {
			sel.Pinned[id] = true
			n.Pin(n.Pos.X, n.Pos.Y)
		}
	}
	for _, id := range st.LassoIDs {
		if e.graph.NodeByID(id) != nil {
			sel.Lasso[id] = true
		}
	}
	e.renderer.markBulkStale()
	e.renderer.markHighlightStale()
}

// Encode serializes the state to a URL-safe string.
func (st ShareState) Encode() (string, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode share state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeState parses a string produced by Encode.
func DecodeState(s string) (ShareState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ShareState{}, fmt.Errorf("decode share state: %w", err)
	}
	var st ShareState
	if err := json.Unmarshal(raw, &st); err != nil {
		return ShareState{}, fmt.Errorf("decode share state: %w", err)
	}
	return st, nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
