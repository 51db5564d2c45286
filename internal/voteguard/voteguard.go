// Package voteguard keeps the per-device record of polls already voted on.
// It is a local idempotency marker, not an authoritative check: clearing the
// file (or using another device) allows voting again, which is an accepted
// tradeoff for a low-stakes fan poll.
package voteguard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Guard gates the poll UI between the ballot and results views.
type Guard interface {
	HasVoted(postID string) bool
	MarkVoted(postID string) error
}

// FileGuard persists the voted-post set as a JSON file.
type FileGuard struct {
	mu    sync.Mutex
	path  string
	voted map[string]bool
}

// NewFileGuard loads the guard state from path, starting empty when the file
// does not exist yet.
func NewFileGuard(path string) (*FileGuard, error) {
	g := &FileGuard{path: path, voted: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read vote guard file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse vote guard file: %w", err)
	}
	for _, id := range ids {
		g.voted[id] = true
	}
	return g, nil
}

// HasVoted reports whether this device already voted on the post.
func (g *FileGuard) HasVoted(postID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voted[postID]
}

// MarkVoted records a vote and persists the set. The transition is one-way;
// marking an already-voted post is a no-op.
func (g *FileGuard) MarkVoted(postID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.voted[postID] {
		return nil
	}
	g.voted[postID] = true

	if err := g.save(); err != nil {
		delete(g.voted, postID)
		return err
	}
	return nil
}

// save writes to a temp file and renames it over the old one so a crash
// mid-write never corrupts the set.
func (g *FileGuard) save() error {
	ids := make([]string, 0, len(g.voted))
	for id := range g.voted {
		ids = append(ids, id)
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vote guard: %w", err)
	}

	if dir := filepath.Dir(g.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create vote guard dir: %w", err)
		}
	}
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write vote guard: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		return fmt.Errorf("replace vote guard: %w", err)
	}
	return nil
}
