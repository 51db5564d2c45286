package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialSnapshotExistingDocument(t *testing.T) {
	doc := Document{"name": "Matt Nese", "type": "general"}

	snap, err := initialSnapshot("p1", doc, nil)
	assert.NoError(t, err)
	assert.Equal(t, "p1", snap.ID)
	assert.True(t, snap.Exists)
	assert.Equal(t, doc, snap.Data)
}

func TestInitialSnapshotMissingDocument(t *testing.T) {
	// A subscription to an already-deleted post must still deliver a first
	// snapshot so the view can reach its terminal state.
	snap, err := initialSnapshot("gone", nil, ErrNotFound)
	assert.NoError(t, err)
	assert.Equal(t, "gone", snap.ID)
	assert.False(t, snap.Exists)
	assert.Nil(t, snap.Data)
}

func TestInitialSnapshotReadFailure(t *testing.T) {
	readErr := errors.New("connection reset")

	_, err := initialSnapshot("p1", nil, readErr)
	assert.ErrorIs(t, err, readErr)
}
