// Package postview holds the per-post client state machine: it ingests post
// documents (one-shot or streamed), derives render-ready state, and exposes
// the interaction commands. Every command applies its local mutation first
// (optimistic), then makes a single remote attempt and rolls back on failure;
// there are no automatic retries.
package postview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/embed"
	"github.com/steelsons/league-feed/backend/internal/models"
	"github.com/steelsons/league-feed/backend/internal/store"
	"github.com/steelsons/league-feed/backend/internal/voteguard"
)

// LoadState is the document lifecycle axis of the view.
type LoadState string

const (
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	// StateDeleted is terminal: the remote document no longer exists and the
	// post must be removed from any local list.
	StateDeleted LoadState = "deleted"
)

var (
	ErrNotReady         = errors.New("post is not ready")
	ErrUnknownReaction  = errors.New("emoji is not in the reaction set")
	ErrNotAPoll         = errors.New("post is not a poll")
	ErrOptionOutOfRange = errors.New("poll option index out of range")
	ErrPermissionDenied = errors.New("not allowed")
	ErrNoDeletePending  = errors.New("no delete confirmation pending")
)

// Config wires a view to its collaborators.
type Config struct {
	Store      store.Store
	Guard      voteguard.Guard
	Collection string // defaults to "posts"
	PostID     string
	Role       models.Role
	// OnRemoved is called (with the post ID) when the post should disappear
	// from the parent list: after a confirmed delete or when the remote
	// document vanishes.
	OnRemoved func(postID string)
	Logger    *zap.Logger
}

// View is the state machine for a single post. All methods are safe for
// concurrent use; snapshot ingestion is last-snapshot-wins, so a remote
// update arriving mid-flight of an optimistic mutation may overwrite the
// optimistic state. That is an accepted limitation of the sync model.
type View struct {
	st         store.Store
	guard      voteguard.Guard
	collection string
	postID     string
	role       models.Role
	onRemoved  func(string)
	log        *zap.Logger

	mu               sync.Mutex
	state            LoadState
	post             *models.Post
	hasVoted         bool
	confirmingDelete bool
	closed           bool
	unsubscribe      store.Unsubscribe
}

// New builds a view in the loading state. Call Load or Attach to populate it.
func New(cfg Config) *View {
	if cfg.Collection == "" {
		cfg.Collection = "posts"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	v := &View{
		st:         cfg.Store,
		guard:      cfg.Guard,
		collection: cfg.Collection,
		postID:     cfg.PostID,
		role:       cfg.Role,
		onRemoved:  cfg.OnRemoved,
		log:        cfg.Logger.With(zap.String("post_id", cfg.PostID)),
		state:      StateLoading,
	}
	return v
}

// Load fetches the document once, without a live subscription.
func (v *View) Load(ctx context.Context) error {
	doc, err := v.st.GetDocument(ctx, v.collection, v.postID)
	if errors.Is(err, store.ErrNotFound) {
		v.applySnapshot(store.Snapshot{ID: v.postID, Exists: false})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	v.applySnapshot(store.Snapshot{ID: v.postID, Data: doc, Exists: true})
	return nil
}

// Attach opens a live subscription. Snapshots arrive in server-assigned
// order and each one fully replaces the derived state. Close tears the
// subscription down.
func (v *View) Attach(ctx context.Context) error {
	unsubscribe, err := v.st.Subscribe(ctx, v.collection, v.postID, v.applySnapshot, func(err error) {
		// Fail soft: a broken subscription leaves the last snapshot on
		// screen rather than surfacing an error state.
		v.log.Warn("post subscription error", zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("attach post view: %w", err)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		unsubscribe()
		return nil
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()
	return nil
}

// Close tears down the subscription and drops any update that arrives after
// it. Safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (v *View) applySnapshot(snap store.Snapshot) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if !snap.Exists {
		alreadyDeleted := v.state == StateDeleted
		v.state = StateDeleted
		v.post = nil
		v.mu.Unlock()
		if !alreadyDeleted && v.onRemoved != nil {
			v.onRemoved(v.postID)
		}
		return
	}

	v.post = models.PostFromDocument(snap.ID, snap.Data)
	v.state = StateReady
	if v.guard != nil {
		v.hasVoted = v.guard.HasVoted(v.postID)
	}
	v.mu.Unlock()
}

// State returns the load state.
func (v *View) State() LoadState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Post returns a copy of the current post, or nil before the first snapshot.
func (v *View) Post() *models.Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.post.Clone()
}

// HasVoted reports the per-device poll vote state.
func (v *View) HasVoted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasVoted
}

// ConfirmingDelete reports whether the delete confirmation prompt is up.
func (v *View) ConfirmingDelete() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.confirmingDelete
}

// Embed classifies the post's embed URL. It is recomputed on every call,
// since classification rules may change between releases while stored raw
// URLs do not. Returns nil when there is no embed or it cannot be parsed.
func (v *View) Embed() *embed.Classification {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.post == nil || v.post.General == nil || v.post.General.EmbedURL == "" {
		return nil
	}
	return embed.Classify(v.post.General.EmbedURL)
}

// React bumps a reaction counter: local increment first, then a single
// atomic remote increment on that field alone. On failure the local count is
// rolled back (floor zero).
func (v *View) React(ctx context.Context, emoji string) error {
	if !models.IsReactionKey(emoji) {
		return ErrUnknownReaction
	}

	v.mu.Lock()
	if v.state != StateReady {
		v.mu.Unlock()
		return ErrNotReady
	}
	v.post.Reactions[emoji]++
	v.mu.Unlock()

	err := v.st.UpdateFields(ctx, v.collection, v.postID, map[string]any{
		models.FieldReactions + "." + emoji: store.Increment{By: 1},
	})
	if err != nil {
		v.mu.Lock()
		if v.post != nil && v.post.Reactions[emoji] > 0 {
			v.post.Reactions[emoji]--
		}
		v.mu.Unlock()
		v.log.Warn("reaction update failed, rolled back", zap.Error(err))
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

// AddComment appends a comment optimistically and persists the full comment
// list (last-writer-wins). Empty or whitespace-only text is a no-op, not an
// error. On failure the pre-append list is restored.
func (v *View) AddComment(ctx context.Context, text string) error {
	comment, ok := models.NewComment(text)
	if !ok {
		return nil
	}

	v.mu.Lock()
	if v.state != StateReady {
		v.mu.Unlock()
		return ErrNotReady
	}
	previous := v.post.Comments
	updated := append(append([]models.Comment(nil), previous...), comment)
	v.post.Comments = updated
	payload := models.CommentFields(updated)
	v.mu.Unlock()

	err := v.st.UpdateFields(ctx, v.collection, v.postID, map[string]any{
		models.FieldComments: payload,
	})
	if err != nil {
		v.mu.Lock()
		if v.post != nil {
			v.post.Comments = previous
		}
		v.mu.Unlock()
		v.log.Warn("comment update failed, rolled back", zap.Error(err))
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment (admin only) and persists the filtered
// list, restoring it on failure. Deleting an unknown comment ID is a no-op.
func (v *View) DeleteComment(ctx context.Context, commentID string) error {
	if v.role != models.RoleAdmin {
		return ErrPermissionDenied
	}

	v.mu.Lock()
	if v.state != StateReady {
		v.mu.Unlock()
		return ErrNotReady
	}
	previous := v.post.Comments
	filtered := make([]models.Comment, 0, len(previous))
	for _, c := range previous {
		if c.ID != commentID {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == len(previous) {
		v.mu.Unlock()
		return nil
	}
	v.post.Comments = filtered
	payload := models.CommentFields(filtered)
	v.mu.Unlock()

	err := v.st.UpdateFields(ctx, v.collection, v.postID, map[string]any{
		models.FieldComments: payload,
	})
	if err != nil {
		v.mu.Lock()
		if v.post != nil {
			v.post.Comments = previous
		}
		v.mu.Unlock()
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Vote appends a vote timestamp to the chosen option and persists the whole
// option list (last-writer-wins). The command is a no-op when this device
// already voted: state unchanged, no remote call. On failure the option list
// is reverted and the vote state stays unvoted so the user may retry; only a
// successful persist flips the one-way voted state.
func (v *View) Vote(ctx context.Context, optionIndex int) error {
	v.mu.Lock()
	if v.state != StateReady {
		v.mu.Unlock()
		return ErrNotReady
	}
	if v.post.Kind != models.KindPoll {
		v.mu.Unlock()
		return ErrNotAPoll
	}
	if v.hasVoted || (v.guard != nil && v.guard.HasVoted(v.postID)) {
		v.hasVoted = true
		v.mu.Unlock()
		return nil
	}
	if optionIndex < 0 || optionIndex >= len(v.post.Poll.Options) {
		v.mu.Unlock()
		return ErrOptionOutOfRange
	}

	option := &v.post.Poll.Options[optionIndex]
	previousVotes := option.Votes
	option.Votes = append(append([]int64(nil), previousVotes...), time.Now().UnixMilli())
	payload := models.PollOptionFields(v.post.Poll.Options)
	v.mu.Unlock()

	err := v.st.UpdateFields(ctx, v.collection, v.postID, map[string]any{
		models.FieldPoll + ".options": payload,
	})
	if err != nil {
		v.mu.Lock()
		if v.post != nil && v.post.Kind == models.KindPoll && optionIndex < len(v.post.Poll.Options) {
			v.post.Poll.Options[optionIndex].Votes = previousVotes
		}
		v.mu.Unlock()
		v.log.Warn("poll vote failed, rolled back", zap.Error(err))
		return fmt.Errorf("vote: %w", err)
	}

	if v.guard != nil {
		if err := v.guard.MarkVoted(v.postID); err != nil {
			// The remote vote landed; a guard persistence failure only risks
			// letting this device vote again.
			v.log.Warn("vote guard persist failed", zap.Error(err))
		}
	}
	v.mu.Lock()
	v.hasVoted = true
	v.mu.Unlock()
	return nil
}

// DeletePost is phase one of the two-phase delete: it only raises the
// confirmation prompt, mutating nothing remotely. It is rejected when the
// role's delete window has passed.
func (v *View) DeletePost() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateReady {
		return ErrNotReady
	}
	if !CanDelete(time.Now(), v.post.CreatedAt, v.role) {
		return ErrPermissionDenied
	}
	v.confirmingDelete = true
	return nil
}

// CancelDelete dismisses the confirmation prompt.
func (v *View) CancelDelete() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.confirmingDelete = false
}

// ConfirmDelete is phase two: it performs the remote delete, moves the view
// to its terminal state, and notifies the parent list. The permission is
// re-checked since the window may have lapsed while the prompt was up.
func (v *View) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	if !v.confirmingDelete {
		v.mu.Unlock()
		return ErrNoDeletePending
	}
	if v.state != StateReady {
		v.confirmingDelete = false
		v.mu.Unlock()
		return ErrNotReady
	}
	createdAt := v.post.CreatedAt
	v.mu.Unlock()

	if !CanDelete(time.Now(), createdAt, v.role) {
		v.mu.Lock()
		v.confirmingDelete = false
		v.mu.Unlock()
		return ErrPermissionDenied
	}

	err := v.st.DeleteDocument(ctx, v.collection, v.postID)

	v.mu.Lock()
	v.confirmingDelete = false
	if err == nil {
		v.state = StateDeleted
		v.post = nil
	}
	v.mu.Unlock()

	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if v.onRemoved != nil {
		v.onRemoved(v.postID)
	}
	return nil
}

// ResetReactions zeroes every reaction key locally and remotely (admin
// only), restoring the previous counts on failure.
func (v *View) ResetReactions(ctx context.Context) error {
	if v.role != models.RoleAdmin {
		return ErrPermissionDenied
	}

	v.mu.Lock()
	if v.state != StateReady {
		v.mu.Unlock()
		return ErrNotReady
	}
	previous := v.post.Reactions
	v.post.Reactions = models.NewReactionSet()
	v.mu.Unlock()

	zeroed := make(map[string]any, len(models.ReactionKeys))
	for _, key := range models.ReactionKeys {
		zeroed[key] = int64(0)
	}
	err := v.st.UpdateFields(ctx, v.collection, v.postID, map[string]any{
		models.FieldReactions: zeroed,
	})
	if err != nil {
		v.mu.Lock()
		if v.post != nil {
			v.post.Reactions = previous
		}
		v.mu.Unlock()
		return fmt.Errorf("reset reactions: %w", err)
	}
	return nil
}
