package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/middleware"
	"github.com/steelsons/league-feed/backend/internal/models"
	"github.com/steelsons/league-feed/backend/internal/store"
)

// memStore is an in-memory document store for handler tests.
type memStore struct {
	docs    map[string]store.Document
	nextID  int
	updates []map[string]any
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]store.Document{}}
}

func (m *memStore) GetDocument(_ context.Context, _ string, id string) (store.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (m *memStore) ListDocuments(_ context.Context, _ string, _ string) ([]store.Snapshot, error) {
	out := make([]store.Snapshot, 0, len(m.docs))
	for id, doc := range m.docs {
		out = append(out, store.Snapshot{ID: id, Data: doc, Exists: true})
	}
	return out, nil
}

func (m *memStore) Subscribe(_ context.Context, _ string, _ string, _ store.UpdateHandler, _ store.ErrorHandler) (store.Unsubscribe, error) {
	return func() {}, nil
}

func (m *memStore) CreateDocument(_ context.Context, _ string, doc store.Document) (string, error) {
	m.nextID++
	id := fmt.Sprintf("doc%d", m.nextID)
	m.docs[id] = doc
	return id, nil
}

func (m *memStore) UpdateFields(_ context.Context, _ string, id string, fields map[string]any) error {
	if _, ok := m.docs[id]; !ok {
		return store.ErrNotFound
	}
	m.updates = append(m.updates, fields)
	for path, value := range fields {
		if inc, ok := value.(store.Increment); ok {
			parts := strings.SplitN(path, ".", 2)
			if nested, ok := m.docs[id][parts[0]].(map[string]any); ok && len(parts) == 2 {
				current, _ := nested[parts[1]].(int64)
				nested[parts[1]] = current + inc.By
			}
			continue
		}
		m.docs[id][path] = value
	}
	return nil
}

func (m *memStore) DeleteDocument(_ context.Context, _ string, id string) error {
	if _, ok := m.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func newTestContext(t *testing.T, method, target, body string, role models.Role) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.AccessContextKey, role)
	return c, rec, e
}

func seedPost(m *memStore, id string, post *models.Post) {
	m.docs[id] = post.Fields()
}

func TestCreatePostGeneral(t *testing.T) {
	m := newMemStore()
	h := NewPostHandler(m, zap.NewNop())

	body := `{"authorName":"Matt Nese","kind":"general","text":"What a finish"}`
	c, rec, _ := newTestContext(t, http.MethodPost, "/api/v1/posts", body, models.RoleGuest)

	assert.NoError(t, h.CreatePost(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.Post
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "doc1", created.ID)
	assert.Equal(t, models.KindGeneral, created.Kind)
	assert.Len(t, m.docs, 1)
}

func TestCreatePostValidation(t *testing.T) {
	m := newMemStore()
	h := NewPostHandler(m, zap.NewNop())

	cases := []string{
		`{"kind":"general","text":"no author"}`,
		`{"authorName":"Matt","kind":"story","text":"bad kind"}`,
		`{"authorName":"Matt","kind":"general"}`,                       // empty general
		`{"authorName":"Matt","kind":"poll","question":"Start Qb?"}`,   // no options
		`{"authorName":"Matt","kind":"trade"}`,                         // empty trade block
	}
	for _, body := range cases {
		c, _, _ := newTestContext(t, http.MethodPost, "/api/v1/posts", body, models.RoleGuest)
		err := h.CreatePost(c)
		assert.Error(t, err, "payload %s", body)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	}
	assert.Empty(t, m.docs)
}

func TestGetPostNotFound(t *testing.T) {
	h := NewPostHandler(newMemStore(), zap.NewNop())
	c, _, _ := newTestContext(t, http.MethodGet, "/api/v1/posts/missing", "", models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.GetPost(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestReactIncrementsSingleField(t *testing.T) {
	m := newMemStore()
	post, _ := models.NewGeneralPost("Matt Nese", "big win", nil, "")
	seedPost(m, "p1", post)
	h := NewPostHandler(m, zap.NewNop())

	c, rec, _ := newTestContext(t, http.MethodPost, "/", "", models.RoleGuest)
	c.SetParamNames("id", "emoji")
	c.SetParamValues("p1", "🔥")

	assert.NoError(t, h.React(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	reactions := m.docs["p1"][models.FieldReactions].(map[string]any)
	assert.Equal(t, int64(1), reactions["🔥"])
}

func TestReactUnknownEmojiRejected(t *testing.T) {
	m := newMemStore()
	h := NewPostHandler(m, zap.NewNop())

	c, _, _ := newTestContext(t, http.MethodPost, "/", "", models.RoleGuest)
	c.SetParamNames("id", "emoji")
	c.SetParamValues("p1", "👍")

	err := h.React(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestDeletePostWindow(t *testing.T) {
	m := newMemStore()
	h := NewPostHandler(m, zap.NewNop())

	fresh, _ := models.NewGeneralPost("Matt Nese", "fresh", nil, "")
	fresh.CreatedAt = time.Now().Add(-10 * time.Minute).UnixMilli()
	seedPost(m, "fresh", fresh)

	stale, _ := models.NewGeneralPost("Matt Nese", "stale", nil, "")
	stale.CreatedAt = time.Now().Add(-20 * time.Minute).UnixMilli()
	seedPost(m, "stale", stale)

	// Guest inside the window succeeds
	c, rec, _ := newTestContext(t, http.MethodDelete, "/", "", models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("fresh")
	assert.NoError(t, h.DeletePost(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Guest outside the window is refused
	c, _, _ = newTestContext(t, http.MethodDelete, "/", "", models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("stale")
	err := h.DeletePost(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	// Admin deletes regardless
	c, rec, _ = newTestContext(t, http.MethodDelete, "/", "", models.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("stale")
	assert.NoError(t, h.DeletePost(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, m.docs)
}

func TestAddCommentAndDelete(t *testing.T) {
	m := newMemStore()
	post, _ := models.NewGeneralPost("Matt Nese", "big win", nil, "")
	seedPost(m, "p1", post)
	h := NewPostHandler(m, zap.NewNop())

	c, rec, _ := newTestContext(t, http.MethodPost, "/", `{"text":"  great game  "}`, models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	assert.NoError(t, h.AddComment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var comment models.Comment
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	assert.Equal(t, "great game", comment.Text)

	// Delete it again (admin route)
	c, rec, _ = newTestContext(t, http.MethodDelete, "/", "", models.RoleAdmin)
	c.SetParamNames("id", "comment_id")
	c.SetParamValues("p1", comment.ID)
	assert.NoError(t, h.DeleteComment(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting an unknown comment is a 404
	c, _, _ = newTestContext(t, http.MethodDelete, "/", "", models.RoleAdmin)
	c.SetParamNames("id", "comment_id")
	c.SetParamValues("p1", "nope")
	err := h.DeleteComment(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestVoteBoundsChecked(t *testing.T) {
	m := newMemStore()
	poll, _ := models.NewPollPost("Glen Halperin", "Start Qb?", []string{"Josh Allen", "Jalen Hurts"})
	seedPost(m, "poll1", poll)
	general, _ := models.NewGeneralPost("Matt Nese", "not a poll", nil, "")
	seedPost(m, "p1", general)
	h := NewPostHandler(m, zap.NewNop())

	c, rec, _ := newTestContext(t, http.MethodPost, "/", `{"optionIndex":1}`, models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("poll1")
	assert.NoError(t, h.Vote(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.PollPayload
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Options[1].Votes, 1)
	assert.Empty(t, result.Options[0].Votes)

	// Out of range
	c, _, _ = newTestContext(t, http.MethodPost, "/", `{"optionIndex":5}`, models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("poll1")
	err := h.Vote(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	// Not a poll
	c, _, _ = newTestContext(t, http.MethodPost, "/", `{"optionIndex":0}`, models.RoleGuest)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	err = h.Vote(c)
	httpErr, ok = err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestListPostsDecodesEveryKind(t *testing.T) {
	m := newMemStore()
	general, _ := models.NewGeneralPost("Matt Nese", "hello", nil, "")
	trade, _ := models.NewTradePost("Dylan Frank", "RB depth", "WR help", "")
	poll, _ := models.NewPollPost("Glen Halperin", "Start Qb?", []string{"Yes", "No"})
	seedPost(m, "a", general)
	seedPost(m, "b", trade)
	seedPost(m, "c", poll)
	h := NewPostHandler(m, zap.NewNop())

	c, rec, _ := newTestContext(t, http.MethodGet, "/api/v1/posts", "", models.RoleGuest)
	assert.NoError(t, h.ListPosts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var posts []models.Post
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	assert.Len(t, posts, 3)

	kinds := map[models.Kind]bool{}
	for _, p := range posts {
		kinds[p.Kind] = true
	}
	assert.True(t, kinds[models.KindGeneral])
	assert.True(t, kinds[models.KindTrade])
	assert.True(t, kinds[models.KindPoll])
}
