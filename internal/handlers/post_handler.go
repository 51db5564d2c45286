package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/middleware"
	"github.com/steelsons/league-feed/backend/internal/models"
	"github.com/steelsons/league-feed/backend/internal/postview"
	"github.com/steelsons/league-feed/backend/internal/store"
)

// PostsCollection is the document collection holding the feed.
const PostsCollection = "posts"

// PostHandler handles HTTP requests related to feed posts.
type PostHandler struct {
	store store.Store
	log   *zap.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(st store.Store, logger *zap.Logger) *PostHandler {
	return &PostHandler{store: st, log: logger}
}

// RegisterPostRoutes registers post-related routes.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts", h.ListPosts)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/reactions/:emoji", h.React)
	g.DELETE("/posts/:id/reactions", h.ResetReactions, middleware.RequireAdmin())
	g.POST("/posts/:id/comments", h.AddComment)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment, middleware.RequireAdmin())
	g.POST("/posts/:id/votes", h.Vote)
}

// ListPosts returns the whole feed, newest first.
func (h *PostHandler) ListPosts(c echo.Context) error {
	snapshots, err := h.store.ListDocuments(c.Request().Context(), PostsCollection, models.FieldCreatedAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts := make([]*models.Post, 0, len(snapshots))
	for _, snap := range snapshots {
		posts = append(posts, models.PostFromDocument(snap.ID, snap.Data))
	}
	return c.JSON(http.StatusOK, posts)
}

// CreatePost creates a feed post from the composer payload.
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := req.ToPost()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := h.store.CreateDocument(c.Request().Context(), PostsCollection, post.Fields())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	post.ID = id

	h.log.Info("post created", zap.String("post_id", id), zap.String("kind", string(post.Kind)))
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a single post by ID.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	doc, err := h.store.GetDocument(c.Request().Context(), PostsCollection, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, models.PostFromDocument(postID, doc))
}

// DeletePost deletes a post. Admins may delete at any time; guests only
// inside the window after creation, checked against the server clock.
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID := c.Param("id")
	access := middleware.AccessFromContext(c)

	doc, err := h.store.GetDocument(c.Request().Context(), PostsCollection, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post := models.PostFromDocument(postID, doc)
	if !postview.CanDelete(time.Now(), post.CreatedAt, access) {
		return echo.NewHTTPError(http.StatusForbidden, "The delete window for this post has passed")
	}

	if err := h.store.DeleteDocument(c.Request().Context(), PostsCollection, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.log.Info("post deleted", zap.String("post_id", postID), zap.String("access", string(access)))
	return c.NoContent(http.StatusNoContent)
}

// React atomically increments a single reaction counter.
func (h *PostHandler) React(c echo.Context) error {
	postID := c.Param("id")
	emoji := c.Param("emoji")

	if !models.IsReactionKey(emoji) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown reaction emoji")
	}

	err := h.store.UpdateFields(c.Request().Context(), PostsCollection, postID, map[string]any{
		models.FieldReactions + "." + emoji: store.Increment{By: 1},
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetReactions zeroes every reaction counter on a post.
func (h *PostHandler) ResetReactions(c echo.Context) error {
	postID := c.Param("id")

	zeroed := make(map[string]any, len(models.ReactionKeys))
	for _, key := range models.ReactionKeys {
		zeroed[key] = int64(0)
	}
	err := h.store.UpdateFields(c.Request().Context(), PostsCollection, postID, map[string]any{
		models.FieldReactions: zeroed,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// AddComment appends a comment and writes back the full comment list. The
// write is last-writer-wins; two commenters racing is an accepted property
// of the document shape.
func (h *PostHandler) AddComment(c echo.Context) error {
	postID := c.Param("id")

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, ok := models.NewComment(req.Text)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment text is required")
	}

	doc, err := h.store.GetDocument(c.Request().Context(), PostsCollection, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post := models.PostFromDocument(postID, doc)
	updated := append(post.Comments, comment)
	err = h.store.UpdateFields(c.Request().Context(), PostsCollection, postID, map[string]any{
		models.FieldComments: models.CommentFields(updated),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes a single comment and writes back the filtered list.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	postID := c.Param("id")
	commentID := c.Param("comment_id")

	doc, err := h.store.GetDocument(c.Request().Context(), PostsCollection, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post := models.PostFromDocument(postID, doc)
	filtered := make([]models.Comment, 0, len(post.Comments))
	for _, comment := range post.Comments {
		if comment.ID != commentID {
			filtered = append(filtered, comment)
		}
	}
	if len(filtered) == len(post.Comments) {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	err = h.store.UpdateFields(c.Request().Context(), PostsCollection, postID, map[string]any{
		models.FieldComments: models.CommentFields(filtered),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Vote appends a vote timestamp to a poll option and writes back the option
// list. Keeping a device to one vote is the vote guard's job on the client;
// the server only bounds-checks.
func (h *PostHandler) Vote(c echo.Context) error {
	postID := c.Param("id")

	var req models.VoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	doc, err := h.store.GetDocument(c.Request().Context(), PostsCollection, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post := models.PostFromDocument(postID, doc)
	if post.Kind != models.KindPoll || post.Poll == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Post is not a poll")
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(post.Poll.Options) {
		return echo.NewHTTPError(http.StatusBadRequest, "Poll option index out of range")
	}

	option := &post.Poll.Options[req.OptionIndex]
	option.Votes = append(option.Votes, time.Now().UnixMilli())

	err = h.store.UpdateFields(c.Request().Context(), PostsCollection, postID, map[string]any{
		models.FieldPoll + ".options": models.PollOptionFields(post.Poll.Options),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, post.Poll)
}
