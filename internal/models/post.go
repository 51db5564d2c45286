package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed discriminator selecting which payload shape a post
// carries. Exactly one of the payload pointers is populated, matching Kind;
// the constructors below enforce this at build time.
type Kind string

const (
	KindGeneral Kind = "general"
	KindTrade   Kind = "trade"
	KindPoll    Kind = "poll"
)

// MediaType is the type of an uploaded media attachment.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// ReactionKeys is the fixed emoji set every post starts with. Keys are never
// removed after creation, only counts change.
var ReactionKeys = []string{"❤️", "😂", "🔥", "👎"}

var (
	ErrAuthorRequired   = errors.New("author name is required")
	ErrEmptyGeneralPost = errors.New("post must include text, media, or an embed")
	ErrEmptyTradeBlock  = errors.New("trade block needs at least one of giving, seeking, or notes")
	ErrPollQuestion     = errors.New("poll question is required")
	ErrPollOptions      = errors.New("poll needs at least two options")
	ErrUnknownKind      = errors.New("unknown post kind")
)

// Media is an uploaded attachment on a general post.
type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// GeneralPayload is the content of a plain feed post. EmbedURL holds the raw
// user-supplied URL; it is resolved by the embed classifier at render time and
// never stored pre-resolved, so classification rules can evolve without
// migrating stored data.
type GeneralPayload struct {
	Text     string `json:"text"`
	Media    *Media `json:"media,omitempty"`
	EmbedURL string `json:"embedUrl,omitempty"`
}

// TradePayload is a trade-block notice. At least one field is non-empty.
type TradePayload struct {
	Giving  string `json:"giving,omitempty"`
	Seeking string `json:"seeking,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// PollOption is one poll choice. Votes is an append-only list of vote
// timestamps (epoch millis). It records a count, not voter identities, so it
// cannot be deduplicated server-side.
type PollOption struct {
	Text  string  `json:"text"`
	Votes []int64 `json:"votes"`
}

// PollPayload is a poll with an ordered option list.
type PollPayload struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
}

// Comment is a single comment on a post.
type Comment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// NewComment builds a comment with a fresh identifier and local timestamp.
// Empty or whitespace-only text yields ok=false; callers treat that as a
// no-op rather than an error.
func NewComment(text string) (Comment, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, false
	}
	return Comment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}, true
}

// Post is a single feed entry.
type Post struct {
	ID         string           `json:"id"`
	AuthorName string           `json:"authorName"`
	CreatedAt  int64            `json:"createdAt"` // epoch millis; feed sorts descending
	Kind       Kind             `json:"kind"`
	General    *GeneralPayload  `json:"general,omitempty"`
	Trade      *TradePayload    `json:"trade,omitempty"`
	Poll       *PollPayload     `json:"poll,omitempty"`
	Reactions  map[string]int64 `json:"reactions"`
	Comments   []Comment        `json:"comments"`
}

// NewReactionSet returns the initial zeroed reaction map.
func NewReactionSet() map[string]int64 {
	set := make(map[string]int64, len(ReactionKeys))
	for _, key := range ReactionKeys {
		set[key] = 0
	}
	return set
}

// IsReactionKey reports whether emoji belongs to the fixed reaction set.
func IsReactionKey(emoji string) bool {
	for _, key := range ReactionKeys {
		if key == emoji {
			return true
		}
	}
	return false
}

func newPost(authorName string, kind Kind) (*Post, error) {
	authorName = strings.TrimSpace(authorName)
	if authorName == "" {
		return nil, ErrAuthorRequired
	}
	return &Post{
		AuthorName: authorName,
		CreatedAt:  time.Now().UnixMilli(),
		Kind:       kind,
		Reactions:  NewReactionSet(),
		Comments:   []Comment{},
	}, nil
}

// NewGeneralPost builds a general post. Text may be empty when media or an
// embed URL is present.
func NewGeneralPost(authorName, text string, media *Media, embedURL string) (*Post, error) {
	text = strings.TrimSpace(text)
	embedURL = strings.TrimSpace(embedURL)
	if text == "" && media == nil && embedURL == "" {
		return nil, ErrEmptyGeneralPost
	}

	post, err := newPost(authorName, KindGeneral)
	if err != nil {
		return nil, err
	}
	post.General = &GeneralPayload{Text: text, Media: media, EmbedURL: embedURL}
	return post, nil
}

// NewTradePost builds a trade-block post. All fields are optional but at
// least one must be non-empty.
func NewTradePost(authorName, giving, seeking, notes string) (*Post, error) {
	giving = strings.TrimSpace(giving)
	seeking = strings.TrimSpace(seeking)
	notes = strings.TrimSpace(notes)
	if giving == "" && seeking == "" && notes == "" {
		return nil, ErrEmptyTradeBlock
	}

	post, err := newPost(authorName, KindTrade)
	if err != nil {
		return nil, err
	}
	post.Trade = &TradePayload{Giving: giving, Seeking: seeking, Notes: notes}
	return post, nil
}

// NewPollPost builds a poll post with zeroed vote lists. A question and at
// least two options are required.
func NewPollPost(authorName, question string, options []string) (*Post, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrPollQuestion
	}
	var opts []PollOption
	for _, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		opts = append(opts, PollOption{Text: text, Votes: []int64{}})
	}
	if len(opts) < 2 {
		return nil, ErrPollOptions
	}

	post, err := newPost(authorName, KindPoll)
	if err != nil {
		return nil, err
	}
	post.Poll = &PollPayload{Question: question, Options: opts}
	return post, nil
}
