package models

// CreatePostRequest is the composer payload. Kind-specific validation beyond
// the tags (empty trade block, option count) happens in the constructors, so
// nothing invalid ever reaches the store.
type CreatePostRequest struct {
	AuthorName string   `json:"authorName" validate:"required,min=1,max=60"`
	Kind       string   `json:"kind" validate:"required,oneof=general trade poll"`
	Text       string   `json:"text,omitempty" validate:"omitempty,max=2000"`
	MediaURL   string   `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	MediaType  string   `json:"mediaType,omitempty" validate:"omitempty,oneof=image video"`
	EmbedURL   string   `json:"embedUrl,omitempty" validate:"omitempty,url"`
	Giving     string   `json:"giving,omitempty" validate:"omitempty,max=500"`
	Seeking    string   `json:"seeking,omitempty" validate:"omitempty,max=500"`
	Notes      string   `json:"notes,omitempty" validate:"omitempty,max=500"`
	Question   string   `json:"question,omitempty" validate:"omitempty,max=300"`
	Options    []string `json:"options,omitempty" validate:"omitempty,dive,max=100"`
}

// ToPost builds the tagged post for this request through the kind
// constructors.
func (r *CreatePostRequest) ToPost() (*Post, error) {
	switch Kind(r.Kind) {
	case KindGeneral:
		var media *Media
		if r.MediaURL != "" {
			media = &Media{URL: r.MediaURL, Type: MediaType(r.MediaType)}
		}
		return NewGeneralPost(r.AuthorName, r.Text, media, r.EmbedURL)
	case KindTrade:
		return NewTradePost(r.AuthorName, r.Giving, r.Seeking, r.Notes)
	case KindPoll:
		return NewPollPost(r.AuthorName, r.Question, r.Options)
	}
	return nil, ErrUnknownKind
}

// AddCommentRequest is the payload for commenting on a post.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// VoteRequest is the payload for voting on a poll option.
type VoteRequest struct {
	OptionIndex int `json:"optionIndex" validate:"min=0"`
}

// UnlockRequest is the PIN gate payload.
type UnlockRequest struct {
	PIN string `json:"pin" validate:"required"`
}
