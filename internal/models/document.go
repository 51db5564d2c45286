package models

// Document field names shared by every store backend. The stored shape is the
// flat one the site has always used: the kind tag lives in "type", trade
// fields sit at the top level, and the poll nests under "poll".
const (
	FieldAuthorName = "name"
	FieldCreatedAt  = "createdAt"
	FieldKind       = "type"
	FieldText       = "text"
	FieldMediaURL   = "mediaUrl"
	FieldMediaType  = "mediaType"
	FieldEmbed      = "embed"
	FieldGiving     = "giving"
	FieldSeeking    = "seeking"
	FieldNotes      = "notes"
	FieldPoll       = "poll"
	FieldReactions  = "reactions"
	FieldComments   = "comments"
)

// Fields flattens the post into the document shape persisted by the store.
func (p *Post) Fields() map[string]any {
	doc := map[string]any{
		FieldAuthorName: p.AuthorName,
		FieldCreatedAt:  p.CreatedAt,
		FieldKind:       string(p.Kind),
		FieldReactions:  reactionFields(p.Reactions),
		FieldComments:   CommentFields(p.Comments),
	}

	switch p.Kind {
	case KindGeneral:
		doc[FieldText] = p.General.Text
		if p.General.Media != nil {
			doc[FieldMediaURL] = p.General.Media.URL
			doc[FieldMediaType] = string(p.General.Media.Type)
		}
		if p.General.EmbedURL != "" {
			doc[FieldEmbed] = p.General.EmbedURL
		}
	case KindTrade:
		doc[FieldGiving] = p.Trade.Giving
		doc[FieldSeeking] = p.Trade.Seeking
		doc[FieldNotes] = p.Trade.Notes
	case KindPoll:
		doc[FieldPoll] = map[string]any{
			"question": p.Poll.Question,
			"options":  PollOptionFields(p.Poll.Options),
		}
	}
	return doc
}

// PostFromDocument rebuilds a post from a stored document. Unknown kind tags
// fall back to general so that old documents keep rendering.
func PostFromDocument(id string, doc map[string]any) *Post {
	post := &Post{
		ID:         id,
		AuthorName: asString(doc[FieldAuthorName]),
		CreatedAt:  asInt64(doc[FieldCreatedAt]),
		Kind:       Kind(asString(doc[FieldKind])),
		Reactions:  reactionsFromDocument(doc[FieldReactions]),
		Comments:   commentsFromDocument(doc[FieldComments]),
	}

	switch post.Kind {
	case KindTrade:
		post.Trade = &TradePayload{
			Giving:  asString(doc[FieldGiving]),
			Seeking: asString(doc[FieldSeeking]),
			Notes:   asString(doc[FieldNotes]),
		}
	case KindPoll:
		post.Poll = pollFromDocument(doc[FieldPoll])
	default:
		post.Kind = KindGeneral
		general := &GeneralPayload{
			Text:     asString(doc[FieldText]),
			EmbedURL: asString(doc[FieldEmbed]),
		}
		if url := asString(doc[FieldMediaURL]); url != "" {
			general.Media = &Media{URL: url, Type: MediaType(asString(doc[FieldMediaType]))}
		}
		post.General = general
	}
	return post
}

// CommentFields converts a comment list to the stored representation.
func CommentFields(comments []Comment) []any {
	out := make([]any, 0, len(comments))
	for _, c := range comments {
		out = append(out, map[string]any{
			"id":        c.ID,
			"text":      c.Text,
			"createdAt": c.CreatedAt,
		})
	}
	return out
}

// PollOptionFields converts poll options to the stored representation.
func PollOptionFields(options []PollOption) []any {
	out := make([]any, 0, len(options))
	for _, opt := range options {
		votes := make([]any, 0, len(opt.Votes))
		for _, v := range opt.Votes {
			votes = append(votes, v)
		}
		out = append(out, map[string]any{
			"text":  opt.Text,
			"votes": votes,
		})
	}
	return out
}

func reactionFields(reactions map[string]int64) map[string]any {
	out := make(map[string]any, len(reactions))
	for k, v := range reactions {
		out[k] = v
	}
	return out
}

// reactionsFromDocument merges stored counts over the fixed emoji set, so a
// post always exposes every key even if the document predates one.
func reactionsFromDocument(v any) map[string]int64 {
	merged := NewReactionSet()
	if m, ok := v.(map[string]any); ok {
		for k, raw := range m {
			merged[k] = asInt64(raw)
		}
	}
	return merged
}

func commentsFromDocument(v any) []Comment {
	raw, ok := v.([]any)
	if !ok {
		return []Comment{}
	}
	comments := make([]Comment, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		comments = append(comments, Comment{
			ID:        asString(m["id"]),
			Text:      asString(m["text"]),
			CreatedAt: asInt64(m["createdAt"]),
		})
	}
	return comments
}

func pollFromDocument(v any) *PollPayload {
	m, ok := v.(map[string]any)
	if !ok {
		return &PollPayload{}
	}
	poll := &PollPayload{Question: asString(m["question"])}
	rawOpts, _ := m["options"].([]any)
	for _, entry := range rawOpts {
		om, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		opt := PollOption{Text: asString(om["text"]), Votes: []int64{}}
		if votes, ok := om["votes"].([]any); ok {
			for _, vote := range votes {
				opt.Votes = append(opt.Votes, asInt64(vote))
			}
		}
		poll.Options = append(poll.Options, opt)
	}
	return poll
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt64 tolerates the numeric types the backends hand back: Firestore
// decodes integers as int64, Mongo may produce int32 or float64.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
