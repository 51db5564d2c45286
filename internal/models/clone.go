package models

// Role is the binary access level supplied by the PIN gate. The core trusts
// this value as given; it carries no authentication logic of its own.
type Role string

const (
	RoleGuest Role = "guest"
	RoleAdmin Role = "admin"
)

// Clone returns a deep copy of the post, so callers can hand out read-only
// views without exposing internal state to mutation.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	out := *p

	out.Reactions = make(map[string]int64, len(p.Reactions))
	for k, v := range p.Reactions {
		out.Reactions[k] = v
	}
	out.Comments = append([]Comment(nil), p.Comments...)

	if p.General != nil {
		general := *p.General
		if p.General.Media != nil {
			media := *p.General.Media
			general.Media = &media
		}
		out.General = &general
	}
	if p.Trade != nil {
		trade := *p.Trade
		out.Trade = &trade
	}
	if p.Poll != nil {
		poll := PollPayload{Question: p.Poll.Question}
		for _, opt := range p.Poll.Options {
			poll.Options = append(poll.Options, PollOption{
				Text:  opt.Text,
				Votes: append([]int64(nil), opt.Votes...),
			})
		}
		out.Poll = &poll
	}
	return &out
}
