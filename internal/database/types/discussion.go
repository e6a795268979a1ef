package types

import (
	"slices"
	"time"
)

// DiscussionPost is a comment in a proposal's discussion thread.
type DiscussionPost struct {
	ID         string     `bun:",pk"                json:"id"`
	ProposalID string     `bun:",notnull"           json:"proposalId"`
	Author     string     `bun:",notnull"           json:"author"`
	Content    string     `bun:",notnull"           json:"content"`
	ParentID   string     `bun:",nullzero"          json:"parentId,omitempty"`
	Timestamp  time.Time  `bun:",notnull"           json:"timestamp"`
	Reactions  []Reaction `bun:"type:jsonb,notnull" json:"reactions"`
}

// Reaction is the set of principals that reacted with an emoji.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// ToggleReaction adds the principal to the emoji's set, or removes them if present.
// Returns true if the reaction was added.
func (p *DiscussionPost) ToggleReaction(emoji, principal string) bool {
	for i := range p.Reactions {
		r := &p.Reactions[i]
		if r.Emoji != emoji {
			continue
		}

		if idx := slices.Index(r.Users, principal); idx >= 0 {
			r.Users = slices.Delete(r.Users, idx, idx+1)
			if len(r.Users) == 0 {
				p.Reactions = slices.Delete(p.Reactions, i, i+1)
			}
			return false
		}

		r.Users = append(r.Users, principal)
		return true
	}

	p.Reactions = append(p.Reactions, Reaction{Emoji: emoji, Users: []string{principal}})
	return true
}

// Clone returns a deep copy of the post.
func (p *DiscussionPost) Clone() *DiscussionPost {
	c := *p
	c.Reactions = make([]Reaction, len(p.Reactions))
	for i, r := range p.Reactions {
		c.Reactions[i] = Reaction{Emoji: r.Emoji, Users: slices.Clone(r.Users)}
	}
	return &c
}
