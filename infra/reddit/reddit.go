package reddit

import (
	"github.com/tomocy/reddish/domain"
)

// Listing is the envelope reddit wraps pages of things in.
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

type ListingData struct {
	After    *string  `json:"after"`
	Before   *string  `json:"before"`
	Children []*Thing `json:"children"`
}

type Thing struct {
	Kind string `json:"kind"`
	Data *Post  `json:"data"`
}

func (l *Listing) Adapt() *domain.Page {
	adapted := &domain.Page{
		Posts: make(domain.Posts, len(l.Data.Children)),
	}
	if l.Data.After != nil {
		adapted.After = *l.Data.After
	}
	for i, c := range l.Data.Children {
		if c == nil || c.Data == nil {
			adapted.Posts[i] = new(Post).Adapt()
			continue
		}
		adapted.Posts[i] = c.Data.Adapt()
	}

	return adapted
}

// Post holds the fields of a link the feed shows. A field absent from the payload stays nil.
type Post struct {
	Name        string  `json:"name"`
	Title       *string `json:"title"`
	NumComments *int    `json:"num_comments"`
	Author      *string `json:"author"`
	Subreddit   *string `json:"subreddit"`
	Score       *int    `json:"score"`
	Likes       *bool   `json:"likes"`
}

func (p *Post) Adapt() *domain.Post {
	return &domain.Post{
		ID:          p.Name,
		Title:       stringOrZero(p.Title),
		NumComments: intOrZero(p.NumComments),
		Author:      stringOrZero(p.Author),
		Subreddit:   stringOrZero(p.Subreddit),
		Score:       intOrZero(p.Score),
		Likes:       p.vote(),
	}
}

func (p *Post) vote() domain.Vote {
	switch {
	case p.Likes == nil:
		return domain.NoVote
	case *p.Likes:
		return domain.Upvoted
	default:
		return domain.Downvoted
	}
}

func stringOrZero(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}

	return *n
}
