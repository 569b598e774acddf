package domain

type Posts []*Post

type Post struct {
	ID          string
	Title       string
	NumComments int
	Author      string
	Subreddit   string
	Score       int
	Likes       Vote
}

// Vote is the like state of the authorized user on a post.
type Vote int

const (
	NoVote Vote = iota
	Upvoted
	Downvoted
)

func (v Vote) IsUp() bool {
	return v == Upvoted
}

func (v Vote) IsDown() bool {
	return v == Downvoted
}

func (v Vote) String() string {
	switch v {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "none"
	}
}

// Page is one listing fetched from the feed. After is empty when the listing has no next page.
type Page struct {
	Posts Posts
	After string
}

// Feed is the dashboard state of a single session.
// Posts and After are always replaced together.
type Feed struct {
	Posts     Posts
	After     string
	Loaded    bool
	Exhausted bool
}

func (f *Feed) Reset(p *Page) {
	f.Posts = append(Posts{}, p.Posts...)
	f.replaceCursor(p.After)
}

func (f *Feed) Extend(p *Page) {
	f.Posts = append(f.Posts, p.Posts...)
	f.replaceCursor(p.After)
}

func (f *Feed) replaceCursor(after string) {
	f.After = after
	f.Loaded = true
	f.Exhausted = after == ""
}

func (f *Feed) HasMore() bool {
	return f.Loaded && !f.Exhausted
}
