package runner

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/buger/goterm"
	colorPkg "github.com/fatih/color"

	"github.com/tomocy/reddish/domain"
)

const defaultWidth = 80

var voteMarks = map[domain.Vote]string{
	domain.Upvoted:   "▲",
	domain.Downvoted: "▼",
	domain.NoVote:    "•",
}

type text struct {
	printed sync.Once
}

func (t *text) PrintPosts(w io.Writer, ps domain.Posts) {
	for _, p := range ps {
		t.printed.Do(func() {
			t.printVerticalLine(w)
		})
		t.printPost(w, p)
		t.printVerticalLine(w)
	}
}

func (t *text) printVerticalLine(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", terminalWidth()))
}

func (t *text) printPost(w io.Writer, p *domain.Post) {
	fmt.Fprintf(w, "%s %d r/%s u/%s\n", voteMarks[p.Likes], p.Score, p.Subreddit, p.Author)
	fmt.Fprintf(w, "%s\n%d comments\n", p.Title, p.NumComments)
}

var (
	voteColors = map[domain.Vote]*colorPkg.Color{
		domain.Upvoted:   colorPkg.New(colorPkg.FgYellow),
		domain.Downvoted: colorPkg.New(colorPkg.FgBlue),
	}
)

type color struct {
	printed, inited sync.Once
	white, red      *colorPkg.Color
}

func (c *color) PrintPosts(w io.Writer, ps domain.Posts) {
	for _, p := range ps {
		c.printed.Do(func() {
			c.printVerticalLine(w)
		})
		c.printPost(w, p)
		c.printVerticalLine(w)
	}
}

func (c *color) printVerticalLine(w io.Writer) {
	c.inited.Do(c.init)
	c.white.Fprintln(w, strings.Repeat("-", terminalWidth()))
}

func (c *color) printPost(w io.Writer, p *domain.Post) {
	c.inited.Do(c.init)
	voteCol, ok := voteColors[p.Likes]
	if !ok {
		voteCol = c.white
	}
	voteCol.Fprintf(w, "%s %d", voteMarks[p.Likes], p.Score)
	c.white.Fprint(w, " ")
	c.red.Fprintf(w, "r/%s", p.Subreddit)
	c.white.Fprintf(w, " u/%s\n%s\n%d comments\n", p.Author, p.Title, p.NumComments)
}

func (c *color) init() {
	c.white = colorPkg.New(colorPkg.FgWhite)
	c.red = colorPkg.New(colorPkg.FgRed)
}

func terminalWidth() int {
	if width := goterm.Width(); 0 < width {
		return width
	}

	return defaultWidth
}
