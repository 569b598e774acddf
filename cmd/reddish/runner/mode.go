package runner

import (
	"fmt"
	"io"

	"github.com/pkg/browser"

	"github.com/tomocy/reddish/domain"
)

func newCLI(w io.Writer, p printer, open bool) *cli {
	return &cli{
		w:       w,
		printer: p,
		open:    open,
	}
}

type cli struct {
	w       io.Writer
	printer printer
	open    bool
}

func (c *cli) ShowAuthURL(url string) {
	fmt.Fprintf(c.w, "open this url: %s\n", url)
	if !c.open {
		return
	}
	if err := browser.OpenURL(url); err != nil {
		fmt.Fprintf(c.w, "failed to open browser: %s\n", err)
	}
}

func (c *cli) ShowPosts(ps domain.Posts) {
	c.printer.PrintPosts(c.w, ps)
}
