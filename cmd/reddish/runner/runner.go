package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomocy/reddish/app"
	"github.com/tomocy/reddish/config"
	"github.com/tomocy/reddish/domain"
	"github.com/tomocy/reddish/infra"
	"github.com/tomocy/reddish/logger"
)

var version = "dev"

type Runner interface {
	Run() error
}

func New() Runner {
	return &command{
		root: newRootCommand(),
	}
}

type command struct {
	root *cobra.Command
}

func (c *command) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "reddish",
		Short:         "Browse the newest reddit posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(newServeCommand(), newFeedCommand(), newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reddish %s\n", version)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	files, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return nil, err
	}

	return config.Load(files...)
}

func newLogger(cnf *config.Config) (*slog.Logger, error) {
	return logger.New(logger.Opts{
		Env:       cnf.App.Env,
		SentryDSN: cnf.App.SentryDSN,
	})
}

type feedCommand struct {
	pages int
	color bool
	open  bool
}

func newFeedCommand() *cobra.Command {
	f := new(feedCommand)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Authorize in the browser and print the newest posts",
		Args:  cobra.NoArgs,
		RunE:  f.run,
	}
	cmd.Flags().IntVar(&f.pages, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&f.color, "color", false, "print posts in color")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the authorization url in the browser")

	return cmd
}

func (f *feedCommand) run(cmd *cobra.Command, _ []string) error {
	if f.pages <= 0 {
		return fmt.Errorf("invalid pages: %d", f.pages)
	}

	cnf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cnf)
	if err != nil {
		return err
	}
	defer logger.Flush()

	presenter := newCLI(cmd.OutOrStdout(), f.printer(), f.open)
	reddit := infra.NewReddit(cnf, log)
	tok, err := reddit.AuthorizeByRedirect(cmd.Context(), presenter)
	if err != nil {
		return fmt.Errorf("failed to authorize: %w", err)
	}

	feed, err := f.fetchFeed(cmd.Context(), reddit.PostRepo(tok))
	if err != nil {
		return err
	}
	presenter.ShowPosts(feed.Posts)

	return nil
}

func (f *feedCommand) fetchFeed(ctx context.Context, repo domain.PostRepo) (*domain.Feed, error) {
	u := app.NewFeedUsecase()
	feed := new(domain.Feed)
	for i := 0; i < f.pages; i++ {
		if i > 0 && !feed.HasMore() {
			break
		}
		if err := u.LoadMore(ctx, repo, feed); err != nil {
			return nil, err
		}
	}

	return feed, nil
}

func (f *feedCommand) printer() printer {
	if f.color {
		return new(color)
	}

	return new(text)
}

type printer interface {
	PrintPosts(io.Writer, domain.Posts)
}
