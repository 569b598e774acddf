package app

import (
	"context"
	"fmt"

	"github.com/tomocy/reddish/domain"
)

func NewFeedUsecase() *FeedUsecase {
	return new(FeedUsecase)
}

// FeedUsecase drives the pagination of a feed. The feed is left untouched when a fetch fails.
type FeedUsecase struct{}

func (u *FeedUsecase) Load(ctx context.Context, repo domain.PostRepo, feed *domain.Feed) error {
	p, err := u.fetchPage(ctx, repo, "")
	if err != nil {
		return err
	}

	feed.Reset(p)

	return nil
}

func (u *FeedUsecase) LoadMore(ctx context.Context, repo domain.PostRepo, feed *domain.Feed) error {
	if !feed.Loaded {
		return u.Load(ctx, repo, feed)
	}
	if feed.Exhausted {
		return nil
	}

	p, err := u.fetchPage(ctx, repo, feed.After)
	if err != nil {
		return err
	}

	feed.Extend(p)

	return nil
}

func (u *FeedUsecase) fetchPage(ctx context.Context, repo domain.PostRepo, after string) (*domain.Page, error) {
	p, err := repo.FetchPosts(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("failed to fetch posts: empty page")
	}

	return p, nil
}
