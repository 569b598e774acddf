package domain

import "context"

//go:generate mockgen -source=repo.go -destination=mock/repo.go -package=mock

type PostRepo interface {
	FetchPosts(ctx context.Context, after string) (*Page, error)
}
