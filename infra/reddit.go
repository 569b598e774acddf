package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tomocy/reddish/config"
	"github.com/tomocy/reddish/domain"
	"github.com/tomocy/reddish/infra/reddit"
)

func NewReddit(cnf *config.Config, log *slog.Logger) *Reddit {
	authBase := strings.TrimSuffix(cnf.Reddit.BaseAuthURL, "/")
	return &Reddit{
		oauth: oauth2Manager{
			cnf: oauth2.Config{
				ClientID:     cnf.Reddit.ClientID,
				ClientSecret: cnf.Reddit.ClientSecret,
				RedirectURL:  cnf.Reddit.RedirectURL,
				Endpoint: oauth2.Endpoint{
					AuthURL:   authBase + "/api/v1/authorize.compact",
					TokenURL:  authBase + "/api/v1/access_token",
					AuthStyle: oauth2.AuthStyleInHeader,
				},
				Scopes: []string{
					"identity", "read",
				},
			},
		},
		apiBase: cnf.Reddit.BaseAPIURL,
		client: &http.Client{
			Transport: &withUserAgent{agent: cnf.App.UserAgent},
		},
		log: log,
	}
}

type Reddit struct {
	oauth   oauth2Manager
	apiBase string
	client  *http.Client
	log     *slog.Logger
}

func (r *Reddit) AuthCodeURL(state string) string {
	return r.oauth.authURL(state, oauth2.SetAuthURLParam("duration", "permanent"))
}

// Authorize exchanges the code of the redirect query issued for state.
func (r *Reddit) Authorize(ctx context.Context, q url.Values, state string) (*oauth2.Token, error) {
	code, err := ParseRedirect(q, state)
	if err != nil {
		return nil, err
	}

	return r.oauth.exchange(r.contextWithUserAgent(ctx), code)
}

// AuthorizeByRedirect shows the authorization url and waits for the provider to redirect back to the redirect url.
func (r *Reddit) AuthorizeByRedirect(ctx context.Context, presenter authURLPresenter) (*oauth2.Token, error) {
	state := uuid.NewString()
	presenter.ShowAuthURL(r.AuthCodeURL(state))

	return r.oauth.handleRedirect(r.contextWithUserAgent(ctx), state)
}

// PostRepo returns the repo of posts visible with tok. The token is refreshed when it expires.
func (r *Reddit) PostRepo(tok *oauth2.Token) domain.PostRepo {
	return &RedditPosts{
		reddit: r,
		src:    r.oauth.cnf.TokenSource(r.contextWithUserAgent(context.Background()), tok),
	}
}

func (r *Reddit) contextWithUserAgent(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.client)
}

func (r *Reddit) endpoint(ps ...string) string {
	parsed, _ := url.Parse(r.apiBase)
	ss := append([]string{parsed.Path}, ps...)
	parsed.Path = path.Join(ss...)
	return parsed.String()
}

type RedditPosts struct {
	reddit *Reddit
	src    oauth2.TokenSource
}

func (p *RedditPosts) FetchPosts(ctx context.Context, after string) (*domain.Page, error) {
	params := make(url.Values)
	if after != "" {
		params.Set("after", after)
	}

	var l *reddit.Listing
	if err := p.do(ctx, oauth2Req{
		src: p.src,
		req: req{method: http.MethodGet, url: p.reddit.endpoint("/new.json"), params: params},
	}, &l); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.New("failed to fetch posts: empty listing")
	}

	page := l.Adapt()
	p.reddit.log.Debug("fetched posts", "after", after, "count", len(page.Posts), "next", page.After)

	return page, nil
}

func (p *RedditPosts) do(ctx context.Context, r oauth2Req, dst interface{}) error {
	resp, err := r.do(p.reddit.contextWithUserAgent(ctx))
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if http.StatusBadRequest <= resp.StatusCode {
		return errors.New(resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode listing: %w", err)
	}

	return nil
}
