package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"github.com/tomocy/reddish/config"
	"github.com/tomocy/reddish/domain"
	"github.com/tomocy/reddish/infra"
)

func TestLoginFlow(t *testing.T) {
	repo := &fakeRepo{
		pages: map[string]*domain.Page{
			"": {Posts: domain.Posts{
				{ID: "t3_1", Title: "first post", NumComments: 4, Author: "alice", Subreddit: "golang", Score: 10, Likes: domain.Upvoted},
				{ID: "t3_2", Title: "second post", Author: "bob", Subreddit: "rust", Score: -2, Likes: domain.Downvoted},
			}, After: "t3_2"},
			"t3_2": {Posts: domain.Posts{
				{ID: "t3_3", Title: "third post", Author: "carol", Subreddit: "golang"},
			}},
		},
	}
	c := newTestClient(t, repo)

	body := c.expect(http.MethodGet, "/", http.StatusOK)
	assertContains(t, body, "Login", "https://auth.example.com", "https://api.example.com")

	state := c.login()
	resp := c.do(http.MethodGet, "/oauth/redirect?code=code-1&state="+url.QueryEscape(state))
	assertRedirect(t, resp, "/dashboard")

	body = c.expect(http.MethodGet, "/dashboard", http.StatusOK)
	assertContains(t, body, "Home", "first post", "4 comments", "alice", "golang", "second post", "Load More")
	assertNotContains(t, body, "third post")

	assertRedirect(t, c.do(http.MethodGet, "/"), "/dashboard")

	assertRedirect(t, c.do(http.MethodPost, "/dashboard/more"), "/dashboard")
	body = c.expect(http.MethodGet, "/dashboard", http.StatusOK)
	assertContains(t, body, "first post", "second post", "third post")
	assertNotContains(t, body, "Load More")

	assertRedirect(t, c.do(http.MethodPost, "/dashboard/refresh"), "/dashboard")
	body = c.expect(http.MethodGet, "/dashboard", http.StatusOK)
	assertContains(t, body, "first post", "Load More")
	assertNotContains(t, body, "third post")

	if expected := []string{"", "t3_2", ""}; fmt.Sprint(repo.calls) != fmt.Sprint(expected) {
		t.Errorf("unexpected fetches: got %q, expect %q", repo.calls, expected)
	}

	assertRedirect(t, c.do(http.MethodPost, "/logout"), "/")
	assertRedirect(t, c.do(http.MethodGet, "/dashboard"), "/")
}

func TestAuthorizationFailure(t *testing.T) {
	tests := map[string]func(state string) string{
		"state mismatch": func(string) string {
			return "/oauth/redirect?code=code-1&state=forged"
		},
		"denied by user": func(state string) string {
			return "/oauth/redirect?error=access_denied&state=" + url.QueryEscape(state)
		},
	}

	for name, redirect := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, &fakeRepo{})
			state := c.login()

			assertRedirect(t, c.do(http.MethodGet, redirect(state)), "/")
			assertRedirect(t, c.do(http.MethodGet, "/dashboard"), "/")
		})
	}
}

func TestForgedAuthorizationIsNotExchanged(t *testing.T) {
	var (
		mu        sync.Mutex
		exchanged []string
	)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/access_token":
			r.ParseForm()
			mu.Lock()
			exchanged = append(exchanged, r.PostForm.Get("code"))
			mu.Unlock()
			io.WriteString(w, `{"access_token": "token-1", "token_type": "bearer"}`)
		case "/new.json":
			io.WriteString(w, `{"data": {"after": null, "children": [{"data": {"name": "t3_1", "title": "own post"}}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	tests := map[string]func(*testClient){
		"after denied authorization": func(c *testClient) {
			state := c.login()
			assertRedirect(c.t, c.do(http.MethodGet, "/oauth/redirect?error=access_denied&state="+url.QueryEscape(state)), "/")
		},
		"after succeeded authorization": func(c *testClient) {
			state := c.login()
			assertRedirect(c.t, c.do(http.MethodGet, "/oauth/redirect?code=own-code&state="+url.QueryEscape(state)), "/dashboard")
		},
	}

	for name, prepare := range tests {
		t.Run(name, func(t *testing.T) {
			mu.Lock()
			exchanged = nil
			mu.Unlock()
			cnf := newTestConfig(provider.URL, provider.URL)
			c := newTestClientWith(t, cnf, infra.NewReddit(cnf, discard()))
			prepare(c)
			mu.Lock()
			before := len(exchanged)
			mu.Unlock()

			assertRedirect(t, c.do(http.MethodGet, "/oauth/redirect?code=forged-code"), "/")
			mu.Lock()
			defer mu.Unlock()
			for _, code := range exchanged[before:] {
				t.Errorf("unexpected exchange of code %s", code)
			}
		})
	}
}

func TestAuthorizationWithoutSession(t *testing.T) {
	c := newTestClient(t, &fakeRepo{})
	assertRedirect(t, c.do(http.MethodGet, "/oauth/redirect?code=code-1&state=any"), "/")
}

func TestFetchFailureKeepsStalePosts(t *testing.T) {
	repo := &fakeRepo{
		pages: map[string]*domain.Page{
			"": {Posts: domain.Posts{{ID: "t3_1", Title: "stale post"}}, After: "t3_1"},
		},
	}
	c := newTestClient(t, repo)
	state := c.login()
	assertRedirect(t, c.do(http.MethodGet, "/oauth/redirect?code=code-1&state="+url.QueryEscape(state)), "/dashboard")

	repo.err = errors.New("503 Service Unavailable")
	for _, path := range []string{"/dashboard/refresh", "/dashboard/more"} {
		assertRedirect(t, c.do(http.MethodPost, path), "/dashboard")
		body := c.expect(http.MethodGet, "/dashboard", http.StatusOK)
		assertContains(t, body, "stale post", "Load More")
	}
}

func TestUnauthorizedDashboard(t *testing.T) {
	c := newTestClient(t, &fakeRepo{})
	for _, path := range []string{"/dashboard/refresh", "/dashboard/more"} {
		assertRedirect(t, c.do(http.MethodPost, path), "/")
	}
	assertRedirect(t, c.do(http.MethodGet, "/dashboard"), "/")
}

func TestHealthz(t *testing.T) {
	c := newTestClient(t, &fakeRepo{})
	if body := c.expect(http.MethodGet, "/healthz", http.StatusOK); body != "ok" {
		t.Errorf("unexpected body of /healthz: got %q, expect %q", body, "ok")
	}
}

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, repo domain.PostRepo) *testClient {
	t.Helper()
	cnf := newTestConfig("https://auth.example.com", "https://api.example.com")
	return newTestClientWith(t, cnf, &fakeAuthorizer{repo: repo})
}

func newTestConfig(authBase, apiBase string) *config.Config {
	cnf := new(config.Config)
	cnf.App.Port = 8550
	cnf.App.TemplateDir = "../resource/view"
	cnf.App.UserAgent = "test-agent"
	cnf.Reddit.ClientID = "id"
	cnf.Reddit.ClientSecret = "secret"
	cnf.Reddit.BaseAuthURL = authBase
	cnf.Reddit.BaseAPIURL = apiBase
	cnf.Reddit.RedirectURL = "http://localhost:8550/oauth/redirect"

	return cnf
}

func newTestClientWith(t *testing.T, cnf *config.Config, auth Authorizer) *testClient {
	t.Helper()
	s, err := NewServer(cnf, discard(), auth)
	if err != nil {
		t.Fatalf("unexpected error by NewServer: got %s, expect <nil>", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	return &testClient{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// login starts the flow and returns the state the provider would echo back.
func (c *testClient) login() string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/login")
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("unexpected status of /login: got %d, expect %d", resp.StatusCode, http.StatusFound)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		c.t.Fatalf("unexpected error by parsing location: got %s, expect <nil>", err)
	}

	return loc.Query().Get("state")
}

func (c *testClient) do(method, path string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, nil)
	if err != nil {
		c.t.Fatal(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("unexpected error by requesting %s %s: got %s, expect <nil>", method, path, err)
	}
	resp.Body.Close()

	return resp
}

func (c *testClient) expect(method, path string, status int) string {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, nil)
	if err != nil {
		c.t.Fatal(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("unexpected error by requesting %s %s: got %s, expect <nil>", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != status {
		c.t.Fatalf("unexpected status of %s %s: got %d, expect %d", method, path, resp.StatusCode, status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatal(err)
	}

	return string(body)
}

func assertRedirect(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusSeeOther {
		t.Errorf("unexpected status of %s: got %d, expect redirect", resp.Request.URL.Path, resp.StatusCode)
		return
	}
	if loc := resp.Header.Get("Location"); loc != expected {
		t.Errorf("unexpected location of %s: got %s, expect %s", resp.Request.URL.Path, loc, expected)
	}
}

func assertContains(t *testing.T, body string, expecteds ...string) {
	t.Helper()
	for _, expected := range expecteds {
		if !strings.Contains(body, expected) {
			t.Errorf("unexpected body: %q is missing", expected)
		}
	}
}

func assertNotContains(t *testing.T, body string, unexpecteds ...string) {
	t.Helper()
	for _, unexpected := range unexpecteds {
		if strings.Contains(body, unexpected) {
			t.Errorf("unexpected body: %q is present", unexpected)
		}
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuthorizer struct {
	repo domain.PostRepo
}

func (a *fakeAuthorizer) AuthCodeURL(state string) string {
	return "https://auth.example.com/api/v1/authorize.compact?state=" + url.QueryEscape(state)
}

func (a *fakeAuthorizer) Authorize(_ context.Context, q url.Values, state string) (*oauth2.Token, error) {
	code, err := infra.ParseRedirect(q, state)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{AccessToken: "token-" + code}, nil
}

func (a *fakeAuthorizer) PostRepo(*oauth2.Token) domain.PostRepo {
	return a.repo
}

type fakeRepo struct {
	pages map[string]*domain.Page
	err   error
	calls []string
}

func (r *fakeRepo) FetchPosts(_ context.Context, after string) (*domain.Page, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, after)
	p, ok := r.pages[after]
	if !ok {
		return nil, fmt.Errorf("unknown page: %s", after)
	}

	return p, nil
}
