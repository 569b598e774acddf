package infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

type authURLPresenter interface {
	ShowAuthURL(string)
}

type req struct {
	method, url string
	header      http.Header
	params      url.Values
}

func (r req) do(ctx context.Context, client *http.Client) (*http.Response, error) {
	parsed, err := url.Parse(r.url)
	if err != nil {
		return nil, err
	}
	if len(r.params) > 0 {
		parsed.RawQuery = r.params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return client.Do(httpReq)
}

type oauth2Req struct {
	src oauth2.TokenSource
	req
}

func (r oauth2Req) do(ctx context.Context) (*http.Response, error) {
	return r.req.do(ctx, oauth2.NewClient(ctx, r.src))
}

type withUserAgent struct {
	agent string
	base  http.RoundTripper
}

func (t *withUserAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cloned := r.Clone(r.Context())
	cloned.Header.Set("User-Agent", t.agent)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(cloned)
}

type oauth2Manager struct {
	cnf oauth2.Config
}

func (m oauth2Manager) authURL(state string, opts ...oauth2.AuthCodeOption) string {
	return m.cnf.AuthCodeURL(state, opts...)
}

func (m oauth2Manager) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := m.cnf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return tok, nil
}

// handleRedirect serves the redirect url until the provider redirects back with a code for state.
func (m oauth2Manager) handleRedirect(ctx context.Context, state string) (*oauth2.Token, error) {
	redirect, err := url.Parse(m.cnf.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect url: %w", err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	codeCh, errCh := make(chan string, 1), make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(pathOrRoot(redirect.Path), func(w http.ResponseWriter, r *http.Request) {
		code, err := ParseRedirect(r.URL.Query(), state)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errCh <- err:
			default:
			}
			return
		}

		fmt.Fprintln(w, "authorized: you can close this window")
		select {
		case codeCh <- code:
		default:
		}
	})
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case code := <-codeCh:
		return m.exchange(ctx, code)
	}
}

var ErrStateMismatch = errors.New("state mismatch")

// ParseRedirect returns the code of the redirect query the provider issued for state.
// A redirect is never accepted when no state is in flight.
func ParseRedirect(q url.Values, state string) (string, error) {
	if msg := q.Get("error"); msg != "" {
		return "", fmt.Errorf("authorization denied: %s", msg)
	}
	if state == "" || q.Get("state") != state {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("no code in redirect")
	}

	return code, nil
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}

	return p
}
