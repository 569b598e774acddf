package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/tomocy/caster"
	"golang.org/x/oauth2"

	"github.com/tomocy/reddish/app"
	"github.com/tomocy/reddish/config"
	"github.com/tomocy/reddish/domain"
)

// Authorizer runs the oauth authorization code flow and hands out repos bound to the obtained token.
type Authorizer interface {
	AuthCodeURL(state string) string
	Authorize(ctx context.Context, q url.Values, state string) (*oauth2.Token, error)
	PostRepo(tok *oauth2.Token) domain.PostRepo
}

func NewServer(cnf *config.Config, log *slog.Logger, auth Authorizer) (*Server, error) {
	c, err := newCaster(cnf.App.TemplateDir)
	if err != nil {
		return nil, err
	}

	return &Server{
		cnf:      cnf,
		log:      log,
		auth:     auth,
		usecase:  app.NewFeedUsecase(),
		sessions: newSessionStore(cnf.IsProduction(), cnf.App.SessionIdleTimeout),
		caster:   c,
	}, nil
}

type Server struct {
	cnf      *config.Config
	log      *slog.Logger
	auth     Authorizer
	usecase  *app.FeedUsecase
	sessions *sessionStore
	caster   caster.Caster
}

func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.cnf.App.Port)
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequest(s.log), secureHeaders, s.loadSession)

	r.HandleFunc("/healthz", s.checkHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.showLogin).Methods(http.MethodGet)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	r.HandleFunc(s.cnf.RedirectPath(), s.handleAuthorization).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	dashboard := r.PathPrefix("/dashboard").Subrouter()
	dashboard.Handle("", requireAuth(s.showDashboard)).Methods(http.MethodGet)
	dashboard.Handle("/refresh", requireAuth(s.refreshPosts)).Methods(http.MethodPost)
	dashboard.Handle("/more", requireAuth(s.loadMorePosts)).Methods(http.MethodPost)

	return r
}
