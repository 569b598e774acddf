package web

import (
	"io"
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) checkHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok")
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	if sess, ok := sessionFrom(r.Context()); ok {
		sess.mu.Lock()
		authorized := sess.authorized()
		sess.mu.Unlock()
		if authorized {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
	}

	s.render(w, viewLogin, loginView{
		AuthURL: s.cnf.Reddit.BaseAuthURL,
		APIURL:  s.cnf.Reddit.BaseAPIURL,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.getOrStart(w, r)
	state := uuid.NewString()

	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()

	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleAuthorization(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		s.log.Warn("authorization redirect without session")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	tok, err := s.auth.Authorize(r.Context(), r.URL.Query(), sess.state)
	if err != nil {
		s.log.Error("failed to authorize", "session", sess.ID, "error", err)
		sess.state = ""
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	sess.authorize(s.auth.PostRepo(tok))
	if err := s.usecase.Load(r.Context(), sess.repo, &sess.feed); err != nil {
		s.log.Error("failed to load posts", "session", sess.ID, "error", err)
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) showDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	sess.mu.Lock()
	view := dashboardView{
		Posts:   sess.feed.Posts,
		HasMore: sess.feed.HasMore(),
	}
	sess.mu.Unlock()

	s.render(w, viewDashboard, view)
}

func (s *Server) refreshPosts(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	sess.mu.Lock()
	if err := s.usecase.Load(r.Context(), sess.repo, &sess.feed); err != nil {
		s.log.Error("failed to refresh posts", "session", sess.ID, "error", err)
	}
	sess.mu.Unlock()

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) loadMorePosts(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	sess.mu.Lock()
	if err := s.usecase.LoadMore(r.Context(), sess.repo, &sess.feed); err != nil {
		s.log.Error("failed to load more posts", "session", sess.ID, "after", sess.feed.After, "error", err)
	}
	sess.mu.Unlock()

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.drop(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
