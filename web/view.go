package web

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/tomocy/caster"

	"github.com/tomocy/reddish/domain"
)

const (
	viewLogin     = "login"
	viewDashboard = "dashboard"
)

func newCaster(dir string) (caster.Caster, error) {
	c, err := caster.New(&caster.TemplateSet{
		Filenames: []string{filepath.Join(dir, "master.html")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse master template: %w", err)
	}

	for _, key := range []string{viewLogin, viewDashboard} {
		if err := c.Extend(key, &caster.TemplateSet{
			Filenames: []string{filepath.Join(dir, key+".html")},
		}); err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", key, err)
		}
	}

	return c, nil
}

type loginView struct {
	AuthURL string
	APIURL  string
}

type dashboardView struct {
	Posts   domain.Posts
	HasMore bool
}

func (s *Server) render(w http.ResponseWriter, key string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.caster.Cast(w, key, data); err != nil {
		s.log.Error("failed to render view", "view", key, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
