package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Env         string `env:"APP_ENV" env-default:"development" env-description:"development or production"`
		Port        int    `env:"PORT_NO" env-default:"8550" env-description:"port the web client listens on"`
		UserAgent   string `env:"USER_AGENT" env-default:"web:reddish:v0.1.0" env-description:"User-Agent sent to reddit"`
		TemplateDir string `env:"TEMPLATE_DIR" env-default:"resource/view" env-description:"directory of html templates"`
		SentryDSN   string `env:"SENTRY_DSN" env-description:"optional sentry dsn errors are reported to"`

		SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" env-default:"24h" env-description:"idle time after which a browser session is dropped"`
	}
	Reddit struct {
		ClientID     string `env:"CLIENT_ID" env-required:"true" env-description:"oauth client id"`
		ClientSecret string `env:"CLIENT_SECRET" env-required:"true" env-description:"oauth client secret"`
		BaseAuthURL  string `env:"BASE_AUTH_URL" env-default:"https://www.reddit.com" env-description:"base url of the oauth endpoints"`
		RedirectURL  string `env:"REDIRECT_URL" env-required:"true" env-description:"oauth redirect url registered for the client"`
		BaseAPIURL   string `env:"BASE_API_URL" env-default:"https://oauth.reddit.com" env-description:"base url of the rest api"`
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// RedirectPath is the path of RedirectURL the oauth callback is served on.
func (c *Config) RedirectPath() string {
	parsed, err := url.Parse(c.Reddit.RedirectURL)
	if err != nil {
		return ""
	}

	return parsed.Path
}

// Load reads the given dotenv files (.env by default) into the environment and binds it.
// Files that do not exist are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) <= 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cnf := new(Config)
	if err := cleanenv.ReadEnv(cnf); err != nil {
		help, _ := cleanenv.GetDescription(cnf, nil)
		return nil, fmt.Errorf("failed to read configuration: %w\n%s", err, help)
	}
	if err := cnf.validate(); err != nil {
		return nil, err
	}

	return cnf, nil
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"BASE_AUTH_URL": c.Reddit.BaseAuthURL,
		"BASE_API_URL":  c.Reddit.BaseAPIURL,
		"REDIRECT_URL":  c.Reddit.RedirectURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid %s: scheme must be http or https, got %q", name, u.Scheme)
		}
	}
	if path := c.RedirectPath(); path == "" || path == "/" {
		return errors.New("invalid REDIRECT_URL: the callback needs a path other than /")
	}
	if c.App.Port <= 0 || 65535 < c.App.Port {
		return fmt.Errorf("invalid PORT_NO: %d", c.App.Port)
	}

	return nil
}
