package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/inbox/internal/core/auth"
	"github.com/colonyops/inbox/internal/core/config"
	"github.com/colonyops/inbox/internal/inbox"
	"github.com/colonyops/inbox/internal/integration/inboxapi"
	"github.com/colonyops/inbox/internal/printer"
)

// errNoUser is returned when neither --user nor a credential names the user.
var errNoUser = errors.New("no user: pass --user or a token that carries a subject")

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Server overrides server.base_url from the config file when set.
	Server string
	User   string
	Token  string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "inbox", "config.yaml")
}

// BaseURL returns the server the commands talk to.
func (f *Flags) BaseURL() string {
	if f.Server != "" {
		return f.Server
	}
	return f.Config.Server.BaseURL
}

// Identity resolves the user the commands act for. An explicit --user wins;
// otherwise the user is read from the token. An expired token is reported but
// still used, the server has the final word.
func (f *Flags) Identity(ctx context.Context) (inbox.Identity, error) {
	user := f.User

	if f.Token != "" {
		info, err := auth.Inspect(f.Token)
		switch {
		case err != nil && user == "":
			return inbox.Identity{}, fmt.Errorf("read user from token: %w", err)
		case err != nil:
			log.Debug().Err(err).Msg("token is not an inspectable jwt")
		default:
			if user == "" {
				user = info.UserID
			} else if info.UserID != user {
				log.Warn().
					Str("user", user).
					Str("token_user", info.UserID).
					Msg("token was issued for a different user")
			}
			if info.Expired(time.Now()) {
				printer.Ctx(ctx).Warnf("token expired at %s", info.ExpiresAt.Local().Format(time.RFC1123))
			}
		}
	}

	if user == "" {
		return inbox.Identity{}, errNoUser
	}

	return inbox.Identity{UserID: user, Credential: f.Token}, nil
}

// API builds the REST client for the configured server.
func (f *Flags) API() *inboxapi.Client {
	return inboxapi.New(f.BaseURL(), f.Token, f.Config.Server.RequestTimeout)
}
