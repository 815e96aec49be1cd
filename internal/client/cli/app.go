// Package cli implements the interactive myLIST client: a small REPL
// over the session manager, the metadata clients and the recommendation
// engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/edavydenko/mylist/internal/client/api"
	"github.com/edavydenko/mylist/internal/client/config"
	"github.com/edavydenko/mylist/internal/client/connectivity"
	"github.com/edavydenko/mylist/internal/client/metadata"
	"github.com/edavydenko/mylist/internal/client/recommend"
	"github.com/edavydenko/mylist/internal/client/session"
	"github.com/edavydenko/mylist/internal/client/store"
	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/models"
)

// sessions is the slice of *session.Session the CLI uses; commands are
// written against it so tests can install a stub.
type sessions interface {
	Login(ctx context.Context, usernameInput string) (*session.LoginResult, error)
	Register(ctx context.Context, usernameInput string) (*session.LoginResult, error)
	Logout(ctx context.Context) error
	UpdateLists(ctx context.Context, lists models.Lists) (*session.SaveResult, error)
	Refresh(ctx context.Context) (*models.UserRecord, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Resume(ctx context.Context) (*models.UserRecord, error)
	Current() *models.UserRecord
	Mode() session.Mode
}

type App struct {
	config  *config.Config
	session sessions
	omdb    *metadata.OMDBClient
	tmdb    *metadata.TMDBClient
	engine  *recommend.Engine

	store  *store.BadgerStore
	client api.Client

	reader *bufio.Reader
	out    io.Writer

	// Last search results, referenced by the watch command.
	lastSearch []metadata.SearchResult
}

func NewApp(c *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	st, err := store.Open(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error initializing local store: %w", err)
	}

	apiClient := api.NewHTTPClient(c.ServerEndpointURL)
	policy := connectivity.NewProbePolicy(apiClient, c.OnlineCheckInterval)
	sess := session.New(st, apiClient, policy, log)

	omdb := metadata.NewOMDBClient(c.OMDBAPIKey)

	return &App{
		config:  c,
		session: sess,
		omdb:    omdb,
		tmdb:    metadata.NewTMDBClient(c.TMDBAPIKey),
		engine:  recommend.NewEngine(omdb, log),
		store:   st,
		client:  apiClient,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Current() != nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()

	// Pick up the previous session, if one was left logged in.
	if rec, err := a.session.Resume(ctx); err == nil && rec != nil {
		a.printf("Resumed session for %s (offline until you log in again)", rec.Username)
	}

	a.Root(ctx)
}

func (a *App) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
