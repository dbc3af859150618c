// Package cli is the devtodo command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/app"
	"github.com/TOTORON9625/DevTodo/internal/credential"
	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/offline"
	"github.com/TOTORON9625/DevTodo/internal/report"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

// App carries the flags and lazily opened connections shared by every
// command.
type App struct {
	ConfigPath string

	// Sessions replaces the OS keyring when set.
	Sessions credential.SessionStore

	// Now is the report clock. Nil means time.Now.
	Now func() time.Time

	cfg    *model.AppConfig
	cache  *offline.SQLiteCache
	ctrl   *offline.Controller
	client *gateway.Client
}

// NewRootCmd builds the command tree. With no subcommand it starts the
// interactive UI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devtodo",
		Short:         "Task, project and idea tracker for developers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, a)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.loadConfig()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.Close()
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", model.DefaultConfigPath(), "Path to the config file")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newSignupCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newTasksCmd(a))
	cmd.AddCommand(newProjectsCmd(a))
	cmd.AddCommand(newTagsCmd(a))
	cmd.AddCommand(newIdeasCmd(a))
	cmd.AddCommand(newReportCmd(a))
	cmd.AddCommand(newCacheCmd(a))
	cmd.AddCommand(newUICmd(a))

	return cmd
}

// loadConfig reads .env, if present, and then the config file.
func (a *App) loadConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("devtodo: reading .env: %v", err)
	}

	cfg, err := model.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Close releases the offline cache database.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	a.cache = nil
	return err
}

// controller opens the offline cache and activates the current
// generation.
func (a *App) controller(ctx context.Context) (*offline.Controller, error) {
	if a.ctrl != nil {
		return a.ctrl, nil
	}

	cache, err := offline.NewSQLiteCache(a.cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	ctrl := offline.NewController(a.cfg.Cache, cache)
	purged, err := ctrl.Activate(ctx)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("activating cache %s: %w", a.cfg.Cache.Name, err)
	}
	for _, name := range purged {
		log.Printf("devtodo: purged cache generation %s", name)
	}

	a.cache = cache
	a.ctrl = ctrl
	return ctrl, nil
}

// httpClient returns a client whose requests pass through the offline
// cache.
func (a *App) httpClient(ctx context.Context) (*http.Client, error) {
	ctrl, err := a.controller(ctx)
	if err != nil {
		return nil, err
	}
	return offline.NewHTTPClient(ctrl, nil), nil
}

// gateway returns the API client with any persisted session restored.
func (a *App) gateway(ctx context.Context) (*gateway.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	hc, err := a.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	sessions := a.Sessions
	if sessions == nil {
		ks, err := credential.Open()
		if err != nil {
			return nil, err
		}
		sessions = ks
	}

	c := gateway.NewClient(a.cfg.Supabase, hc, sessions)
	if _, err := c.Restore(); err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// services wires the repositories and the report aggregator.
func (a *App) services(ctx context.Context) (app.Services, error) {
	c, err := a.gateway(ctx)
	if err != nil {
		return app.Services{}, err
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return app.Services{}, err
	}

	tasks := repository.NewTasks(c, a.Now)
	projects := repository.NewProjects(c)
	tags := repository.NewTags(c)
	return app.Services{
		Tasks:    tasks,
		Projects: projects,
		Tags:     tags,
		Ideas:    repository.NewIdeas(c, tasks),
		Reports: report.NewAggregator(c, projects, tags, report.Options{
			Now:      a.Now,
			Location: loc,
			Locale:   a.cfg.Report.Locale,
		}),
	}, nil
}
