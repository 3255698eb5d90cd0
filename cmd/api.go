package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/santacall/internal/analytics"
	"github.com/santacall/internal/api"
	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/calls"
	"github.com/santacall/internal/config"
	"github.com/santacall/internal/greeting"
	"github.com/santacall/internal/logging"
	"github.com/santacall/internal/tavus"
)

// APICommand returns the CLI command for starting the API server
func APICommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the Santa video call API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
			arcsFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			applyArcsFlag(c, cfg)

			if _, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
				return err
			}
			PrintConfigCheck(c.App.ErrWriter, CheckRequiredConfig(cfg))

			server, err := buildServer(cfg, version)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Starting santacall API server on port %d...\n", cfg.Server.Port)
			return server.Start()
		},
	}
}

// buildServer wires every component from cfg.
func buildServer(cfg *config.Config, version string) (*api.Server, error) {
	repo, err := loadArcs(cfg)
	if err != nil {
		return nil, err
	}

	picker, err := greeting.NewPicker(cfg.Greeting.Selection, cfg.Greeting.Seed)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid analytics timezone: %w", err)
	}
	store := analytics.NewStore(analytics.WithLocation(loc))

	client := tavus.NewClient(tavus.Options{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		PersonaID:   cfg.Provider.PersonaID,
		Timeout:     cfg.Provider.Timeout,
		PingTimeout: cfg.Provider.PingTimeout,
		RateLimit:   cfg.Provider.RateLimit,
		Burst:       cfg.Provider.Burst,
	})

	svc := calls.NewService(
		repo,
		greeting.NewSelector(repo.Buckets(), picker),
		client,
		store,
		calls.Settings{
			SupportedDurations:     cfg.Arcs.SupportedDurations,
			MinAge:                 cfg.Calls.MinAge,
			MaxAge:                 cfg.Calls.MaxAge,
			MaxNameLength:          cfg.Calls.MaxNameLength,
			ParticipantLeftTimeout: cfg.Provider.ParticipantLeftTimeout,
			EnableRecording:        cfg.Provider.EnableRecording,
		},
	)

	log.Info().
		Str("arcs_path", cfg.Arcs.Path).
		Strs("arcs", repo.Keys()).
		Int("age_buckets", len(repo.Buckets())).
		Str("greeting_selection", cfg.Greeting.Selection).
		Msg("Conversation arcs loaded")

	return api.NewServer(api.Options{
		Port:            cfg.Server.Port,
		Version:         version,
		CORSOrigins:     cfg.Server.CORSOrigins,
		BodyLimit:       cfg.Server.BodyLimit,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ProbeProvider:   cfg.Health.ProbeProvider,
		ProbeCacheTTL:   cfg.Health.ProbeCacheTTL,
	}, api.Deps{
		Calls:   svc,
		Arcs:    repo,
		Counter: store,
		Prober:  client,
	}), nil
}

// loadArcs loads the arc catalogue and checks every supported duration has an
// arc, so a broken file fails at startup rather than on the first call.
func loadArcs(cfg *config.Config) (*arcs.Repository, error) {
	repo, err := arcs.LoadRepository(cfg.Arcs.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation arcs: %w", err)
	}
	if err := repo.RequireDurations(cfg.Arcs.SupportedDurations); err != nil {
		return nil, fmt.Errorf("conversation arcs %s: %w", cfg.Arcs.Path, err)
	}
	return repo, nil
}

func arcsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "arcs",
		Aliases: []string{"a"},
		Usage:   "Load conversation arcs from `FILE` (overrides arcs.path)",
	}
}

func applyArcsFlag(c *cli.Context, cfg *config.Config) {
	if c.IsSet("arcs") {
		cfg.Arcs.Path = c.String("arcs")
	}
}
