package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	_ "github.com/ruslano69/dbcodec/pkg/adapters/mysql"
	_ "github.com/ruslano69/dbcodec/pkg/adapters/postgres"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

func main() {
	flags := ParseFlags()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *flags.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Handle version
	if *flags.Version {
		PrintVersion()
		return
	}

	// Handle help
	if *flags.Help {
		PrintHelp()
		return
	}

	// Handle config creation
	if *flags.CreateConfigPG {
		createConfigTemplate("postgres")
		return
	}
	if *flags.CreateConfigMySQL {
		createConfigTemplate("mysql")
		return
	}

	// Runtime toggles: environment, then config, then -set
	tbl := toggles.New(toggles.LoadEnv(os.LookupEnv))

	if *flags.Toggles && *flags.Query == "" && !*flags.Probe {
		applyToggles(tbl, nil, flags)
		if err := printToggles(os.Stdout, tbl.Get, toggles.Names()); err != nil {
			log.Fatal().Err(err).Msg("Failed to print toggles")
		}
		return
	}

	config, err := LoadConfig(*flags.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applyToggles(tbl, config.Toggles, flags)

	if *flags.Toggles {
		if err := printToggles(os.Stdout, tbl.Get, toggles.Names()); err != nil {
			log.Fatal().Err(err).Msg("Failed to print toggles")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := adapters.Open(ctx, adapters.Config{
		Type:    config.Database.Type,
		DSN:     config.Database.BuildDSN(),
		Schema:  config.Database.Schema,
		Timeout: config.Database.Timeout,
		Toggles: tbl,
		Logger:  &log.Logger,
		Retry:   config.Retry,
	})
	if err != nil {
		log.Fatal().Err(err).Str("type", config.Database.Type).Msg("Failed to connect")
	}
	defer state.Close(context.Background())

	log.Debug().
		Str("dialect", state.Dialect.Name()).
		Bool("quirks_applied", state.QuirksApplied()).
		Msg("Connected")

	switch {
	case *flags.Probe:
		code := runProbe(ctx, state, config, flags)
		state.Close(context.Background())
		os.Exit(code)

	case *flags.Query != "":
		rows, err := runQuery(ctx, state, *flags.Query, flags.Args, flags.ColumnTypes(), os.Stdout)
		if err != nil {
			state.Close(context.Background())
			log.Fatal().Err(err).Msg("Query failed")
		}
		log.Debug().Int("rows", rows).Msg("Query finished")

	case !*flags.Toggles:
		fmt.Fprintln(os.Stderr, "No command specified. Use --help for usage information.")
		state.Close(context.Background())
		os.Exit(2)
	}
}

func applyToggles(tbl *toggles.Table, fromConfig map[string]any, flags *Flags) {
	if err := tbl.Apply(fromConfig); err != nil {
		log.Fatal().Err(err).Msg("Invalid toggles in config")
	}
	if err := tbl.Apply(flags.Set.Values()); err != nil {
		log.Fatal().Err(err).Msg("Invalid -set toggle")
	}
}

// runProbe возвращает код выхода: 0 - соединение живо, 1 - нет
func runProbe(ctx context.Context, state *adapters.ConnectionState, config *Config, flags *Flags) int {
	probeSQL := config.Probe.SQL
	if *flags.ProbeSQL != "" {
		probeSQL = *flags.ProbeSQL
	}
	timeout := config.Probe.Timeout
	if *flags.Timeout > 0 {
		timeout = *flags.Timeout
	}

	start := time.Now()
	alive, err := state.IsAlive(ctx, probeSQL, timeout)
	if err != nil {
		log.Error().Err(err).Msg("Probe failed")
		return 1
	}

	log.Info().
		Bool("alive", alive).
		Str("probe_sql", probeSQL).
		Dur("elapsed", time.Since(start)).
		Msg("Probe finished")
	if !alive {
		return 1
	}
	return 0
}

func createConfigTemplate(dbType string) {
	filename := fmt.Sprintf("config.%s.yaml", dbType)
	if err := SaveConfig(filename, CreateSampleConfig(dbType)); err != nil {
		log.Fatal().Err(err).Msg("Failed to create config")
	}
	fmt.Printf("✓ Created sample config: %s\n", filename)
	fmt.Println("  Edit the file and run: dbcodec --config " + filename + " --probe")
}
