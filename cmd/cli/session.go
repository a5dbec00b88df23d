package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/config"
	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/log/sinks"
	"github.com/arnavsurve/ideflow/pkg/security"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	// Ensure all adapter implementations are registered
	_ "github.com/arnavsurve/ideflow/pkg/adapter/adapters"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config  string `help:"Path to the ideflow configuration file (defaults to ./ideflow.yml when present)." short:"c" type:"path"`
	EnvFile string `help:"Dotenv file loaded before the configuration." default:".env" name:"env-file"`
}

// session holds what a command needs once configuration and logging are up.
type session struct {
	cfg     *config.Config
	logger  types.Logger
	router  *log.Router
	runID   string
	logFile string
}

// newSession loads .env and configuration and wires the log router. With
// persist set, events are also written to <log_dir>/<run-id>.json.
func newSession(g *Globals, persist bool) (*session, error) {
	envErr := godotenv.Load(g.EnvFile)

	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, runID: uuid.New().String()}
	s.router = log.NewRouter(sinks.NewConsoleSink())
	s.router.Redactor = security.NewRedactor(security.SecretsFromEnv(cfg.RedactEnv)...)

	if persist {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs directory %q: %w", cfg.LogDir, err)
		}
		s.logFile = filepath.Join(cfg.LogDir, fmt.Sprintf("%s.json", s.runID))
		fileSink, err := sinks.NewFileSink(s.logFile)
		if err != nil {
			return nil, fmt.Errorf("creating file log sink: %w", err)
		}
		s.router.AddSink(fileSink)
	}

	s.logger = log.New(s.router, cfg.LogLevel)
	if envErr != nil {
		s.logger.Debug().Err(envErr).Msgf("No %s file loaded. Relying on existing ENV for {{ env.* }} values", g.EnvFile)
	}
	if s.logFile != "" {
		s.logger.Info().Str("run_id", s.runID).Msgf("Logs will be saved to %q", s.logFile)
	}
	return s, nil
}

func (s *session) Close() {
	if err := s.router.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during log shutdown: %v\n", err)
	}
}

// registry builds every registered adapter with paths resolved against workDir.
func (s *session) registry(workDir string) (*adapter.Registry, error) {
	reg, err := adapter.NewRegistryFromFactories(s.cfg.AdapterSettings(workDir), s.logger)
	if err != nil {
		return nil, fmt.Errorf("building adapter registry: %w", err)
	}
	s.logger.Debug().Interface("systems", reg.Names()).Msg("Adapters registered")
	return reg, nil
}

// catalog loads the configured operation catalog. No catalog_file means no
// catalog, which is returned as a nil interface.
func (s *session) catalog() (core.Catalog, error) {
	if s.cfg.CatalogFile == "" {
		return nil, nil
	}
	cat, err := core.LoadCatalog(s.cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("operations", len(cat.Names())).Msgf("Loaded operation catalog %q", s.cfg.CatalogFile)
	return cat, nil
}

// interruptContext is cancelled on SIGINT so runs stop between steps and
// retry delays end early.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
