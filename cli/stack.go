package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/petal-labs/modalmcp/command"
	"github.com/petal-labs/modalmcp/config"
	"github.com/petal-labs/modalmcp/dispatch"
	"github.com/petal-labs/modalmcp/journal"
	"github.com/petal-labs/modalmcp/modal"
	modalotel "github.com/petal-labs/modalmcp/otel"
	"github.com/petal-labs/modalmcp/server"
	"github.com/petal-labs/modalmcp/tool"
)

// stack is the assembled server: catalog, runner, dispatcher and the
// optional journal, plus everything that needs closing on shutdown.
type stack struct {
	catalog    *tool.Catalog
	dispatcher *dispatch.Dispatcher
	handler    http.Handler
	journal    *journal.Store
	pruner     *journal.Pruner
	providers  *modalotel.Providers
}

// stackOptions lets tests substitute the command executor.
type stackOptions struct {
	executor modal.Executor
}

func loadCatalog(path string) (*tool.Catalog, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return modal.Catalog()
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", clean, err)
	}
	return tool.LoadCatalog(data)
}

func buildStack(ctx context.Context, cfg config.Config, logger *slog.Logger, opts stackOptions) (_ *stack, err error) {
	s := &stack{}
	defer func() {
		if err != nil {
			s.close(context.Background())
		}
	}()

	if s.catalog, err = loadCatalog(cfg.Modal.Catalog); err != nil {
		return nil, err
	}

	s.providers, err = modalotel.NewProviders(ctx, modalotel.ProviderConfig{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	toolObserver, err := s.providers.ToolObserver()
	if err != nil {
		return nil, fmt.Errorf("initializing tool observability: %w", err)
	}

	observers := []tool.Observer{toolObserver}
	if cfg.Journal.Enabled {
		path := cfg.Journal.Path
		if strings.TrimSpace(path) == "" {
			if path, err = journal.DefaultPath(); err != nil {
				return nil, err
			}
		}
		if s.journal, err = journal.Open(journal.Config{DSN: path, Logger: logger}); err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		s.pruner, err = journal.NewPruner(journal.PrunerConfig{
			Store:     s.journal,
			Schedule:  cfg.Journal.PruneSchedule,
			Retention: cfg.Journal.Retention.Duration,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating journal pruner: %w", err)
		}
		observers = append(observers, s.journal)
	}
	observer := tool.MultiObserver(observers...)

	executor := opts.executor
	if executor == nil {
		executor = command.NewRunner(command.RunnerConfig{
			Binary:       cfg.Modal.Binary,
			Env:          cfg.Modal.Env,
			LaunchWindow: cfg.Modal.LaunchWindow.Duration,
			Logger:       logger,
			Observer:     observer,
		})
	}
	toolset := modal.NewToolset(modal.Config{
		Executor:     executor,
		DeployWithUV: cfg.Modal.DeployWithUV,
		Logger:       logger,
	})

	s.dispatcher, err = dispatch.New(dispatch.Config{
		Catalog:  s.catalog,
		Handlers: toolset.Handlers(),
		Logger:   logger,
		Observer: observer,
	})
	if err != nil {
		return nil, fmt.Errorf("binding catalog to handlers: %w", err)
	}

	s.handler = server.NewServer(server.ServerConfig{
		Dispatcher: s.dispatcher,
		CORSOrigin: cfg.Server.CORSOrigin,
		MaxBody:    cfg.Server.MaxBody,
		Logger:     logger,
	}).Handler()
	return s, nil
}

func (s *stack) start() {
	if s.pruner != nil {
		s.pruner.Start()
	}
}

func (s *stack) close(ctx context.Context) error {
	var errs []error
	if s.pruner != nil {
		s.pruner.Stop(ctx)
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if s.providers != nil {
		errs = append(errs, s.providers.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
