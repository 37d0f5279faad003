package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/slime/internal/domain-orchestrators"
	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/interfaces/repositories"
	ifservices "github.com/ochairo/slime/internal/domain/interfaces/services"
	"github.com/ochairo/slime/internal/domain/services"
	"github.com/ochairo/slime/internal/external-adapters/env"
	"github.com/ochairo/slime/internal/external-adapters/sqlite"
	"github.com/ochairo/slime/internal/external-adapters/validation"
)

type rootOptions struct {
	configPath string
	apiURL     string
	yes        bool
	offline    bool
	verbose    bool
}

// app is the console wired for one command invocation
type app struct {
	cfg       entities.ConsoleConfig
	logger    interfaces.Logger
	notifier  *services.TransientNotifier
	registry  *prometheus.Registry
	snapshots repositories.SnapshotRepository
	deps      orchestrators.Deps
	offline   bool

	findings  *orchestrators.FindingsOrchestrator
	projects  *orchestrators.ProjectsOrchestrator
	summaries *orchestrators.SummariesOrchestrator
}

func (a *app) setup(cmd *cobra.Command, opts *rootOptions) error {
	validator := validation.NewValidator()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	loader := env.NewLoader(wd, validator)
	if err := loader.LoadEnvFiles(); err != nil {
		return err
	}
	cfg, err := loader.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg
	a.offline = opts.offline

	a.logger = interfaces.NewSlogLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	a.notifier = services.NewNotifier(services.SystemClock{}, cfg.Notifications)
	a.registry = prometheus.NewRegistry()

	gateway, err := gateways.NewHTTPRemoteGateway(gateways.Options{
		BaseURL:                    cfg.API.BaseURL,
		Timeout:                    cfg.API.Timeout,
		MaxRetries:                 cfg.API.MaxRetries,
		AssistantRequestsPerMinute: cfg.API.AssistantRequestsPerMinute,
		Logger:                     a.logger,
		Registerer:                 a.registry,
	})
	if err != nil {
		return err
	}

	if cfg.Cache.Enabled {
		repo, err := sqlite.NewSnapshotRepository(cfg.Cache.Path)
		if err != nil {
			a.logger.Warn("local cache unavailable", interfaces.F("path", cfg.Cache.Path), interfaces.F("error", err))
		} else {
			a.snapshots = repo
		}
	}

	var confirmer ifservices.Confirmer = ifservices.AlwaysConfirm
	if !opts.yes {
		confirmer = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	a.deps = orchestrators.Deps{
		Gateway:             gateway,
		Notifier:            a.notifier,
		Confirmer:           confirmer,
		Validator:           validator,
		Logger:              a.logger,
		Snapshots:           a.snapshots,
		SuccessDuration:     cfg.Notifications.SuccessDuration,
		AssociationPageSize: cfg.Pages.Association,
	}
	a.findings = orchestrators.NewFindingsOrchestrator(a.deps)
	a.projects = orchestrators.NewProjectsOrchestrator(a.deps)
	a.summaries = orchestrators.NewSummariesOrchestrator(a.deps)
	return nil
}

// flush prints the queued notifications and clears the queue. It returns
// the set of printed messages.
func (a *app) flush(w io.Writer) map[string]bool {
	printed := make(map[string]bool)
	if a.notifier == nil {
		return printed
	}
	for _, n := range a.notifier.Entries() {
		fmt.Fprintln(w, renderNotification(n))
		printed[n.Message] = true
	}
	a.notifier.ClearAll()
	return printed
}

func (a *app) close() {
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			a.logger.Warn("failed to close local cache", interfaces.F("error", err))
		}
	}
}

func (a *app) requireOnline() error {
	if a.offline {
		return errs.Validation("Offline", "this command needs the backend; drop --offline")
	}
	return nil
}

// loadFindings refreshes the finding list, falling back to the cache when
// offline or when the backend is unreachable
func (a *app) loadFindings(ctx context.Context) error {
	if a.offline {
		_, err := a.findings.LoadCached(ctx)
		return err
	}
	_, err := a.findings.Refresh(ctx)
	if errs.Is(err, errs.KindNetworkFailure) && a.snapshots != nil {
		if _, cerr := a.findings.LoadCached(ctx); cerr == nil {
			a.dismissError(err)
			a.notifier.Warning("Backend unreachable, showing cached findings")
			return nil
		}
	}
	return err
}

func (a *app) loadProjects(ctx context.Context) error {
	if a.offline {
		_, err := a.projects.LoadCached(ctx)
		return err
	}
	_, err := a.projects.Refresh(ctx)
	if errs.Is(err, errs.KindNetworkFailure) && a.snapshots != nil {
		if _, cerr := a.projects.LoadCached(ctx); cerr == nil {
			a.dismissError(err)
			a.notifier.Warning("Backend unreachable, showing cached projects")
			return nil
		}
	}
	return err
}

// dismissError drops the queued error notification of err
func (a *app) dismissError(err error) {
	msg := errs.Message(err)
	for _, n := range a.notifier.Entries() {
		if n.Severity == entities.SeverityError && n.Message == msg {
			a.notifier.Dismiss(n.ID)
		}
	}
}

func promptConfirmer(in io.Reader, out io.Writer) ifservices.Confirmer {
	reader := bufio.NewReader(in)
	return ifservices.ConfirmerFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}
