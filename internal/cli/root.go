package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/example/flyder-sync-service/internal/app"
	"github.com/example/flyder-sync-service/internal/config"
	"github.com/example/flyder-sync-service/internal/domain"
	"github.com/example/flyder-sync-service/internal/logging"
	"github.com/example/flyder-sync-service/internal/usecase"
)

// RootOptions — глобальные флаги и фабрика зависимостей.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"

	// Open собирает зависимости команды; в тестах подменяется.
	Open func(ctx context.Context, opts *RootOptions) (*Services, error)
}

type MappingLister interface {
	Execute(ctx context.Context) ([]domain.FranchiseMapping, error)
}

type MappingWriter interface {
	Execute(ctx context.Context, m domain.FranchiseMapping) error
}

// Services — то, чем пользуются команды.
type Services struct {
	Sync         usecase.WindowSyncer
	Range        usecase.SyncRange
	List         MappingLister
	Set          MappingWriter
	DefaultLimit int
	Close        func() error
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openServices)
}

func newRootCommand(open func(ctx context.Context, opts *RootOptions) (*Services, error)) *cobra.Command {
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "flydersync",
		Short: "Historical Flyder to Repaart order sync",
		Long:  "Imports historical Flyder orders into Repaart documents: single windows, bulk ranges and franchise mappings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (env overrides apply)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBulkCommand(opts))
	cmd.AddCommand(NewMappingsCommand(opts))
	return cmd
}

func openServices(ctx context.Context, opts *RootOptions) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &Services{
		Sync:         a.Sync,
		Range:        a.Range,
		List:         a.ListMappings,
		Set:          a.UpsertMapping,
		DefaultLimit: cfg.Sync.DefaultLimit,
		Close: func() error {
			err := a.Close()
			_ = log.Sync()
			return err
		},
	}, nil
}

// withServices открывает зависимости, вызывает fn и закрывает их.
func withServices(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := opts.Open(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialise", err)
	}
	if s.Close != nil {
		defer s.Close()
	}
	return fn(ctx, s)
}
