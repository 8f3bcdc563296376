package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/internal/config"
	"github.com/goliatone/go-journey360/internal/logging"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/render/themes"
	"github.com/goliatone/go-journey360/pkg/renderers/html"
	"github.com/goliatone/go-journey360/pkg/renderers/tui"
	"github.com/goliatone/go-journey360/pkg/store"
)

// app carries the state shared by every subcommand. Everything except the
// writers is populated in the root's PersistentPreRunE.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	cfg        config.Config
	logger     *zap.Logger
	store      store.Store
	driver     tui.PromptDriver
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"store":      "store.dsn",
	"theme":      "theme.name",
	"variant":    "theme.variant",
}

// run executes the command line in args. The store and logger are released
// even when the command fails.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{in: in, out: out, errOut: errOut, logger: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "journey360",
		Short:         "Generate forms, tests and mock APIs from user stories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: journey360.yaml in ., ~/.journey360, /etc/journey360)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	flags.String("store", "", "project store DSN: sqlite://path, postgres://..., or memory when empty")
	flags.String("theme", "", "theme name")
	flags.String("variant", "", "theme variant: light or dark")

	root.AddCommand(
		newGenerateCmd(a),
		newServeCmd(a),
		newFillCmd(a),
		newWatchCmd(a),
		newExportCmd(a),
		newProjectsCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(
		config.WithFile(a.configFile),
		config.WithBinder(func(v *viper.Viper) error {
			for name, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			return bindLocal(v, cmd)
		}),
	)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if cfg.File != "" {
		logger.Debug("config loaded", zap.String("file", cfg.File))
	}
	return nil
}

const configKeyAnnotation = "journey360/config-key"

// bindConfig marks a local flag as an override for a config key.
func bindConfig(cmd *cobra.Command, name, key string) {
	_ = cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key})
}

// bindLocal binds command-local flags annotated with a config key.
func bindLocal(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		key, ok := f.Annotations[configKeyAnnotation]
		if !ok || len(key) == 0 || err != nil {
			return
		}
		err = v.BindPFlag(key[0], f)
	})
	return err
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// openStore opens the configured store once per invocation. An empty DSN
// yields an in-memory store, which only makes sense for serve.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(ctx, a.cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// prompter returns the terminal prompt driver. Its info lines go to stderr
// so stdout carries only command output.
func (a *app) prompter() tui.PromptDriver {
	if a.driver == nil {
		a.driver = tui.NewSurveyDriver(a.errOut)
	}
	return a.driver
}

func (a *app) selector() (*themes.Selector, error) {
	return themes.NewSelector(a.cfg.Theme.Name, a.cfg.Theme.Variant)
}

// orchestrator wires the pipeline from config. linked selects a stylesheet
// link over inline CSS in html output.
func (a *app) orchestrator(ctx context.Context, linked bool, extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	selector, err := a.selector()
	if err != nil {
		return nil, err
	}
	cfg, err := selector.Resolve(a.cfg.Theme.Name, a.cfg.Theme.Variant)
	if err != nil {
		return nil, err
	}
	renderer, err := html.New(
		html.WithTheme(cfg),
		html.WithLinkedStylesheet(linked),
		html.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	registry := render.NewRegistry()
	if err := registry.Register(renderer); err != nil {
		return nil, err
	}

	options := []orchestrator.Option{
		orchestrator.WithParser(parser.New(
			parser.WithDefaultLayout(a.cfg.Layout()),
			parser.WithLogger(a.logger),
		)),
		orchestrator.WithEndpointGenerator(a.mockGenerator(a.cfg.Mock.ErrorRate)),
		orchestrator.WithStore(s),
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(a.logger),
	}
	return orchestrator.New(append(options, extra...)...), nil
}

func (a *app) mockGenerator(errorRate float64) *mockapi.Generator {
	options := []mockapi.Option{
		mockapi.WithErrorRate(errorRate),
		mockapi.WithLogger(a.logger),
	}
	if a.cfg.Mock.Seed != 0 {
		options = append(options, mockapi.WithSeed(a.cfg.Mock.Seed))
	}
	return mockapi.NewGenerator(options...)
}
