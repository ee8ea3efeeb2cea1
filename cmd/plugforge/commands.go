package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/plugforge/plugforge/internal/adapter"
	"github.com/plugforge/plugforge/internal/cache"
	"github.com/plugforge/plugforge/internal/config"
	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/generator"
	"github.com/plugforge/plugforge/internal/loader"
	"github.com/plugforge/plugforge/internal/schema"
	"github.com/plugforge/plugforge/internal/storage"
	"github.com/plugforge/plugforge/internal/validation"
	"github.com/plugforge/plugforge/internal/watch"
)

// Version is set at build time
var Version = "0.1.0"

// cli carries configuration and flag values shared by every command
type cli struct {
	out io.Writer
	cfg *config.Config

	heal      bool
	platforms []string
	specFile  string
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "plugforge <plugin-dir> [output-dir]",
		Short: "Generate AI assistant plugins for every supported platform",
		Long: "plugforge reads a plugin directory (a specification file plus agents/, hooks/ and skills/) " +
			"and writes one ready-to-publish plugin per platform under the output directory.",
		Version:       Version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.generate(args[0], c.outputDir(args))
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.specFile, "spec-file", "", "specification file name inside the plugin directory")
	root.Flags().BoolVar(&c.heal, "heal", false, "repair fixable defects before validating")
	root.Flags().StringSliceVar(&c.platforms, "platform", nil, "generate only this platform (repeatable)")

	root.AddCommand(
		c.validateCommand(),
		c.healCommand(),
		c.schemaCommand(),
		c.watchCommand(),
		c.platformsCommand(),
	)
	return root
}

// setup loads configuration and applies flag overrides
func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	if c.specFile != "" {
		cfg.Generation.SpecFile = c.specFile
	}
	if c.heal {
		cfg.Generation.AutoHeal = true
	}
	if len(c.platforms) > 0 {
		cfg.Generation.Platforms = c.platforms
	}

	c.cfg = cfg
	logStartupConfig(cfg)
	return nil
}

func (c *cli) outputDir(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return c.cfg.Generation.OutputDir
}

func (c *cli) loader(repo storage.Repository) *loader.ConventionLoader {
	return loader.NewConventionLoader(repo, c.cfg.Generation.SpecFile, log.Logger)
}

// generate runs one full generation and prints its report. Platform failures
// are reported but do not make the command fail.
func (c *cli) generate(pluginDir, outputDir string) (*domain.RunReport, error) {
	return c.generateWith(storage.NewDiskRepository(), cache.NewLRUCache(c.cfg.Cache.MaxSize), pluginDir, outputDir)
}

func (c *cli) generateWith(repo storage.Repository, lru *cache.LRUCache, pluginDir, outputDir string) (*domain.RunReport, error) {
	registry, err := adapter.NewRegistry(repo, lru).Filter(c.cfg.PlatformList())
	if err != nil {
		return nil, err
	}

	g := generator.NewAutoGenerator(generator.Config{
		Loader:     c.loader(repo),
		Validator:  validation.NewValidator(repo),
		Healer:     validation.NewHealer(repo, log.Logger),
		Adapters:   registry,
		Repository: repo,
		Heal:       c.cfg.Generation.AutoHeal,
	}, log.Logger)

	report, err := g.Generate(pluginDir, outputDir)
	if err != nil {
		if report != nil {
			_ = generator.PrintReport(c.out, report)
		}
		return report, err
	}
	return report, generator.PrintReport(c.out, report)
}

func (c *cli) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plugin-dir>",
		Short: "Validate a plugin directory without generating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := storage.NewDiskRepository()
			plugin, err := c.loader(repo).Load(args[0])
			if err != nil {
				return err
			}

			report := validation.NewValidator(repo).Validate(plugin)
			if err := generator.PrintValidation(c.out, report); err != nil {
				return err
			}
			if !report.Valid {
				return domain.NewAppError(domain.ErrValidationFailed,
					fmt.Sprintf("specification has %d error(s)", len(report.Errors)), report.Errors)
			}
			return nil
		},
	}
}

func (c *cli) healCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "heal <plugin-dir>",
		Short: "Repair fixable defects in a plugin directory, then validate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := storage.NewDiskRepository()
			l := c.loader(repo)

			plugin, err := l.Load(args[0])
			if err != nil {
				return err
			}
			result, err := validation.NewHealer(repo, log.Logger).Heal(plugin)
			if err != nil {
				return err
			}
			if len(result.Healed) == 0 {
				fmt.Fprintln(c.out, "nothing to heal")
			}
			for _, healed := range result.Healed {
				fmt.Fprintf(c.out, "healed: %s\n", healed)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(c.out, "heal warning: %s\n", warning)
			}

			if plugin, err = l.Load(args[0]); err != nil {
				return err
			}
			return generator.PrintValidation(c.out, validation.NewValidator(repo).Validate(plugin))
		},
	}
}

func (c *cli) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the plugin specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.SpecSchemaJSON()
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	}
}

func (c *cli) platformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the platforms in generation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := adapter.NewRegistry(storage.NewDiskRepository(), nil)
			for _, name := range registry.Names() {
				a, err := registry.New(name)
				if err != nil {
					return err
				}
				label := ""
				if cliAdapter, ok := a.(*adapter.CLIAdapter); ok {
					label = cliAdapter.Platform().Label
				}
				fmt.Fprintf(c.out, "%-12s %-10s %s\n", name, a.Family(), label)
			}
			return nil
		},
	}
}

func (c *cli) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <plugin-dir> [output-dir]",
		Short: "Regenerate whenever the plugin directory changes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.watch(ctx, args[0], c.outputDir(args))
		},
	}
	cmd.Flags().BoolVar(&c.heal, "heal", false, "repair fixable defects before validating")
	cmd.Flags().StringSliceVar(&c.platforms, "platform", nil, "generate only this platform (repeatable)")
	return cmd
}

// watch generates once and then again after every burst of source changes,
// until ctx is done. Load and validation failures are logged, not fatal.
func (c *cli) watch(ctx context.Context, pluginDir, outputDir string) error {
	pluginDir, err := filepath.Abs(pluginDir)
	if err != nil {
		return err
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	if info, err := os.Stat(pluginDir); err != nil || !info.IsDir() {
		return domain.NewAppError(domain.ErrPluginDirNotFound, "Plugin directory not found",
			map[string]any{"dir": pluginDir}).WithOperation("watch")
	}

	repo := storage.NewDiskRepository()
	lru := cache.NewLRUCache(c.cfg.Cache.MaxSize)

	var mu sync.Mutex
	run := func() {
		mu.Lock()
		defer mu.Unlock()
		if _, err := c.generateWith(repo, lru, pluginDir, outputDir); err != nil {
			log.Error().Err(err).Str("dir", pluginDir).Msg("Generation failed")
		}
	}
	run()

	w, err := watch.NewWatcher(watch.Config{
		Dir:      pluginDir,
		Ignore:   []string{outputDir},
		Debounce: c.cfg.Watch.Debounce,
		Cache:    lru,
		OnChange: func(paths []string) error {
			log.Info().Int("changes", len(paths)).Msg("Regenerating")
			run()
			return nil
		},
	}, log.Logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, stopping watcher")
	return w.Stop()
}
