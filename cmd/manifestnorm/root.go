package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reoring/manifestnorm"
	"github.com/reoring/manifestnorm/composer"
	"github.com/reoring/manifestnorm/internal/config"
	"github.com/reoring/manifestnorm/internal/logger"
	"github.com/reoring/manifestnorm/schema"
)

// flagKeys maps flags to the configuration keys they override.
var flagKeys = map[string]string{
	"schema":       "schema.uri",
	"timeout":      "schema.timeout",
	"retries":      "schema.retries",
	"indent-size":  "format.indent_size",
	"indent-style": "format.indent_style",
	"jobs":         "jobs",
	"log-level":    "log.level",
	"log-json":     "log.json",
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var (
		configFile string
		opts       runOptions
	)
	cmd := &cobra.Command{
		Use:   "manifestnorm [flags] [file...]",
		Short: "Normalize composer.json manifests",
		Long: "Reorders composer.json files by the composer schema, sorts bin, config and\n" +
			"package links, and keeps the indentation and newlines of each file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{Fs: fs, File: configFile, Overrides: overrides(cmd.Flags())})
			if err != nil {
				return err
			}
			level, err := logger.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			log := logger.NewLogger(&logger.Config{Level: level, Output: cmd.ErrOrStderr(), JSON: cfg.Log.JSON, TimeFormat: "15:04:05"})

			resolver, err := newResolver(fs, cfg)
			if err != nil {
				return err
			}
			nopts := []composer.Option{
				composer.WithSchemaURI(cfg.Schema.URI),
				composer.WithResolver(resolver),
				composer.WithSchemaTimeout(cfg.Schema.Timeout),
			}
			if cfg.Format.IndentSize > 0 {
				indent, err := manifestnorm.Indent(cfg.Format.IndentSize, cfg.Format.IndentStyle)
				if err != nil {
					return err
				}
				nopts = append(nopts, composer.WithIndent(indent))
			}

			if len(args) == 0 {
				args = []string{"composer.json"}
			}
			r := &runner{
				fs:         fs,
				out:        cmd.OutOrStdout(),
				normalizer: composer.NewNormalizer(nopts...),
				resolver:   resolver,
				schemaURI:  cfg.Schema.URI,
				timeout:    cfg.Schema.Timeout,
				unordered:  composer.UnorderedLists,
				jobs:       cfg.Jobs,
				opts:       opts,
			}
			return r.run(logger.ContextWithLogger(cmd.Context(), log), args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML configuration file")
	f.String("schema", "", "schema URI (file path, file://, http:// or https://)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report files that are not normalized without writing them")
	f.BoolVar(&opts.diff, "diff", false, "print a unified diff of the changes")
	f.BoolVar(&opts.validate, "validate", false, "validate each file against the schema before normalizing")
	f.Int("indent-size", 0, "indentation size (0 keeps the indentation of each file)")
	f.String("indent-style", "space", "indentation style: space or tab")
	f.Duration("timeout", 0, "schema fetch timeout")
	f.Uint64("retries", 0, "retries for transient schema fetch failures")
	f.Int("jobs", 0, "files normalized concurrently")
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.Bool("log-json", false, "log as JSON")
	return cmd
}

// overrides collects the flags set on the command line. Unset flags leave
// the configuration file and environment in charge.
func overrides(f *pflag.FlagSet) map[string]any {
	out := map[string]any{}
	f.Visit(func(fl *pflag.Flag) {
		if key, ok := flagKeys[fl.Name]; ok {
			out[key] = fl.Value.String()
		}
	})
	return out
}

func newResolver(fs afero.Fs, cfg *config.Config) (*schema.CachingResolver, error) {
	h := schema.NewHTTPResolver(schema.WithRetries(cfg.Schema.Retries))
	r, err := schema.NewCachingResolver(schema.SchemeResolver{
		"file":  schema.FileResolver{Fs: fs},
		"http":  h,
		"https": h,
	}, cfg.Schema.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("schema resolver: %w", err)
	}
	return r, nil
}
