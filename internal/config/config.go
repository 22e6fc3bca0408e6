// Package config loads the CLI configuration from defaults, an optional
// YAML file, MANIFESTNORM_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "MANIFESTNORM_"

type Config struct {
	Schema SchemaConfig `koanf:"schema" validate:"required"`
	Format FormatConfig `koanf:"format"`
	Log    LogConfig    `koanf:"log"`
	Jobs   int          `koanf:"jobs"   validate:"min=1,max=256"`
}

type SchemaConfig struct {
	URI       string        `koanf:"uri"        validate:"required"`
	Timeout   time.Duration `koanf:"timeout"    validate:"gt=0"`
	Retries   uint64        `koanf:"retries"    validate:"lte=10"`
	CacheSize int           `koanf:"cache_size" validate:"min=1"`
}

// FormatConfig overrides the detected indentation. IndentSize 0 keeps the
// indentation of each input file.
type FormatConfig struct {
	IndentSize  int    `koanf:"indent_size"  validate:"min=0,max=16"`
	IndentStyle string `koanf:"indent_style" validate:"oneof=space tab"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

func Default() *Config {
	return &Config{
		Schema: SchemaConfig{
			URI:       "https://getcomposer.org/schema.json",
			Timeout:   30 * time.Second,
			Retries:   2,
			CacheSize: 16,
		},
		Format: FormatConfig{IndentStyle: "space"},
		Log:    LogConfig{Level: "info"},
		Jobs:   4,
	}
}

// Options selects the sources Load reads besides the defaults.
type Options struct {
	// Fs reads File; the OS file system when nil.
	Fs afero.Fs
	// File is an optional YAML configuration file. It must exist when set.
	File string
	// Environ lists KEY=value pairs; os.Environ when nil.
	Environ func() []string
	// Overrides are dotted keys (e.g. "schema.uri") set from flags.
	Overrides map[string]any
}

func Load(opts Options) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if opts.File != "" {
		if err := loadFile(k, opts.Fs, opts.File); err != nil {
			return nil, err
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, v := range opts.Overrides {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, fs afero.Fs, path string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for key, v := range flatten("", raw) {
		if err := k.Set(key, v); err != nil {
			return fmt.Errorf("failed to set %s from %s: %w", key, path, err)
		}
	}
	return nil
}

// flatten turns nested maps into dotted keys so a file only replaces the
// keys it names.
func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			for fk, fv := range flatten(key, nested) {
				out[fk] = fv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// transformEnv maps MANIFESTNORM_SCHEMA_CACHE_SIZE to schema.cache_size:
// the first segment names the section, the rest the field.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], value
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_"), value
	}
}
