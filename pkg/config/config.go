// Package config loads dynstr settings from a yaml file and DYNSTR_*
// environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"dynstr-go/pkg/alloc"
	"dynstr-go/pkg/appdir"
	"dynstr-go/pkg/transform"
)

// Allocator kinds.
const (
	AllocHeap  = "heap"
	AllocPool  = "pool"
	AllocArena = "arena"
)

// DefaultStoreName is the snapshot database file name inside the application directory.
const DefaultStoreName = "strings.db"

var ErrUnknownAllocator = errors.New("config: unknown allocator")

type Config struct {
	Allocator      string `mapstructure:"allocator"`
	PoolMinClass   int    `mapstructure:"pool_min_class"`
	PoolMaxClass   int    `mapstructure:"pool_max_class"`
	ArenaChunkSize int    `mapstructure:"arena_chunk_size"`
	MemoryLimit    int    `mapstructure:"memory_limit"` // 0 means unlimited
	Debug          bool   `mapstructure:"debug"`
	LogDB          string `mapstructure:"log_db"`     // empty logs to the console
	StorePath      string `mapstructure:"store_path"` // empty means <appdir>/strings.db
	Compression    string `mapstructure:"compression"`
	CompressLevel  int    `mapstructure:"compression_level"` // 0 means the codec default
	Passphrase     string `mapstructure:"passphrase"`        // enables AES-GCM at rest when set
	ConfigFile     string `mapstructure:"config_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Allocator:      AllocHeap,
		PoolMinClass:   alloc.DefaultMinClass,
		PoolMaxClass:   alloc.DefaultMaxClass,
		ArenaChunkSize: alloc.DefaultChunkSize,
		Compression:    transform.Zstd,
		ConfigFile:     "dynstr",
	}
}

// LoadConfig reads configFile (a path, or a bare name searched in ., /etc/dynstr
// and $HOME/.dynstr) and DYNSTR_* environment variables over the defaults.
// A missing config file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile != "" {
		cfg.ConfigFile = configFile
	}

	v := viper.New()
	setDefaults(v, cfg)

	if hasExt(cfg.ConfigFile) {
		v.SetConfigFile(cfg.ConfigFile)
	} else {
		v.SetConfigName(cfg.ConfigFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dynstr/")
		v.AddConfigPath("$HOME/.dynstr")
	}
	v.SetEnvPrefix("DYNSTR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(hasExt(cfg.ConfigFile) && isNotExist(err)) {
			return nil, fmt.Errorf("reading config %s: %w", cfg.ConfigFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("allocator", cfg.Allocator)
	v.SetDefault("pool_min_class", cfg.PoolMinClass)
	v.SetDefault("pool_max_class", cfg.PoolMaxClass)
	v.SetDefault("arena_chunk_size", cfg.ArenaChunkSize)
	v.SetDefault("memory_limit", cfg.MemoryLimit)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("log_db", cfg.LogDB)
	v.SetDefault("store_path", cfg.StorePath)
	v.SetDefault("compression", cfg.Compression)
	v.SetDefault("compression_level", cfg.CompressLevel)
	v.SetDefault("passphrase", cfg.Passphrase)
	v.SetDefault("config_file", cfg.ConfigFile)
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Allocator {
	case AllocHeap, AllocPool, AllocArena:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAllocator, c.Allocator)
	}
	if _, err := transform.ByNameLevel(c.Compression, c.CompressLevel); err != nil {
		return err
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("config: negative memory_limit %d", c.MemoryLimit)
	}
	return nil
}

// NewAllocator builds the configured allocator: the base kind, wrapped by a
// byte budget when MemoryLimit is set, then instrumented on reg when reg is
// not nil. The returned release func frees arena memory en masse.
func (c *Config) NewAllocator(reg prometheus.Registerer) (alloc.Allocator, func(), error) {
	var (
		a       alloc.Allocator
		release = func() {}
	)
	switch c.Allocator {
	case AllocHeap:
		a = alloc.NewHeap()
	case AllocPool:
		a = alloc.NewPool(c.PoolMinClass, c.PoolMaxClass)
	case AllocArena:
		arena, err := alloc.NewArena(c.ArenaChunkSize)
		if err != nil {
			return nil, nil, err
		}
		a, release = arena, arena.Release
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAllocator, c.Allocator)
	}

	if c.MemoryLimit > 0 {
		a = alloc.NewLimited(a, c.MemoryLimit)
	}
	if reg != nil {
		a = alloc.NewInstrumented(a, reg, c.Allocator)
	}
	return a, release, nil
}

// ResolveStorePath returns StorePath, defaulting to strings.db in the
// application directory (created on demand).
func (c *Config) ResolveStorePath() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	if _, err := appdir.Ensure(); err != nil {
		return "", fmt.Errorf("config: preparing application directory: %w", err)
	}
	return appdir.Path(DefaultStoreName)
}

// NewPipeline builds the at-rest transform pipeline: compression first, then
// encryption when a passphrase is configured.
func (c *Config) NewPipeline() (*transform.Pipeline, error) {
	compress, err := transform.ByNameLevel(c.Compression, c.CompressLevel)
	if err != nil {
		return nil, err
	}
	transforms := []transform.Transform{compress}
	if c.Passphrase != "" {
		enc, err := transform.NewAESGCMTransform(c.Passphrase)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, enc)
	}
	return transform.NewPipeline(transforms...)
}
