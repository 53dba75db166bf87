/*
	Package config reads TOML configuration for programs that open image files
	with this module.  A configuration file looks like:

		[logging]
		logfile = "bioio.log"   # relative to this file; stderr if empty
		max_log_size = 500      # MB
		max_log_age = 30        # days
		mode = "warning"

		[reader]
		metadata_level = "all"  # "minimum", "no_overlays" or "all"
		filter_metadata = true
		normalize_byte_order = false
		group_files = true
		separate_channels = false
		seek_policy = "reference"   # "reference", "replay" or "fail"
		missing_files = "blank"     # "blank" or "fail"

		[cache]
		plane_cache_mb = 256
		listing_cache_entries = 512
		compression = "lz4"     # "none", "snappy", "lz4" or "zstd"

		[concurrency]
		readers = 8
*/
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/formats/avi"
	"github.com/janelia-flyem/bioio/formats/mias"
	"github.com/janelia-flyem/bioio/meta"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultListingEntries is the number of directory listings kept for file
	// grouping.
	DefaultListingEntries = 256
)

type LoggingConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"`
	MaxAge  int `toml:"max_log_age"`
	Mode    string
}

// LogConfig returns the log file settings.
func (c LoggingConfig) LogConfig() *bio.LogConfig {
	return &bio.LogConfig{Logfile: c.Logfile, MaxSize: c.MaxSize, MaxAge: c.MaxAge}
}

type ReaderConfig struct {
	MetadataLevel      string `toml:"metadata_level"`
	FilterMetadata     bool   `toml:"filter_metadata"`
	NormalizeByteOrder bool   `toml:"normalize_byte_order"`
	GroupFiles         bool   `toml:"group_files"`
	SeparateChannels   bool   `toml:"separate_channels"`
	SeekPolicy         string `toml:"seek_policy"`
	MissingFiles       string `toml:"missing_files"`
}

type CacheConfig struct {
	PlaneCacheMB        int    `toml:"plane_cache_mb"`
	ListingCacheEntries int    `toml:"listing_cache_entries"`
	Compression         string `toml:"compression"`
}

type ConcurrencyConfig struct {
	Readers int
}

// Config is the parsed TOML configuration.
type Config struct {
	Logging     LoggingConfig
	Reader      ReaderConfig
	Cache       CacheConfig
	Concurrency ConcurrencyConfig

	// parsed settings
	level       meta.Level
	logMode     bio.ModeFlag
	compression bio.Compression
	seek        codec.SeekPolicy
	missing     format.GroupPolicy
}

// Default returns the configuration used when there is no TOML file: full
// metadata, file grouping, no plane cache and one reader per CPU.
func Default() *Config {
	c := &Config{
		Logging: LoggingConfig{Mode: "info"},
		Reader: ReaderConfig{
			MetadataLevel: meta.LevelAll.String(),
			GroupFiles:    true,
			SeekPolicy:    codec.SeekAsReference.String(),
			MissingFiles:  format.DegradeToBlank.String(),
		},
		Cache: CacheConfig{
			ListingCacheEntries: DefaultListingEntries,
			Compression:         "none",
		},
		Concurrency: ConcurrencyConfig{Readers: runtime.NumCPU()},
	}
	if err := c.parse(); err != nil {
		panic(err)
	}
	return c
}

// Load reads a TOML file over the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := Default()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if err := c.parse(); err != nil {
		return nil, fmt.Errorf("bad TOML config %s: %v", filename, err)
	}
	return c, nil
}

// Decode reads TOML configuration from a string over the defaults.  Relative
// paths are left as they are.
func Decode(data string) (*Config, error) {
	c := Default()
	if _, err := toml.Decode(data, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.parse(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) convertPathsToAbsolute(configPath string) error {
	// [logging].logfile
	if c.Logging.Logfile != "" {
		var err error
		c.Logging.Logfile, err = bio.ConvertToAbsolute(c.Logging.Logfile, filepath.Dir(configPath))
		if err != nil {
			return fmt.Errorf("Error converting logfile setting to absolute path")
		}
	}
	return nil
}

func (c *Config) parse() error {
	var found bool
	if c.level, found = meta.ParseLevel(c.Reader.MetadataLevel); !found {
		return fmt.Errorf("unknown metadata level %q", c.Reader.MetadataLevel)
	}
	var err error
	if c.logMode, err = bio.ParseLogMode(c.Logging.Mode); err != nil {
		return err
	}
	if c.compression, err = bio.ParseCompression(c.Cache.Compression); err != nil {
		return err
	}
	if c.seek, err = parseSeekPolicy(c.Reader.SeekPolicy); err != nil {
		return err
	}
	if c.missing, err = parseGroupPolicy(c.Reader.MissingFiles); err != nil {
		return err
	}
	if c.Cache.PlaneCacheMB < 0 || c.Cache.ListingCacheEntries < 0 {
		return fmt.Errorf("cache sizes must not be negative")
	}
	if c.Concurrency.Readers < 1 {
		c.Concurrency.Readers = 1
	}
	return nil
}

func parseSeekPolicy(s string) (codec.SeekPolicy, error) {
	for _, p := range []codec.SeekPolicy{codec.SeekAsReference, codec.SeekReplay, codec.SeekFail} {
		if s == p.String() {
			return p, nil
		}
	}
	return codec.SeekAsReference, fmt.Errorf("unknown seek policy %q", s)
}

func parseGroupPolicy(s string) (format.GroupPolicy, error) {
	for _, p := range []format.GroupPolicy{format.DegradeToBlank, format.FailOnMissing} {
		if s == p.String() {
			return p, nil
		}
	}
	return format.DegradeToBlank, fmt.Errorf("unknown missing file policy %q", s)
}

// Options returns the handler options of the [reader] section.
func (c *Config) Options() format.Options {
	return format.Options{
		Level:      c.level,
		Filtered:   c.Reader.FilterMetadata,
		Normalized: c.Reader.NormalizeByteOrder,
		GroupFiles: c.Reader.GroupFiles,
	}
}

// Decorators returns the reader stack selected by the configuration, innermost
// first.  Every call with a plane cache configured creates a new cache, so
// callers keep the result for all readers that should share it.
func (c *Config) Decorators() []format.Decorator {
	var decorators []format.Decorator
	if c.Reader.NormalizeByteOrder {
		decorators = append(decorators, format.LittleEndian)
	}
	if c.Reader.SeparateChannels {
		decorators = append(decorators, format.ChannelSeparator)
	}
	if c.Cache.PlaneCacheMB > 0 {
		cache := format.NewCache(c.Cache.PlaneCacheMB<<20, c.compression)
		decorators = append(decorators, format.PlaneCache(cache))
	}
	return decorators
}

// Apply sets the process-wide state: logging, the shared directory listing
// and the defaults of new handlers.
func (c *Config) Apply() {
	bio.SetLogMode(c.logMode)
	c.Logging.LogConfig().SetLogger()
	if c.Cache.ListingCacheEntries > 0 {
		format.SetSharedListing(format.NewListing(c.Cache.ListingCacheEntries))
	}
	avi.DefaultSeekPolicy = c.seek
	mias.DefaultGroupPolicy = c.missing
}

// LogMode returns the parsed [logging] mode.
func (c *Config) LogMode() bio.ModeFlag { return c.logMode }

// SeekPolicy returns the parsed [reader] seek_policy.
func (c *Config) SeekPolicy() codec.SeekPolicy { return c.seek }

// MissingFiles returns the parsed [reader] missing_files policy.
func (c *Config) MissingFiles() format.GroupPolicy { return c.missing }

// Compression returns the parsed [cache] compression.
func (c *Config) Compression() bio.Compression { return c.compression }
