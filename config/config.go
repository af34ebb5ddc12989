// Package config loads lotusExtract settings.
//
// Settings come from a YAML file named by the --config flag or the
// LOTUS_CONFIG environment variable (a .env file in the working
// directory is read first). Fields missing from the file keep their
// defaults; with no file at all, Default() is used as is.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goopsie/lotusExtract/export"
	"github.com/goopsie/lotusExtract/extractor"
	"github.com/goopsie/lotusExtract/lotusPackages"
	"github.com/goopsie/lotusExtract/manifests"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvConfig = "LOTUS_CONFIG"

type Config struct {
	// Container is the Packages.bin dump, raw or zstd wrapped.
	Container string `yaml:"container"`

	// IDs is the persisted identifier table.
	IDs string `yaml:"ids"`

	// Output is where the extracted document is written.
	Output      string `yaml:"output"`
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`

	// Textures is a local copy of ExportManifest.json. Optional.
	Textures string `yaml:"textures"`

	CacheSize int    `yaml:"cache_size"`
	IndexPath string `yaml:"index_path"`

	ModTags  []string `yaml:"mod_tags"`
	ItemTags []string `yaml:"item_tags"`

	SkipRelics bool `yaml:"skip_relics"`

	Normalize extractor.NormalizeConfig `yaml:"normalize"`
}

func Default() *Config {
	return &Config{
		IDs:         "ids.json",
		Output:      "data.json",
		Format:      string(export.FormatJSON),
		Compression: string(export.CompressionNone),
		CacheSize:   lotusPackages.DefaultCacheSize,
		IndexPath:   manifests.CodexIndexPath,
		ModTags:     append([]string(nil), extractor.DefaultModTags...),
		ItemTags:    append([]string(nil), extractor.DefaultItemTags...),
		SkipRelics:  true,
		Normalize:   extractor.DefaultNormalizeConfig(),
	}
}

// Load reads .env, then the config file at path, falling back to
// LOTUS_CONFIG when path is empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Options returns the validated export options.
func (c *Config) Options() (export.Options, error) {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return export.Options{}, err
	}
	compression, err := export.ParseCompression(c.Compression)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{Format: format, Compression: compression}, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Container == "" {
		errs = append(errs, errors.New("no container given"))
	}
	if c.IDs == "" {
		errs = append(errs, errors.New("ids path is empty"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output path is empty"))
	}
	if c.IndexPath == "" {
		errs = append(errs, errors.New("index_path is empty"))
	}
	if _, err := c.Options(); err != nil {
		errs = append(errs, err)
	}
	for i, ref := range c.Normalize.References {
		if ref.Field == "" {
			errs = append(errs, fmt.Errorf("normalize.references[%d] has no field", i))
		}
	}
	return errors.Join(errs...)
}
