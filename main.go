package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/goopsie/lotusExtract/config"
	"github.com/goopsie/lotusExtract/export"
	"github.com/goopsie/lotusExtract/extractor"
	"github.com/goopsie/lotusExtract/ids"
	"github.com/goopsie/lotusExtract/lotusPackages"
	"github.com/goopsie/lotusExtract/manifests"
	"github.com/spf13/pflag"
)

var (
	configPath  string
	idsPath     string
	outputPath  string
	format      string
	compression string
	texturePath string
	debug       bool
	help        bool
)

func init() {
	pflag.StringVar(&configPath, "config", "", "YAML config file (default $LOTUS_CONFIG)")
	pflag.StringVar(&idsPath, "ids", "", "Identifier table, created if missing (default 'ids.json')")
	pflag.StringVar(&outputPath, "output", "", "Extracted document (default 'data.json')")
	pflag.StringVar(&format, "format", "", "Either 'json' or 'cbor'")
	pflag.StringVar(&compression, "compression", "", "Either 'none', 'zstd', or 'lz4'")
	pflag.StringVar(&texturePath, "textures", "", "Local copy of ExportManifest.json")
	pflag.BoolVar(&debug, "debug", false, "Debug logging (or set LOTUS_DEBUG)")
	pflag.BoolVarP(&help, "help", "h", false, "Print usage")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <Packages.bin>\n", os.Args[0])
	pflag.PrintDefaults()
}

func main() {
	pflag.Usage = usage
	pflag.Parse()
	if help {
		usage()
		return
	}

	logLevel := slog.LevelInfo
	if debug || os.Getenv("LOTUS_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, pflag.CommandLine, pflag.Args())

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet, args []string) {
	if len(args) > 0 {
		cfg.Container = args[0]
	}
	if fs.Changed("ids") {
		cfg.IDs = idsPath
	}
	if fs.Changed("output") {
		cfg.Output = outputPath
	}
	if fs.Changed("format") {
		cfg.Format = format
	}
	if fs.Changed("compression") {
		cfg.Compression = compression
	}
	if fs.Changed("textures") {
		cfg.Textures = texturePath
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger.Info("parsing container", "path", cfg.Container)
	b, err := manifests.ReadContainer(cfg.Container)
	if err != nil {
		return fmt.Errorf("reading container: %w", err)
	}
	container, err := lotusPackages.Decode(b)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", cfg.Container, err)
	}
	logger.Info("container loaded",
		"records", len(container.Records),
		"structs", len(container.Structs),
		"blake3", hex.EncodeToString(container.Fingerprint[:]))

	store, err := lotusPackages.NewStore(container, cfg.CacheSize)
	if err != nil {
		return err
	}

	table, err := ids.Load(cfg.IDs)
	if err != nil {
		return err
	}
	logger.Info("id table loaded", "path", cfg.IDs, "ids", table.Len(), "max", table.Max())

	textures, err := manifests.LoadTextureManifest(cfg.Textures)
	if err != nil {
		return fmt.Errorf("loading texture manifest: %w", err)
	}

	indexContent, err := store.Resolve(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("resolving codex index: %w", err)
	}
	index := manifests.NewCodexIndex(indexContent)

	resolver := extractor.New(store, table, textures, cfg.Normalize, logger)
	if cfg.SkipRelics {
		resolver.Filter = extractor.SkipRelics
	}
	doc, err := resolver.ExtractAll(index, cfg.ModTags, cfg.ItemTags)
	if err != nil {
		return err
	}

	if err := table.Save(cfg.IDs); err != nil {
		return err
	}
	if err := export.WriteFile(cfg.Output, doc.Interface(), opts); err != nil {
		return err
	}

	logger.Info("extraction done",
		"mods", len(doc.Mods.Records),
		"items", len(doc.Items.Records),
		"mod_sets", len(doc.ModSets),
		"stubs", len(doc.Mods.Stubs())+len(doc.Items.Stubs()),
		"new_ids", table.Added(),
		"output", cfg.Output)
	return nil
}
