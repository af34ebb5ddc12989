package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goopsie/lotusExtract/config"
	"github.com/goopsie/lotusExtract/export"
	"github.com/goopsie/lotusExtract/lotusPackages/lotustest"
	"github.com/goopsie/lotusExtract/manifests"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	raw := (&lotustest.Builder{}).
		Add("/Lotus/Types/Lore/", "PrimaryCodexManifest", "", `Entries={{tag=Mod,type=/Lotus/Upgrades/Mods/Serration},{tag=Weapon,type=/Lotus/Weapons/Bow}}`).
		Add("/Lotus/Upgrades/Mods/", "Serration", "", "ItemCompatibility=/Lotus/Weapons/Rifle\nModSet=Set").
		Add("/Lotus/Weapons/", "Bow", "", "Name=Bow").
		Add("/Lotus/Weapons/", "Rifle", "", "Name=Rifle").
		Bytes()
	wrapped, err := manifests.WrapZSTD(raw)
	require.NoError(t, err)

	path := filepath.Join(dir, "Packages.bin")
	require.NoError(t, os.WriteFile(path, wrapped, 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Container = writeFixture(t, dir)
	cfg.IDs = filepath.Join(dir, "ids.json")
	cfg.Output = filepath.Join(dir, "data.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, run(cfg, logger))

	b, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Contains(t, doc["Mods"], "/Lotus/Upgrades/Mods/Serration")
	assert.Contains(t, doc["Items"], "/Lotus/Weapons/Bow")
	assert.Contains(t, doc["Items"], "/Lotus/Weapons/Rifle")
	assert.Contains(t, doc["ModSets"], "/Lotus/Upgrades/Mods/Set")

	idsBefore, err := os.ReadFile(cfg.IDs)
	require.NoError(t, err)

	// a second run over the same container allocates nothing new
	require.NoError(t, run(cfg, logger))
	idsAfter, err := os.ReadFile(cfg.IDs)
	require.NoError(t, err)
	assert.Equal(t, string(idsBefore), string(idsAfter))
}

func TestRunCBORLZ4(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Container = writeFixture(t, dir)
	cfg.IDs = filepath.Join(dir, "ids.json")
	cfg.Output = filepath.Join(dir, "data.cbor.lz4")
	cfg.Format = "cbor"
	cfg.Compression = "lz4"

	require.NoError(t, run(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))

	f, err := os.Open(cfg.Output)
	require.NoError(t, err)
	defer f.Close()
	doc, err := export.Read(f, export.Options{Format: export.FormatCBOR, Compression: export.CompressionLZ4})
	require.NoError(t, err)
	assert.Contains(t, doc, "Items")
}

func TestRunMissingIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Packages.bin")
	require.NoError(t, os.WriteFile(path, (&lotustest.Builder{}).Add("/A/", "B", "", "x=1").Bytes(), 0644))

	cfg := config.Default()
	cfg.Container = path
	cfg.IDs = filepath.Join(dir, "ids.json")
	cfg.Output = filepath.Join(dir, "data.json")

	err := run(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorContains(t, err, "codex index")
	assert.NoFileExists(t, cfg.Output)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&outputPath, "output", "", "")
	fs.StringVar(&idsPath, "ids", "", "")
	fs.StringVar(&format, "format", "", "")
	fs.StringVar(&compression, "compression", "", "")
	fs.StringVar(&texturePath, "textures", "", "")
	require.NoError(t, fs.Parse([]string{"--output", "out.cbor", "--format", "cbor", "Packages.bin"}))

	cfg := config.Default()
	applyFlags(cfg, fs, fs.Args())

	assert.Equal(t, "Packages.bin", cfg.Container)
	assert.Equal(t, "out.cbor", cfg.Output)
	assert.Equal(t, "cbor", cfg.Format)
	assert.Equal(t, "ids.json", cfg.IDs, "unset flags keep config values")
}
