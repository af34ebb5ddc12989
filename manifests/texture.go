package manifests

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// TextureManifest maps a package path to its icon texture location.
type TextureManifest map[string]string

type exportManifest struct {
	Manifest []struct {
		UniqueName      string `json:"uniqueName"`
		TextureLocation string `json:"textureLocation"`
	} `json:"Manifest"`
}

// LoadTextureManifest reads a local copy of ExportManifest.json. An
// empty path yields an empty manifest.
func LoadTextureManifest(path string) (TextureManifest, error) {
	if path == "" {
		return TextureManifest{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTextureManifest(b)
}

// ParseTextureManifest tolerates comments and trailing commas.
// Backslashes in locations become forward slashes.
func ParseTextureManifest(b []byte) (TextureManifest, error) {
	var m exportManifest
	if err := json.Unmarshal(jsonc.ToJSON(b), &m); err != nil {
		return nil, fmt.Errorf("parsing texture manifest: %w", err)
	}
	out := make(TextureManifest, len(m.Manifest))
	for _, o := range m.Manifest {
		if o.UniqueName == "" {
			continue
		}
		out[o.UniqueName] = strings.ReplaceAll(o.TextureLocation, "\\", "/")
	}
	return out, nil
}
