package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content/scenarios.yaml
var defaultContent []byte

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return LoadYAML(bytes.NewReader(defaultContent))
}

// LoadYAML decodes a YAML catalog document and validates it. Unknown fields are
// rejected so typos in content files surface at startup.
func LoadYAML(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(def)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return LoadYAML(f)
}
