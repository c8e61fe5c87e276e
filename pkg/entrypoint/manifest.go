package entrypoint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Errors for manifest loading.
var (
	// errOpenManifestFailed indicates the manifest file could not be opened.
	errOpenManifestFailed = errors.New("failed to open entry point manifest")
	// errParseManifestFailed indicates the manifest is not valid YAML.
	errParseManifestFailed = errors.New("failed to parse entry point manifest")
)

// manifest is the YAML document listing entry points per group.
type manifest struct {
	EntryPoints map[string][]EntryPoint `yaml:"entry_points"`
}

// LoadManifest declares every entry point listed in a YAML manifest.
// Groups are declared in lexical order, records in file order.
func (c *Catalog) LoadManifest(r io.Reader) error {
	var doc manifest

	err := yaml.NewDecoder(r).Decode(&doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errParseManifestFailed, err)
	}

	groups := make([]string, 0, len(doc.EntryPoints))
	for group := range doc.EntryPoints {
		groups = append(groups, group)
	}

	slices.Sort(groups)

	for _, group := range groups {
		for _, ep := range doc.EntryPoints[group] {
			ep.Group = group
			if err := c.Declare(ep); err != nil {
				return err
			}
		}
	}

	return nil
}

// LoadManifestFile declares the entry points listed in the manifest at path.
func (c *Catalog) LoadManifestFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errOpenManifestFailed, err)
	}
	defer file.Close()

	return c.LoadManifest(file)
}
