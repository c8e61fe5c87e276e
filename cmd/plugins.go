package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
)

func newPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "Resolve installed hooks and list hook specifications and implementations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			h, err := newHost(c.Flags(), entrypoint.Default)
			if err != nil {
				return err
			}

			if err := h.scanner.Discover(c.Context()); err != nil {
				return err
			}

			return h.describe(c.OutOrStdout())
		},
	}
}

// describe writes the resolved entry points, then every hook with its implementations in call order.
func (h *host) describe(w io.Writer) error {
	var b strings.Builder

	resolved := h.scanner.Resolved()

	b.WriteString("Entry points:\n")

	for _, module := range slices.Sorted(maps.Keys(resolved)) {
		fmt.Fprintf(&b, "  %s\n", resolved[module])
	}

	b.WriteString("Hooks:\n")

	for _, spec := range h.manager.Specs() {
		fmt.Fprintf(&b, "  %s(%s)\n", spec.Name, strings.Join(spec.Params, ", "))

		for _, impl := range h.manager.Implementations(spec.Name) {
			fmt.Fprintf(&b, "    - %s\n", impl.Plugin)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}
