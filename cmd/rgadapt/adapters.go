package main

import (
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/unalkalkan/rgadapt/internal/adapter"
)

func newAdaptersCmd(a *app) *cobra.Command {
	var override string
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List the available adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("adapters") {
				override = a.cfg.Adapters.Override
			}
			active, err := adapter.Select(adapter.ParseOverride(override))
			if err != nil {
				return err
			}
			_, disabled := adapter.Defaults()
			printAdapters(cmd.OutOrStdout(), active, disabled, isTTYWriter(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().StringVar(&override, "adapters", "", `adapter selection, e.g. "-zip,tar", "+mail" or "poppler,zip"`)
	return cmd
}

// printAdapters writes the active adapters, then the default disabled ones
// that are not active.
func printAdapters(w io.Writer, active, disabled []adapter.Adapter, color bool) {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	name := r.NewStyle().Bold(true)
	muted := r.NewStyle().Foreground(lipgloss.Color("8"))
	if !color {
		header, name, muted = r.NewStyle(), r.NewStyle(), r.NewStyle()
	}

	activeNames := adapter.Names(active)
	var inactive []adapter.Adapter
	for _, d := range disabled {
		if !slices.Contains(activeNames, d.Metadata().Name) {
			inactive = append(inactive, d)
		}
	}

	section := func(title string, list []adapter.Adapter) {
		fmt.Fprintln(w, header.Render(title))
		for _, ad := range list {
			m := ad.Metadata()
			fmt.Fprintf(w, "  %s %s\n", name.Render(m.Name), muted.Render(fmt.Sprintf("v%d", m.Version)))
			fmt.Fprintf(w, "    %s\n", m.Description)
			fmt.Fprintf(w, "    %s %s\n", muted.Render("extensions:"), matcherList(m.Matchers(false)))
			if m.SlowMatchers != nil {
				fmt.Fprintf(w, "    %s %s\n", muted.Render("with --mime:"), matcherList(m.Matchers(true)))
			}
		}
		fmt.Fprintln(w)
	}
	section("Active adapters", active)
	if len(inactive) > 0 {
		section("Disabled adapters (enable with --adapters +name)", inactive)
	}
}

func matcherList(seq iter.Seq[adapter.SlowMatcher]) string {
	var parts []string
	for m := range seq {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, " ")
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
