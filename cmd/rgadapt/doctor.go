package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/rgadapt/internal/adapter"
	"github.com/unalkalkan/rgadapt/internal/health"
	"github.com/unalkalkan/rgadapt/internal/storage"
)

func newDoctorCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check converters and the cache backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			checker, closeBackend, err := a.newChecker(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			report := checker.Run(ctx)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if report.Status == health.StatusUnhealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// newChecker registers a check for every converter binary the active
// adapters need, and one for the cache backend unless caching is off.
func (a *app) newChecker(ctx context.Context) (*health.Checker, func(), error) {
	adapters, err := adapter.Select(adapter.ParseOverride(a.cfg.Adapters.Override))
	if err != nil {
		return nil, nil, err
	}

	checker := health.NewChecker(version)
	for _, bin := range adapter.Binaries(adapters) {
		checker.Register(bin, health.BinaryCheck(bin))
	}

	closeBackend := func() {}
	if !a.cfg.Cache.Disabled {
		backend, err := storage.New(ctx, a.cfg.Cache.Storage)
		if err != nil {
			checker.Register("cache", func(context.Context) (health.Status, error) {
				return health.StatusUnhealthy, err
			})
		} else {
			checker.Register("cache", health.BackendCheck(backend))
			closeBackend = func() { backend.Close() }
		}
	}
	return checker, closeBackend, nil
}

func printReport(w io.Writer, r health.Report) {
	for _, name := range r.Names() {
		res := r.Checks[name]
		if res.Error != "" {
			fmt.Fprintf(w, "%-10s %-9s %s\n", name, res.Status, res.Error)
		} else {
			fmt.Fprintf(w, "%-10s %s\n", name, res.Status)
		}
	}
	fmt.Fprintf(w, "overall: %s\n", r.Status)
}
