package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/rgadapt/internal/cache"
	"github.com/unalkalkan/rgadapt/internal/storage"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached conversions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := storage.New(ctx, a.cfg.Cache.Storage)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer backend.Close()

			n, err := cache.NewStore(backend, a.logger).Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached conversions\n", n)
			return nil
		},
	})
	return cmd
}
