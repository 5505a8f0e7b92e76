package cmd

import (
	"github.com/spf13/cobra"
)

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Describe the active snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snapshots, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := snapshots.Load(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(snap.Info())
		},
	}
}
