package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sdnscreen/pkg/platform/sentinel"
)

func newEntryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entry ENTRY_ID",
		Short: "Print the full record of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("entry id must be an integer: %q", args[0])
			}
			ctx := cmd.Context()
			snapshots, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := snapshots.Get(ctx, entryID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("entry %d not found", entryID)
			}
			if err != nil {
				return err
			}
			return a.printJSON(rec)
		},
	}
}
