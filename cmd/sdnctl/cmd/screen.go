package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"sdnscreen/internal/screening/catalog"
	"sdnscreen/internal/screening/handler"
	"sdnscreen/internal/screening/service"
)

func newScreenCmd(a *app) *cobra.Command {
	var threshold, limit int
	c := &cobra.Command{
		Use:   "screen NAME...",
		Short: "Fuzzy-screen a name against the active snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.ScreenRequest{Name: strings.Join(args, " ")}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			return a.runScreen(cmd.Context(), req)
		},
	}
	c.Flags().IntVar(&threshold, "threshold", service.DefaultThreshold, "maximum edit distance for the threshold tier (0-10)")
	c.Flags().IntVar(&limit, "limit", service.DefaultLimit, "maximum hits (1-100)")
	return c
}

func (a *app) runScreen(ctx context.Context, req service.ScreenRequest) error {
	snapshots, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cat := catalog.New()
	if _, err := catalog.NewRefresher(cat, snapshots, a.cfg.Screening.RefreshInterval, catalog.WithLogger(a.log)).Refresh(ctx); err != nil {
		return err
	}
	svc := service.New(cat,
		service.WithLogger(a.log),
		service.WithQueryTimeout(a.cfg.Screening.QueryTimeout),
	)
	result, err := svc.Screen(ctx, req)
	if err != nil {
		return err
	}
	return a.printJSON(handler.FromScreenResult(result))
}
