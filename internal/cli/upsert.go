package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/metrics"
	"github.com/pfrederiksen/perk-events/internal/storage"
)

func newUpsertCmd(a *app) *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Replay a scrape export into the store",
		Long: `Reads an events_export.json written by scrape and upserts its rows. Without
--snapshot the export in the snapshot directory is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runUpsert(cmd, snapshot)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Export file to replay (default: <snapshot dir>/events_export.json)")

	return cmd
}

func (a *app) runUpsert(cmd *cobra.Command, snapshot string) error {
	if err := a.cfg.ValidateStore(); err != nil {
		return err
	}

	if snapshot == "" {
		snapshots, err := storage.New(a.cfg.SnapshotDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		snapshot = snapshots.ExportPath()
	}

	rows, err := storage.LoadEvents(snapshot)
	if err != nil {
		return err
	}

	ctx, cancel := a.context(cmd)
	defer cancel()

	start := a.now()
	rec := metrics.New()
	defer a.finishMetrics(ctx, rec, "upsert", start)

	st, err := a.openConfiguredStore(ctx, false)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, st)

	n, err := st.UpsertEvents(ctx, rows)
	if err != nil {
		return fmt.Errorf("upserting events: %w", err)
	}
	rec.Upserted.Add(float64(n))

	a.log.Info("Upsert complete", logger.Fields{
		"snapshot": snapshot,
		"upserted": n,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Upserted %d events from %s\n", n, snapshot)
	return nil
}
