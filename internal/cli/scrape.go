package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/perk-events/internal/config"
	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/metrics"
	"github.com/pfrederiksen/perk-events/internal/scraper"
	"github.com/pfrederiksen/perk-events/internal/storage"
	"github.com/pfrederiksen/perk-events/internal/store"
)

// DropNotTomorrow labels cards removed by the strict date filter.
const DropNotTomorrow = "not_tomorrow"

type scrapeFlags struct {
	strictDate  bool
	maxLoadMore int
	dryRun      bool
	format      string
}

func newScrapeCmd(a *app) *cobra.Command {
	var flags scrapeFlags

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape tomorrow's perk events and upsert them into the store",
		Long: `Loads the HeelLife listing in a headless browser, expands it with Load More,
reads each event's perks from its detail page, normalizes the records, writes
events_export.json to the snapshot directory and upserts the rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScrape(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.strictDate, "strict-date", true, "Keep only cards dated tomorrow in the campus timezone")
	cmd.Flags().IntVar(&flags.maxLoadMore, "max-load-more", scraper.DefaultMaxLoadMore, "Maximum Load More clicks")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Scrape and normalize without writing the export or the store")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Summary format: text or json")

	return cmd
}

func (a *app) runScrape(cmd *cobra.Command, flags scrapeFlags) error {
	format, err := parseFormat(flags.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("strict-date") {
		a.cfg.Scrape.StrictDate = flags.strictDate
	}
	if cmd.Flags().Changed("max-load-more") {
		a.cfg.Scrape.MaxLoadMore = flags.maxLoadMore
	}
	if flags.dryRun {
		a.cfg.Store = config.StoreConfig{Backend: store.BackendMemory}
	}
	if err := a.cfg.ValidateForScrape(); err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := a.context(cmd)
	defer cancel()

	start := a.now()
	rec := metrics.New()
	defer a.finishMetrics(ctx, rec, "scrape", start)

	snapshots, err := storage.New(a.cfg.SnapshotDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	st, err := a.openConfiguredStore(ctx, flags.dryRun)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, st)

	a.log.Info("Starting scrape", logger.Fields{
		"listing_url":   a.cfg.Scrape.ListingURL,
		"strict_date":   a.cfg.Scrape.StrictDate,
		"max_load_more": a.cfg.Scrape.MaxLoadMore,
		"dry_run":       flags.dryRun,
	})

	page, closePage, err := a.openPage(ctx, scraper.BrowserOptions{
		ExecPath:  a.cfg.Scrape.ChromePath,
		Headless:  true,
		UserAgent: scraper.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer closePage()

	extractor := scraper.New(page, scraper.Options{
		ListingURL:  a.cfg.Scrape.ListingURL,
		BaseURL:     a.cfg.Scrape.BaseURL,
		MaxLoadMore: a.cfg.Scrape.MaxLoadMore,
		StrictDate:  a.cfg.Scrape.StrictDate,
		Location:    loc,
		Now:         a.now,
	})
	result, err := extractor.Run(ctx)
	if err != nil {
		return fmt.Errorf("scraping listing: %w", err)
	}

	rec.Scraped.Add(float64(result.Cards))
	rec.PerkFailures.Add(float64(len(result.PerkFailures)))
	if result.NotTomorrow > 0 {
		rec.Dropped.WithLabelValues(DropNotTomorrow).Add(float64(result.NotTomorrow))
	}

	rows, report := event.Normalize(result.Events, event.NormalizeOptions{
		Location: loc,
		Now:      a.now(),
	})
	rec.AddDropped(report.Dropped)
	if dropped := report.DroppedTotal(); dropped > 0 {
		a.log.Warn("Dropped invalid records", logger.Fields{
			"dropped":   dropped,
			"by_reason": report.Dropped,
		})
	}

	summary := &ScrapeSummary{
		RunID:            a.runID,
		CheckedAt:        a.now().UTC(),
		Cards:            result.Cards,
		LoadMoreClicks:   result.LoadMoreClicks,
		PaginationCapped: result.PaginationCapped,
		NotTomorrow:      result.NotTomorrow,
		PerkFailures:     len(result.PerkFailures),
		Normalize:        report,
		DryRun:           flags.dryRun,
	}

	previous, err := snapshots.LoadExport()
	if err != nil {
		a.log.Warn("Ignoring unreadable previous export", logger.Fields{"error": err.Error()})
	}
	diff := event.Diff(previous, rows)
	summary.New = len(diff.New)
	summary.Updated = diff.Updated
	for _, change := range diff.Changes {
		a.log.Debug("Event changed", logger.Fields{
			"title": change.Key.Title,
			"field": change.Field,
			"old":   change.OldValue,
			"new":   change.NewValue,
		})
	}

	if !flags.dryRun {
		path, err := snapshots.SaveExport(rows)
		if err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		summary.ExportPath = path
	}

	n, err := st.UpsertEvents(ctx, rows)
	if err != nil {
		return fmt.Errorf("upserting events: %w", err)
	}
	summary.Upserted = n
	rec.Upserted.Add(float64(n))

	a.log.Info("Scrape complete", logger.Fields{
		"cards":         summary.Cards,
		"clicks":        summary.LoadMoreClicks,
		"not_tomorrow":  summary.NotTomorrow,
		"perk_failures": summary.PerkFailures,
		"normalized":    report.Output,
		"new":           summary.New,
		"updated":       summary.Updated,
		"dropped":       report.DroppedTotal(),
		"upserted":      n,
		"export":        summary.ExportPath,
	})

	return WriteScrapeSummary(cmd.OutOrStdout(), summary, format)
}
