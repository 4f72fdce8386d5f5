package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/perk-events/internal/calendar"
	"github.com/pfrederiksen/perk-events/internal/digest"
	"github.com/pfrederiksen/perk-events/internal/filter"
	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/mailer"
	"github.com/pfrederiksen/perk-events/internal/metrics"
	"github.com/pfrederiksen/perk-events/internal/preferences"
)

type digestFlags struct {
	dryRun    bool
	format    string
	perks     string
	locations string
	keywords  string
	sort      string
	icsFile   string
}

// delivery is one email: the recipients and the digest they receive.
type delivery struct {
	to     []string
	digest *digest.Digest
}

func newDigestCmd(a *app) *cobra.Command {
	var flags digestFlags

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Email the digest of tomorrow's perk events",
		Long: `Queries the store for events in tomorrow's campus-local day, renders an HTML
and plain-text digest and sends it. With SUBSCRIBERS_FILE set, each active
subscriber gets a digest filtered to their perks; otherwise the full digest
goes to MAIL_TO.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDigest(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the emails instead of sending them")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Dry-run body format: text, html or json")
	cmd.Flags().StringVar(&flags.perks, "perks", "", "Only include events with these perks (e.g. credit,food)")
	cmd.Flags().StringVar(&flags.locations, "locations", "", "Only include events whose location contains one of these (comma-separated)")
	cmd.Flags().StringVar(&flags.keywords, "keywords", "", "Only include events whose title contains one of these (comma-separated)")
	cmd.Flags().StringVar(&flags.sort, "sort", "date", "Event order: date, title or location")
	cmd.Flags().StringVar(&flags.icsFile, "ics", "", "Also write tomorrow's events to this iCalendar file")

	return cmd
}

func (a *app) runDigest(cmd *cobra.Command, flags digestFlags) error {
	format, err := parseFormat(flags.format, FormatText, FormatHTML, FormatJSON)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flags.sort)
	if err != nil {
		return err
	}
	eventFilter, err := filter.Parse(flags.perks, flags.locations, flags.keywords)
	if err != nil {
		return err
	}

	if err := a.cfg.ValidateForDigest(flags.dryRun); err != nil {
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
	defer a.finishMetrics(ctx, rec, "digest", start)

	st, err := a.openConfiguredStore(ctx, false)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, st)

	builder := &digest.Builder{Source: st, Location: loc, Now: a.now}
	d, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	d = d.Filter(eventFilter)
	sortEvents(d.Events, order)
	rec.DigestEvents.Set(float64(len(d.Events)))

	a.log.Info("Built digest", logger.Fields{
		"day":    d.Day().Format("2006-01-02"),
		"events": len(d.Events),
		"filter": eventFilter.String(),
	})

	if flags.icsFile != "" {
		ics := calendar.GenerateICS(d.Events, a.now())
		if err := os.WriteFile(flags.icsFile, []byte(ics), 0644); err != nil {
			return fmt.Errorf("writing calendar: %w", err)
		}
		a.log.Info("Wrote calendar", logger.Fields{"path": flags.icsFile, "events": len(d.Events)})
	}

	if flags.dryRun && format == FormatJSON {
		return WriteDigest(cmd.OutOrStdout(), d, format)
	}

	deliveries, err := a.deliveries(d)
	if err != nil {
		return err
	}

	var m mailer.Mailer
	if flags.dryRun {
		dm := mailer.NewDryRunMailer(cmd.OutOrStdout())
		dm.HTML = format == FormatHTML
		m = dm
	} else {
		m, err = a.newMailer(a.cfg.Mail.APIKey)
		if err != nil {
			return fmt.Errorf("creating mailer: %w", err)
		}
	}

	sent := 0
	for _, dl := range deliveries {
		id, err := a.send(ctx, m, dl)
		if err != nil {
			return err
		}
		sent++
		rec.EmailsSent.Inc()
		a.log.Info("Sent digest", logger.Fields{
			"id":         id,
			"recipients": len(dl.to),
			"events":     len(dl.digest.Events),
		})
	}

	a.log.Info("Digest complete", logger.Fields{
		"events":  len(d.Events),
		"emails":  sent,
		"dry_run": flags.dryRun,
	})
	return nil
}

// deliveries plans the emails: one per active subscriber when a subscribers
// file is configured, skipping subscribers with nothing to receive, or one
// full digest to MAIL_TO otherwise.
func (a *app) deliveries(d *digest.Digest) ([]delivery, error) {
	if a.cfg.SubscribersFile == "" {
		return []delivery{{to: a.cfg.Mail.To, digest: d}}, nil
	}

	fs, err := preferences.NewFileStorage(a.cfg.SubscribersFile)
	if err != nil {
		return nil, err
	}
	subs, err := fs.Load()
	if err != nil {
		return nil, fmt.Errorf("loading subscribers: %w", err)
	}
	a.log.Debug("Loaded subscribers", logger.Fields{"path": fs.Path(), "count": len(subs)})

	var out []delivery
	for _, sub := range subs.ActiveSubscribers() {
		personal := d.Filter(sub.Filter())
		if personal.Empty() {
			a.log.Debug("No matching events for subscriber", logger.Fields{"email": sub.Email})
			continue
		}
		out = append(out, delivery{to: []string{sub.Email}, digest: personal})
	}
	return out, nil
}

func (a *app) send(ctx context.Context, m mailer.Mailer, dl delivery) (string, error) {
	html, err := dl.digest.HTML()
	if err != nil {
		return "", err
	}

	subject := a.cfg.Mail.Subject
	if subject == "" {
		subject = mailer.DefaultSubject
	}

	id, err := m.Send(ctx, mailer.Message{
		From:    a.cfg.Mail.From,
		To:      dl.to,
		Subject: subject,
		HTML:    html,
		Text:    dl.digest.Text(),
	})
	if err != nil {
		return "", fmt.Errorf("sending digest: %w", err)
	}
	return id, nil
}
