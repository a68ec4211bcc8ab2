package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seminar-cal/internal/calendar"
	"github.com/pfrederiksen/seminar-cal/internal/event"
	"github.com/pfrederiksen/seminar-cal/internal/filter"
	"github.com/pfrederiksen/seminar-cal/internal/logger"
	"github.com/pfrederiksen/seminar-cal/internal/storage"
)

// listFlags select stored records for export and list.
type listFlags struct {
	from       string
	days       int
	dateRange  string
	category   string
	titles     []string
	hosts      []string
	locations  []string
	weekends   bool
	attendance string
}

func (l *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.from, "from", "", "First date to include (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&l.days, "days", 0, "Only include events within this many days (0 = no limit)")
	cmd.Flags().StringVar(&l.dateRange, "range", "", "Date range such as 'Oct 1-15' or 'November' (overrides --from/--days)")
	cmd.Flags().StringVar(&l.category, "category", "", "Only include events with this category label")
	cmd.Flags().StringSliceVar(&l.titles, "title", nil, "Only include titles containing any of these words")
	cmd.Flags().StringSliceVar(&l.hosts, "host", nil, "Only include these hosts")
	cmd.Flags().StringSliceVar(&l.locations, "location", nil, "Only include locations containing any of these words")
	cmd.Flags().BoolVar(&l.weekends, "weekends", false, "Only include weekend events")
	cmd.Flags().StringVar(&l.attendance, "attendance", "any", "Attendance: any, virtual or in-person")
}

// selection builds the store query and the in-memory filter applied to its
// results.
func (l *listFlags) selection(now time.Time) (storage.ListFilter, *filter.Filter, error) {
	attendance, err := filter.ParseAttendance(l.attendance)
	if err != nil {
		return storage.ListFilter{}, nil, err
	}
	f := &filter.Filter{
		Titles:       l.titles,
		Hosts:        l.hosts,
		Locations:    l.locations,
		WeekendsOnly: l.weekends,
		Attendance:   attendance,
	}

	q := storage.ListFilter{Category: l.category}
	if l.dateRange != "" {
		from, to, err := filter.ParseDateRange(l.dateRange, now)
		if err != nil {
			return storage.ListFilter{}, nil, err
		}
		q.From, q.To = event.FormatDate(*from), event.FormatDate(*to)
		return q, f, nil
	}

	from := now
	if l.from != "" {
		d := event.ParseDate(l.from)
		if d.IsZero() {
			return storage.ListFilter{}, nil, fmt.Errorf("invalid --from date: %s", l.from)
		}
		from = d
	}
	q.From = event.FormatDate(from)
	if l.days > 0 {
		q.To = event.FormatDate(from.AddDate(0, 0, l.days))
	}
	return q, f, nil
}

// selectRecords lists stored records matching the flags.
func (l *listFlags) selectRecords(cmd *cobra.Command, store storage.Store, now time.Time) ([]*event.Record, error) {
	q, f, err := l.selection(now)
	if err != nil {
		return nil, err
	}
	recs, err := store.List(cmd.Context(), q)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	if !f.IsEmpty() {
		logger.Debug("Applying filter", logger.Fields{"filter": f.String()})
	}
	return f.Apply(recs), nil
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		out  string
		tz   string
		name string
		sel  listFlags
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored upcoming events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := sel.selectRecords(cmd, store, time.Now().In(loc))
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := calendar.WriteICS(w, recs, calendar.Options{Name: name, Location: loc}); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d events to %s\n", len(recs), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA timezone of the stored wall-clock times")
	cmd.Flags().StringVar(&name, "name", "Seminars", "Calendar display name")
	sel.register(cmd)
	return cmd
}

func newListCmd(g *globalFlags) *cobra.Command {
	var (
		format    string
		sortOrder string
		sel       listFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored upcoming events",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			order := SortOrder(sortOrder)
			if order != SortByDate && order != SortByHost && order != SortByTitle {
				return fmt.Errorf("invalid sort order: %s (must be 'date', 'host' or 'title')", sortOrder)
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := sel.selectRecords(cmd, store, time.Now())
			if err != nil {
				return err
			}
			sortRecords(recs, order)

			return WriteEvents(cmd.OutOrStdout(), &EventList{
				ListedAt:   time.Now().UTC(),
				Events:     recs,
				EventCount: len(recs),
			}, f, g.verbose)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&sortOrder, "sort", "date", "Sort order: date, host or title")
	sel.register(cmd)
	return cmd
}
