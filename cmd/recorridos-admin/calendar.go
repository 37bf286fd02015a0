package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"recorridos/internal/calendar"
	"recorridos/internal/cli"
	"recorridos/internal/core"
	"recorridos/internal/export"
	"recorridos/internal/memory"
)

type monthLister interface {
	ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error)
}

func newCalendarCmd(opts *options, defaultSeed string) *cobra.Command {
	var (
		year, month int
		seed        string
		useSeed     bool
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month of recorridos as a text calendar",
		Long: `Print a month of recorridos as a text calendar. Days with recorridos
are marked with an asterisk. Reads the SQLite database, or the seed file
with --from-seed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			clock := calendar.SystemClock{}
			curMonth, curYear := calendar.Month(clock)
			if !cmd.Flags().Changed("month") {
				month = curMonth
			}
			if !cmd.Flags().Changed("year") {
				year = curYear
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("--month must be between 1 and 12, got %d", month)
			}

			var src monthLister
			if useSeed {
				store, err := memory.NewFromFile(seed)
				if err != nil {
					return fmt.Errorf("load seed: %w", err)
				}
				src = store
			} else {
				repo, err := cli.OpenSQLite(slog.Default(), opts.dbPath)
				if err != nil {
					return err
				}
				defer repo.Close()
				src = repo
			}

			records, err := src.ListRecorridosByMonth(cmd.Context(), year, month)
			if err != nil {
				return fmt.Errorf("list recorridos: %w", err)
			}
			if dropped := calendar.Dropped(records); dropped > 0 {
				slog.Debug("Recorridos with malformed fecha skipped", "dropped", dropped)
			}
			buckets := calendar.Aggregate(records, month, year)
			printMonth(cmd.OutOrStdout(), year, month, buckets, clock)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	cmd.Flags().BoolVar(&useSeed, "from-seed", false, "read the seed file instead of the database")
	cmd.Flags().StringVar(&seed, "seed", defaultSeed, "seed file used with --from-seed")
	return cmd
}

func printMonth(w io.Writer, year, month int, b calendar.Buckets, clock calendar.Clock) {
	fmt.Fprintf(w, "%s %d\n", export.MonthName(month), year)

	labels := make([]string, len(calendar.WeekdayLabels))
	for i, l := range calendar.WeekdayLabels {
		labels[i] = fmt.Sprintf("%-4s", l)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(labels, " "), " "))

	for _, row := range calendar.BuildGrid(month, year, b, clock) {
		cells := make([]string, len(row))
		for i, c := range row {
			switch {
			case c == nil:
				cells[i] = "    "
			case c.HasRecorridos:
				cells[i] = fmt.Sprintf("%3d*", c.Day)
			default:
				cells[i] = fmt.Sprintf("%3d ", c.Day)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}

	s := calendar.Summarize(b)
	fmt.Fprintf(w, "\nDías con recorridos: %d\n", s.Days)
	fmt.Fprintf(w, "Recorridos: %d\n", s.Recorridos)
	fmt.Fprintf(w, "Asientos: %d\n", s.Asientos)
	fmt.Fprintf(w, "Vehículos usados: %d\n", s.Vehiculos)
	fmt.Fprintf(w, "Costo total: %.2f\n", s.Costo.Pesos())
}
