package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

func newMonthCmd(a *app) *cobra.Command {
	now := time.Now()
	var year, month int
	var prayer string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the compressed iqamaah ranges of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var only model.PrayerName
			if prayer != "" {
				only = model.PrayerName(prayer)
				if !only.Valid() {
					return fmt.Errorf("unknown prayer %q", prayer)
				}
			}

			m, err := a.backends.ranges(a.cfg).LoadMonth(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			if only != "" {
				m.Ranges = model.Schedule{only: m.Ranges[only]}
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			return printMonth(cmd.OutOrStdout(), m)
		},
	}

	cmd.Flags().IntVar(&year, "year", now.Year(), "year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month (1-12)")
	cmd.Flags().StringVar(&prayer, "prayer", "", "only show one prayer")
	return cmd
}

func printMonth(w io.Writer, m model.MonthSchedule) error {
	fmt.Fprintf(w, "%s (%s to %s)\n", m.Label, m.Start, m.End)
	if !m.HasData {
		fmt.Fprintln(w, "no iqamaah times recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRAYER\tSLOT\tFROM\tTO\tTIME")
	for _, p := range model.Prayers {
		ranges, ok := m.Ranges[p]
		if !ok {
			continue
		}
		for _, r := range ranges {
			slot := "-"
			if p == model.Jumuah {
				slot = fmt.Sprint(r.SlotIndex + 1)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p, slot, r.StartDate, r.EndDate, r.Time)
		}
	}
	return tw.Flush()
}

// rangeFlags binds the flags every range mutation shares.
type rangeFlags struct {
	prayer string
	start  string
	end    string
	time   string
	slot   int
}

func (f *rangeFlags) bind(cmd *cobra.Command, timeRequired, endRequired bool) {
	cmd.Flags().StringVar(&f.prayer, "prayer", "", "fajr, dhuhr, asr, isha or jumuah")
	cmd.Flags().StringVar(&f.start, "start", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.time, "time", "", "iqamaah time (HH:MM, 24h)")
	_ = cmd.MarkFlagRequired("prayer")
	_ = cmd.MarkFlagRequired("start")
	if timeRequired {
		_ = cmd.MarkFlagRequired("time")
	}
	if endRequired {
		_ = cmd.MarkFlagRequired("end")
	}
}

// fullMonth fills an empty end date with the last day of the start's month.
// Only add uses it: update and delete name an existing range exactly.
func (f *rangeFlags) fullMonth() {
	if f.end != "" {
		return
	}
	start, ok := iqamah.ParseDate(f.start)
	if !ok {
		return
	}
	if b, err := iqamah.MonthBounds(start.Year(), int(start.Month())); err == nil {
		f.end = b.End
	}
}

func (f *rangeFlags) timeRange() model.TimeRange {
	return model.TimeRange{
		Prayer:    model.PrayerName(f.prayer),
		StartDate: f.start,
		EndDate:   f.end,
		Time:      f.time,
		SlotIndex: f.slot,
	}
}

func newAddCmd(a *app) *cobra.Command {
	var f rangeFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an iqamaah range (end defaults to the end of the start month)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.fullMonth()
			res, err := a.backends.ranges(a.cfg).AddRange(cmd.Context(), f.timeRange())
			if err != nil {
				return err
			}
			return a.report(cmd, "range created", res)
		},
	}
	f.bind(cmd, true, false)
	cmd.Flags().IntVar(&f.slot, "slot", 0, "jumuah slot index")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f rangeFlags
	var old rangeFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace an iqamaah range, keyed by its old dates and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			edited := f.timeRange()
			original := model.TimeRange{
				Prayer:    edited.Prayer,
				StartDate: old.start,
				EndDate:   old.end,
				Time:      old.time,
			}
			res, err := a.backends.ranges(a.cfg).UpdateRange(cmd.Context(), original, edited)
			if err != nil {
				return err
			}
			return a.report(cmd, "range updated", res)
		},
	}
	f.bind(cmd, true, true)
	cmd.Flags().StringVar(&old.start, "old-start", "", "start date of the range being replaced")
	cmd.Flags().StringVar(&old.end, "old-end", "", "end date of the range being replaced")
	cmd.Flags().StringVar(&old.time, "old-time", "", "time of the range being replaced")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var f rangeFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an iqamaah range (--time selects the jumuah slot)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.backends.ranges(a.cfg).RemoveRange(cmd.Context(), f.timeRange())
			if err != nil {
				return err
			}
			return a.report(cmd, "range deleted", res)
		},
	}
	f.bind(cmd, false, true)
	return cmd
}

func (a *app) report(cmd *cobra.Command, msg string, res any) error {
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
