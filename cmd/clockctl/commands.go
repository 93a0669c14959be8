package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"clockout.service/internal/core"
	"clockout.service/internal/core/model"
	"clockout.service/internal/core/policy"
	"clockout.service/internal/export"
	"clockout.service/pkg/logger"
	"github.com/spf13/cobra"
)

const appVersion = "1.0.0"

type opener func(ctx context.Context) (*core.AttendanceService, func() error, error)

func newRootCmd(open opener) *cobra.Command {
	var (
		verbose bool
		svc     *core.AttendanceService
		closer  func() error
	)

	root := &cobra.Command{
		Use:           "clockctl",
		Short:         "Clock in, clock out and check the mandated clock-out time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetupCLI(cmd.ErrOrStderr(), verbose)

			var err error
			svc, closer, err = open(cmd.Context())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closer == nil {
				return nil
			}
			return closer()
		},
	}
	root.Version = appVersion
	root.SetVersionTemplate("clockctl v{{.Version}}\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	service := func() *core.AttendanceService { return svc }
	root.AddCommand(
		newInCmd(service),
		newOutCmd(service),
		newStatusCmd(service),
		newCalcCmd(service),
		newRecordsCmd(service),
		newExportCmd(service),
	)
	return root
}

func newInCmd(svc func() *core.AttendanceService) *cobra.Command {
	return &cobra.Command{
		Use:   "in",
		Short: "Clock in now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := svc().ClockIn(cmd.Context())
			if err != nil && !errors.Is(err, core.ErrLateArrival) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clocked in at %s.\n", rec.ClockInTime.Format(time.TimeOnly))
			if err != nil {
				fmt.Fprintf(out, "Violation: %s\n", err)
				return nil
			}
			fmt.Fprintf(out, "Clock out at %s.\n", rec.MandatedClockOut.Format(time.TimeOnly))
			return nil
		},
	}
}

func newOutCmd(svc func() *core.AttendanceService) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "out",
		Short: "Clock out now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := svc().ClockOut(cmd.Context(), confirm)
			var early *core.EarlyDepartureError
			if errors.As(err, &early) {
				return fmt.Errorf("%w (rerun with --confirm)", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Clocked out at %s after %.2f hours.\n",
				rec.ClockOutTime.Format(time.TimeOnly), rec.HoursWorked())
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Clock out even before the mandated time")
	return cmd
}

func newStatusCmd(svc func() *core.AttendanceService) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := svc().Today(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Date:\t%s\n", today.Date)
			rec := today.Record
			if rec == nil {
				rec = &model.AttendanceRecord{}
			}
			fmt.Fprintf(w, "Clock in:\t%s\n", clockText(rec.ClockInTime))
			switch {
			case today.LateArrival:
				fmt.Fprintf(w, "Mandated clock out:\t%s\n", "none (late arrival)")
			case rec.MandatedClockOut != nil:
				fmt.Fprintf(w, "Mandated clock out:\t%s\n", clockText(rec.MandatedClockOut))
			}
			fmt.Fprintf(w, "Clock out:\t%s\n", clockText(rec.ClockOutTime))

			next := "done for today"
			if today.CanClockIn {
				next = "clockctl in"
			} else if today.CanClockOut {
				next = "clockctl out"
			}
			fmt.Fprintf(w, "Next:\t%s\n", next)
			return w.Flush()
		},
	}
}

func newCalcCmd(svc func() *core.AttendanceService) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "calc HH:MM[:SS]",
		Short: "Compute the mandated clock-out for a clock-in time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tod, err := policy.ParseTimeOfDay(args[0])
			if err != nil {
				return err
			}

			calc, err := svc().Calculate(cmd.Context(), date, tod)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clock in %s, clock out at %s.\n",
				calc.ClockIn.Format(time.DateTime), calc.MandatedClockOut.Format(time.TimeOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Clock-in date YYYY-MM-DD (default today)")
	return cmd
}

func newRecordsCmd(svc func() *core.AttendanceService) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := svc().Records(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tIN\tMANDATED\tOUT\tHOURS")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", r.Date,
					clockText(r.ClockInTime), clockText(r.MandatedClockOut), clockText(r.ClockOutTime), r.HoursWorked())
			}
			return w.Flush()
		},
	}
}

func newExportCmd(svc func() *core.AttendanceService) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "-" {
				return svc().Export(cmd.Context(), cmd.OutOrStdout())
			}
			if output == "" {
				output = export.Filename(time.Now())
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeExport(cmd.Context(), svc(), f); err != nil {
				os.Remove(output)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default attendance-YYYYMMDD.xlsx)")
	return cmd
}

func writeExport(ctx context.Context, svc *core.AttendanceService, f io.WriteCloser) error {
	if err := svc.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func clockText(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.TimeOnly)
}
