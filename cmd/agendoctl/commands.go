package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agendo-api/db"
	"agendo-api/internal/model"
	"agendo-api/internal/schedule"
	"agendo-api/internal/slots"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applied, err := db.Migrate(cmd.Context(), pool)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Strings("versions", applied))
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "applied", v)
		}
		return nil
	},
}

var slotsFlags struct {
	provider, service, date string
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show the slots a service offers on a date and why others are hidden",
	RunE: func(cmd *cobra.Command, _ []string) error {
		planner := schedule.NewPlanner(st, cfg.Location(), cfg.BookingMargin)
		return runSlots(cmd.Context(), cmd.OutOrStdout(), planner, slotsFlags.provider, slotsFlags.service, slotsFlags.date)
	},
}

var withdrawalsStatus string

var withdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "List withdrawal requests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithdrawals(cmd.Context(), cmd.OutOrStdout(), st, model.WithdrawalStatus(withdrawalsStatus))
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the database and print row counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd.Context(), cmd.OutOrStdout(), st)
	},
}

func init() {
	f := slotsCmd.Flags()
	f.StringVar(&slotsFlags.provider, "provider", "", "provider user id")
	f.StringVar(&slotsFlags.service, "service", "", "provider service id")
	f.StringVar(&slotsFlags.date, "date", "", "day to inspect, YYYY-MM-DD")
	for _, name := range []string{"provider", "service", "date"} {
		_ = slotsCmd.MarkFlagRequired(name)
	}
	withdrawalsCmd.Flags().StringVar(&withdrawalsStatus, "status", "", "pending, processing, paid or rejected")
}

func runSlots(ctx context.Context, w io.Writer, p *schedule.Planner, providerID, serviceID, date string) error {
	cands, svc, err := p.Explain(ctx, providerID, serviceID, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%d min) on %s\n", svc.Name, svc.DurationMinutes, date)
	if len(cands) == 0 {
		fmt.Fprintln(w, "no availability for this day")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tSTATUS")
	offered := 0
	for _, c := range cands {
		state := "offered"
		switch c.Reason {
		case slots.ReasonPast:
			state = "too soon"
		case slots.ReasonBusy:
			state = "busy"
		default:
			offered++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Label(p.Location()), c.End.In(p.Location()).Format("15:04"), state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d offered\n", offered, len(cands))
	return nil
}

type withdrawalLister interface {
	ListWithdrawals(ctx context.Context, providerID string, status model.WithdrawalStatus) ([]model.Withdrawal, error)
}

func runWithdrawals(ctx context.Context, w io.Writer, st withdrawalLister, status model.WithdrawalStatus) error {
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	list, err := st.ListWithdrawals(ctx, "", status)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROVIDER\tAMOUNT\tSTATUS\tREQUESTED")
	for _, wd := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d.%02d\t%s\t%s\n", wd.ID, wd.ProviderID,
			wd.AmountCents/100, wd.AmountCents%100, wd.Status, wd.RequestedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

type checker interface {
	Ping(ctx context.Context) error
	TableCounts(ctx context.Context) (map[string]int64, error)
}

func runCheck(ctx context.Context, w io.Writer, st checker) error {
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	counts, err := st.TableCounts(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%d\n", n, counts[n])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "database ok")
	return nil
}
