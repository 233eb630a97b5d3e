package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pharmadms/internal/dto"
	"pharmadms/internal/model"
	"pharmadms/internal/service"
)

func newPreviewCmd() *cobra.Command {
	var frequency, days, start, end string
	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Print the visit dates a schedule resolves to",
		Example: "  visitctl preview --frequency F8 --days 2,5 --start 2024-11-01 --end 2024-11-10",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, frequency, days, start, end)
		},
	}
	cmd.Flags().StringVar(&frequency, "frequency", "", "frequency code (F1|F2|F4|F8|F12)")
	cmd.Flags().StringVar(&days, "days", "", "comma-separated weekdays, 1=Mon ... 6=Sat")
	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD")
	for _, name := range []string{"frequency", "days", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runPreview(cmd *cobra.Command, frequency, days, start, end string) error {
	freq, err := model.ParseFrequency(frequency)
	if err != nil {
		return err
	}
	weekdays, err := service.ParseWeekdayList(days)
	if err != nil {
		return err
	}
	var r service.DateRange
	if r.Start, err = model.ParseDate(strings.TrimSpace(start)); err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	if r.End, err = model.ParseDate(strings.TrimSpace(end)); err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	dates, err := service.ResolveDates(freq, weekdays, r)
	if err != nil {
		return err
	}

	resp := dto.PreviewVisitPlanResponse{Frequency: string(freq), Dates: make([]string, len(dates))}
	for i, d := range dates {
		resp.Dates[i] = d.String()
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	for _, d := range resp.Dates {
		fmt.Fprintln(cmd.OutOrStdout(), d)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d dates (%s)\n", len(resp.Dates), resp.Frequency)
	return nil
}
