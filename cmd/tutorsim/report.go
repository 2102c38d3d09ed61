package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/report"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/csvlog"
)

var reportBy string

var reportCmd = &cobra.Command{
	Use:   "report [csv]",
	Short: "Summarise logged sessions: mean and standard error per group",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Output.CSVPath
		if len(args) == 1 {
			path = args[0]
		}

		var by report.GroupBy
		switch reportBy {
		case "profile":
			by = report.ByProfile
		case "knowledge":
			by = report.ByKnowledge
		case "engagement":
			by = report.ByEngagement
		default:
			return fmt.Errorf("unknown grouping %q (profile, knowledge, engagement)", reportBy)
		}

		rows, err := csvlog.LoadRows(path)
		if err != nil {
			return err
		}
		groups, err := report.Summarize(rows, by)
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), groups, len(rows))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportBy, "by", "profile", "Group sessions by profile, knowledge or engagement")
	rootCmd.AddCommand(reportCmd)
}

func printReport(out io.Writer, groups []report.Group, sessions int) {
	if len(groups) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No sessions logged"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d session(s) in %d group(s)", sessions, len(groups))))
	fmt.Fprintln(out)

	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = "(none)"
		}
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render(key), dimStyle.Render(fmt.Sprintf("%d session(s)", g.Sessions)))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  metric\tn\tmean\tsem")
		for _, name := range report.Metrics {
			st := g.Stats[name]
			if st.N == 0 {
				fmt.Fprintf(w, "  %s\t0\t-\t-\n", name)
				continue
			}
			fmt.Fprintf(w, "  %s\t%d\t%.3f\t%.3f\n", name, st.N, st.Mean, st.SEM)
		}
		_ = w.Flush()
		fmt.Fprintln(out)
	}
}
