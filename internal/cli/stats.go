package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/schoolwerk/auditlog/internal/audit"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	From string
	To   string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats <school-id>",
		Short: "Aggregate audit activity for one school",
		Long: `Count a school's audit records grouped by action, entity type, actor,
and calendar day, optionally bounded to a date range.

Example:
  auditlog stats sch1 --from 2026-01-01 --to 2026-02-01`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "end date, exclusive (YYYY-MM-DD)")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions, schoolID string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var statsRange audit.StatsRange
	var err error
	if statsRange.Start, err = parseDateFlag(opts.From); err != nil {
		return WrapExitError(ExitCommandError, "invalid --from date", err)
	}
	if statsRange.End, err = parseDateFlag(opts.To); err != nil {
		return WrapExitError(ExitCommandError, "invalid --to date", err)
	}

	svc, _, closeFn, err := openService(cmd.Context(), opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeFn()

	stats, err := svc.Statistics(cmd.Context(), schoolID, statsRange)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to aggregate statistics", err)
	}

	if opts.Format == "json" {
		return out.Success(stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "school %s: %d record(s)\n", schoolID, stats.TotalLogs)
	printGroup(w, "by action", toStringKeys(stats.ByAction))
	printGroup(w, "by entity type", toStringKeys(stats.ByEntityType))
	printGroup(w, "by user", stats.ByUser)
	printGroup(w, "by date", stats.ByDate)

	return nil
}

// parseDateFlag parses a YYYY-MM-DD flag value as a UTC instant.
// Empty input means unbounded.
func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

func toStringKeys[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func printGroup(w interface{ Write([]byte) (int, error) }, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-28s %d\n", k, counts[k])
	}
}
