package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolwerk/auditlog/internal/audit"
)

// RecentOptions holds flags for the recent command.
type RecentOptions struct {
	*RootOptions
	Limit      int
	SchoolID   string
	EntityType string
	Action     string
}

// NewRecentCommand creates the recent command.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent audit records",
		Long: `List the most recent audit records across the log, newest first,
optionally scoped to a school, entity type, or action.

Example:
  auditlog recent --limit 20 --school sch1 --action DELETE`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max records (default from config)")
	cmd.Flags().StringVar(&opts.SchoolID, "school", "", "scope to one school")
	cmd.Flags().StringVar(&opts.EntityType, "entity-type", "", "scope to GRADE or ABSENCE")
	cmd.Flags().StringVar(&opts.Action, "action", "", "scope to CREATE, UPDATE, or DELETE")

	return cmd
}

func runRecent(cmd *cobra.Command, opts *RecentOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	svc, cfg, closeFn, err := openService(cmd.Context(), opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeFn()

	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.Query.RecentLimit
	}

	records, err := svc.Recent(cmd.Context(), limit, audit.RecentQuery{
		SchoolID:   opts.SchoolID,
		EntityType: audit.EntityType(strings.ToUpper(opts.EntityType)),
		Action:     audit.Action(strings.ToUpper(opts.Action)),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query records", err)
	}

	if opts.Format == "json" {
		return out.Success(records)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %-6s %-7s %-12s by %s (%s)\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Action, rec.EntityType, rec.EntityID, rec.UserName, rec.ID)
	}

	return nil
}
