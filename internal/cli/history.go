package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <entity-type> <entity-id>",
		Short: "Reconstruct the full timeline for one entity",
		Long: `Reconstruct the ordered timeline of every audit record for one entity,
with forward sequence numbers, field-level diffs for updates, and
creator/last-modifier provenance.

Example:
  auditlog history GRADE g1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, rootOpts, args[0], args[1])
		},
	}

	return cmd
}

func runHistory(cmd *cobra.Command, opts *RootOptions, entityType, entityID string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	svc, _, closeFn, err := openService(cmd.Context(), opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeFn()

	h, err := svc.EntityHistory(cmd.Context(), audit.EntityType(strings.ToUpper(entityType)), entityID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load history", err)
	}

	if opts.Format == "json" {
		return out.Success(h)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s: %d change(s)\n", h.EntityType, h.EntityID, h.TotalChanges)
	if h.TotalChanges == 0 {
		return nil
	}
	fmt.Fprintf(w, "created by %s at %s\n", h.CreatedBy, h.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "last modified by %s at %s\n", h.LastModifiedBy, h.LastModifiedAt.Format("2006-01-02 15:04:05"))

	// Timeline reads naturally oldest first in text output.
	for i := len(h.Entries) - 1; i >= 0; i-- {
		e := h.Entries[i]
		fmt.Fprintf(w, "#%d %s %s by %s", e.SequenceNumber,
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.UserName)
		if e.Reason != "" {
			fmt.Fprintf(w, " (%s)", e.Reason)
		}
		fmt.Fprintln(w)
		for _, c := range e.Changes {
			fmt.Fprintf(w, "    %s: %s -> %s\n", c.Field,
				snapshot.MarshalString(c.OldValue), snapshot.MarshalString(c.NewValue))
		}
	}

	return nil
}
