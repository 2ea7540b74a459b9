package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	UserID    string
	UserName  string
	UserRole  string
	OldData   string
	NewData   string
	Reason    string
	SchoolID  string
	StudentID string
	IPAddress string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log <action> <entity-type> <entity-id>",
		Short: "Append one audit record",
		Long: `Append one audit record for a committed mutation.

Snapshots are JSON objects; pass the pre-mutation state with --old and the
post-mutation state with --new. CREATE records carry no --old, DELETE
records no --new.

Example:
  auditlog log UPDATE GRADE g1 --user t1 --user-name "A. Jansen" \
    --old '{"grade":6,"subject":"Math"}' --new '{"grade":8,"subject":"Math"}' \
    --reason "re-graded exam" --student s9 --school sch1`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "acting user id (required)")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "acting user display name (required)")
	cmd.Flags().StringVar(&opts.UserRole, "user-role", "", "acting user role")
	cmd.Flags().StringVar(&opts.OldData, "old", "", "pre-mutation snapshot (JSON object)")
	cmd.Flags().StringVar(&opts.NewData, "new", "", "post-mutation snapshot (JSON object)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "free-text justification")
	cmd.Flags().StringVar(&opts.SchoolID, "school", "", "school correlation key")
	cmd.Flags().StringVar(&opts.StudentID, "student", "", "student correlation key")
	cmd.Flags().StringVar(&opts.IPAddress, "ip", "", "originating IP address")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("user-name")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions, action, entityType, entityID string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	oldData, err := parseSnapshotFlag(opts.OldData)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --old snapshot", err)
	}
	newData, err := parseSnapshotFlag(opts.NewData)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --new snapshot", err)
	}

	svc, _, closeFn, err := openService(cmd.Context(), opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeFn()

	rec, err := svc.Create(cmd.Context(), audit.CreateParams{
		Action:     audit.Action(strings.ToUpper(action)),
		EntityType: audit.EntityType(strings.ToUpper(entityType)),
		EntityID:   entityID,
		UserID:     opts.UserID,
		UserName:   opts.UserName,
		UserRole:   opts.UserRole,
		OldData:    oldData,
		NewData:    newData,
		Reason:     opts.Reason,
		SchoolID:   opts.SchoolID,
		StudentID:  opts.StudentID,
		IPAddress:  opts.IPAddress,
	})
	if audit.IsValidationError(err) {
		return WrapExitError(ExitCommandError, "rejected", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to append record", err)
	}

	return out.Text(fmt.Sprintf("appended %s (checksum %s)", rec.ID, rec.Checksum), rec)
}

// parseSnapshotFlag decodes a --old/--new JSON object into a snapshot.
// Empty input means the snapshot is absent.
func parseSnapshotFlag(raw string) (snapshot.Object, error) {
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return snapshot.ObjectFromAny(m)
}
