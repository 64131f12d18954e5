package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pivotql/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Cube        string
	Fingerprint string
	Status      string
	Limit       int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded queries",
		Long: `List the queries recorded in the history database, newest first, or
show one entry by id. Requires history_path in the configuration.

Examples:
  pivotql history
  pivotql history --status failed --limit 10
  pivotql history --fingerprint 3f2a... --format json
  pivotql history 0190f5c2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cube, "cube", "", "only entries for this cube")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only entries with this request fingerprint")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only entries with this status (ok|failed)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of entries (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, closeHistory, err := opts.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()
	if st == nil {
		return NewExitError(ExitCommandError, "history is disabled: set history_path in the config")
	}

	if len(args) == 1 {
		e, err := st.Get(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "unknown history entry", err)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read history", err)
		}
		return out.Success(entryOutput(e))
	}

	status := store.Status(opts.Status)
	switch status {
	case "", store.StatusOK, store.StatusFailed:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be ok or failed", opts.Status))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "limit must not be negative")
	}

	entries, err := st.List(ctx, store.Filter{
		Cube:        opts.Cube,
		Fingerprint: opts.Fingerprint,
		Status:      status,
		Limit:       opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}
	out.VerboseLog("%d entries", len(entries))
	return out.Success(historyOutput(entries))
}

type historyOutput []store.Entry

func (h historyOutput) MarshalJSON() ([]byte, error) {
	entries := []store.Entry(h)
	if entries == nil {
		entries = []store.Entry{}
	}
	return json.Marshal(map[string]any{"entries": entries})
}

func (h historyOutput) WriteText(w io.Writer) error {
	if len(h) == 0 {
		_, err := fmt.Fprintln(w, "No history entries.")
		return err
	}
	t := &textTable{header: []string{"ID", "Created", "Cube", "Scenario", "Status", "Rows", "Duration"}}
	for _, e := range h {
		status := string(e.Status)
		if e.ErrorCode != "" {
			status += " (" + e.ErrorCode + ")"
		}
		t.rows = append(t.rows, []string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			e.Cube,
			e.Scenario,
			status,
			strconv.Itoa(e.Rows),
			e.Duration.String(),
		})
	}
	return t.WriteText(w)
}

type entryOutput store.Entry

func (e entryOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(store.Entry(e))
}

func (e entryOutput) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "ID:          %s\n", e.ID)
	fmt.Fprintf(w, "Created:     %s\n", e.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Cube:        %s\n", e.Cube)
	if e.Scenario != "" {
		fmt.Fprintf(w, "Scenario:    %s\n", e.Scenario)
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", e.Fingerprint)
	fmt.Fprintf(w, "Status:      %s\n", e.Status)
	if e.Error != "" {
		fmt.Fprintf(w, "Error:       [%s] %s\n", e.ErrorCode, e.Error)
	} else {
		fmt.Fprintf(w, "Rows:        %d\n", e.Rows)
	}
	fmt.Fprintf(w, "Duration:    %s\n", e.Duration)
	_, err := fmt.Fprintf(w, "\n%s\n", e.MDX)
	return err
}
