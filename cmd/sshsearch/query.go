package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/sshsearch/internal/directory"
	"gitlab.bluewillows.net/root/sshsearch/internal/matcher"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		asJSON    bool
		dedupe    bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "query TERM...",
		Short: "Print the matching hosts and exit",
		Long: `Print the hosts matching the given terms. Each term is a regular expression
matched against every known host; "user@pattern" also sets the login name of
the results. A host is listed once per matching term.`,
		Example: `  sshsearch query web
  sshsearch query alice@db '\[10\.0\.'
  sshsearch query --json --dedupe prod`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				records source.HostRecords
				err     error
			)
			if serverURL != "" {
				records, err = a.remoteQuery(cmd.Context(), serverURL, args)
			} else {
				var report matcher.Report
				report, err = a.localQuery(args)
				records = report.Records
				printSkipped(cmd.ErrOrStderr(), report)
			}
			if err != nil {
				return err
			}

			if dedupe {
				records = records.Deduplicate()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if records == nil {
					return enc.Encode([]struct{}{})
				}
				return enc.Encode(records)
			}

			for _, name := range records.DisplayNames() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "drop repeated records")
	cmd.Flags().StringVar(&serverURL, "server", "", "ask a running \"sshsearch serve\" at this address instead of reading the files")
	return cmd
}

func (a *app) localQuery(terms []string) (matcher.Report, error) {
	dir, err := directory.New(a.cfg.Paths, directory.WithLogger(a.logger))
	if err != nil {
		return matcher.Report{}, fmt.Errorf("creating directory: %w", err)
	}
	// Unreadable sources are logged and left empty.
	if err := dir.RefreshAll(); err != nil {
		a.logger.Debug("some sources could not be read", slog.String("error", err.Error()))
	}
	return dir.QueryReport(terms), nil
}

// printSkipped tells the user about host/term pairs that were skipped
// instead of matched, e.g. because a term is not a valid pattern.
func printSkipped(w io.Writer, report matcher.Report) {
	counts := report.InvalidReasons()
	if len(counts) == 0 {
		return
	}

	reasons := make([]string, 0, len(counts))
	for reason, n := range counts {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(reasons)

	fmt.Fprintf(w, "skipped %d host/term pairs (%s)\n", len(report.Invalid), strings.Join(reasons, ", "))
}

func (a *app) remoteQuery(ctx context.Context, serverURL string, terms []string) (source.HostRecords, error) {
	client, err := a.newClient(serverURL)
	if err != nil {
		return nil, err
	}
	return client.Search(ctx, terms)
}
