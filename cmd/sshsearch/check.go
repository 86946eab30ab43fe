package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/sshsearch/internal/directory"
	"gitlab.bluewillows.net/root/sshsearch/sources/knownhosts"
)

// errCheckFailed is returned when any source could not be read or any
// known_hosts line failed to parse.
var errCheckFailed = errors.New("check found problems")

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show the state of every source and validate known_hosts files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := directory.New(a.cfg.Paths, directory.WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}

			out := cmd.OutOrStdout()
			failed := false

			if err := dir.RefreshAll(); err != nil {
				failed = true
				fmt.Fprintln(out, problemStyle.Render(err.Error()))
			}

			statuses := dir.Status()
			printStatusTable(out, statuses)

			for _, st := range statuses {
				if st.Kind.IsConfig() || !st.Exists {
					continue
				}
				data, err := os.ReadFile(st.Path)
				if err != nil {
					failed = true
					fmt.Fprintln(out, problemStyle.Render(fmt.Sprintf("%s: %v", st.Name, err)))
					continue
				}
				if !printInspection(out, st.Name, knownhosts.Inspect(data)) {
					failed = true
				}
			}

			if failed {
				return errCheckFailed
			}
			return nil
		},
	}
}

func printStatusTable(out io.Writer, statuses []directory.SourceStatus) {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, []string{
			st.Name,
			st.Path,
			strconv.FormatBool(st.Exists),
			strconv.Itoa(st.Hosts),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("SOURCE", "PATH", "EXISTS", "HOSTS").
		Rows(rows...)

	fmt.Fprintln(out, t.Render())
}

// printInspection writes a known_hosts report and returns whether the file
// was free of problems.
func printInspection(out io.Writer, name string, r knownhosts.Report) bool {
	fmt.Fprintf(out, "%s: %d entries, %d hashed, %d plain, %d markers\n",
		name, r.Entries, r.Hashed, r.Plain, r.Markers)
	for _, p := range r.Problems {
		fmt.Fprintln(out, problemStyle.Render("  "+p.String()))
	}
	return r.Valid()
}
