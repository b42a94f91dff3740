package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/mediaplayer/internal/errmsg"
	"github.com/llehouerou/mediaplayer/internal/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show recent playback sessions",
	Long: `Show recent playback sessions from the journal.
With a session ID, show the state changes of that session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.JournalEnabled() {
		return errors.New("the playback journal is disabled in the configuration")
	}
	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return errmsg.Wrap(errmsg.OpJournalOpen, err)
	}
	defer j.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		id, err := j.ResolveID(ctx, args[0])
		if err != nil {
			return errmsg.Wrap(errmsg.OpHistoryRead, err)
		}
		if id == "" {
			return fmt.Errorf("no session %q", args[0])
		}
		transitions, err := j.Transitions(ctx, id)
		if err != nil {
			return errmsg.Wrap(errmsg.OpHistoryRead, err)
		}
		writeTransitions(out, transitions)
		return nil
	}

	sessions, err := j.Recent(ctx, historyLimit)
	if err != nil {
		return errmsg.Wrap(errmsg.OpHistoryRead, err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No playback sessions recorded.")
		return nil
	}
	writeSessions(out, sessions, time.Now())
	return nil
}

func writeSessions(out io.Writer, sessions []journal.Session, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"ID", "STARTED", "STATE", "POSITION", "LENGTH", "SOURCE"}, "\t"))
	for _, s := range sessions {
		position := "-"
		if s.HasPosition {
			position = formatPosition(s.LastPosition)
		}
		length := "open"
		if !s.EndedAt.IsZero() {
			length = s.Duration().Round(time.Second).String()
		}
		state := s.FinalState
		if s.Error != "" {
			state += " (" + s.Error + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(s.ID),
			humanize.RelTime(s.StartedAt, now, "ago", "from now"),
			state,
			position,
			length,
			s.Source,
		)
	}
	_ = w.Flush()
}

func writeTransitions(out io.Writer, transitions []journal.Transition) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATE\tPOSITION\tMESSAGE")
	for _, t := range transitions {
		position := "-"
		if t.HasPosition {
			position = formatPosition(t.Position)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.At.Local().Format(time.TimeOnly), t.State, position, t.Message)
	}
	_ = w.Flush()
}

// shortID keeps the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatPosition(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
