package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/volhours/internal/models"
	"github.com/balkashynov/volhours/internal/parser"
	"github.com/balkashynov/volhours/internal/tui"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin [event-id]",
	Short: "Check in to an event",
	Long: `Check in to an event. Opens the interactive timer by default, use --no-ui to
just record the check-in.

Examples:
  volhours checkin 3f6c...        # Check in and watch the timer
  volhours checkin 3f6c... --no-ui # Check in without UI`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		session, err := a.ledger.CheckIn(cmd.Context(), user.ID, args[0])
		if err != nil {
			return ledgerError(err)
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "⏱️  Checked in to event %s\n", session.EventID)
			fmt.Fprintf(out, "Started at: %s\n", session.StartTime.Local().Format("15:04:05"))
			fmt.Fprintf(out, "Session: %s\n", session.ID)
			return nil
		}

		// The timer falls back to the event ID when the lookup fails
		event, _ := a.dir.GetEvent(cmd.Context(), session.EventID)
		return tui.RunTimerTUI(session, event, func() (*models.HourSession, error) {
			closed, err := a.ledger.CheckOut(cmd.Context(), user.ID, session.EventID)
			return closed, ledgerError(err)
		})
	}),
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout [event-id]",
	Short: "Check out of an event and record the hours",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		session, err := a.ledger.CheckOut(cmd.Context(), user.ID, args[0])
		if err != nil {
			return ledgerError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "⏹️  Checked out of event %s\n", session.EventID)
		fmt.Fprintf(out, "Hours recorded: %s (%.2fh), pending approval\n", parser.FormatHours(session.Hours()), session.Hours())
		return nil
	}),
}

var logCmd = &cobra.Command{
	Use:   "log [event-id] [hours]",
	Short: "Log hours for an event without checking in",
	Long: `Log hours for an event without checking in. Hours accept decimals and
units.

Examples:
  volhours log 3f6c... 2.5
  volhours log 3f6c... 1h30m
  volhours log 3f6c... "45 minutes"`,
	Args: cobra.ExactArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		hours, err := parser.ParseHours(args[1])
		if err != nil {
			return err
		}

		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		session, err := a.ledger.LogDirect(cmd.Context(), user.ID, args[0], hours)
		if err != nil {
			return ledgerError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged %s for event %s (ID: %s), pending approval\n",
			parser.FormatHours(session.Hours()), session.EventID, session.ID)
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show events you are checked in to",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		sessions, err := a.ledger.OpenSessions(cmd.Context(), user.ID)
		if err != nil {
			return ledgerError(err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "Not checked in to any event")
			return nil
		}

		for _, s := range sessions {
			name := s.EventID
			if s.Event != nil {
				name = fmt.Sprintf("%s (%s)", s.Event.Name, s.EventID)
			}
			fmt.Fprintf(out, "⏱️  Checked in to %s\n", name)
			if s.StartTime != nil {
				fmt.Fprintf(out, "Started at: %s\n", s.StartTime.Local().Format("02/01/2006 15:04:05"))
				fmt.Fprintf(out, "Elapsed time: %s\n", parser.FormatDuration(time.Since(*s.StartTime)))
			}
		}
		return nil
	}),
}

var mineCmd = &cobra.Command{
	Use:     "mine",
	Aliases: []string{"ls"},
	Short:   "List your recorded hours",
	Args:    cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		sessions, err := a.ledger.ListMine(cmd.Context(), user.ID)
		if err != nil {
			return ledgerError(err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(cmd, sessions)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderSessions(sessions, false))
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your volunteer statistics",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := actingUser(cmd, a)
		if err != nil {
			return err
		}

		stats, err := a.ledger.MyStats(cmd.Context(), user.ID)
		if err != nil {
			return ledgerError(err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(cmd, stats)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderMyStats(stats))
		return nil
	}),
}

// printJSON writes v as indented JSON to the command's output
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	checkinCmd.Flags().Bool("no-ui", false, "Check in without the interactive timer")
	mineCmd.Flags().Bool("json", false, "JSON output")
	statsCmd.Flags().Bool("json", false, "JSON output")
}
