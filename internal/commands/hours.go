package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/models"
	"github.com/balkashynov/volhours/internal/parser"
	"github.com/balkashynov/volhours/internal/tui"
)

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Review and manage everyone's hours (admin)",
}

var hoursListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all recorded hours",
	Long: `List all recorded hours, newest first.

Examples:
  volhours hours ls
  volhours hours ls --approved false   # Pending approval
  volhours hours ls --json`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		var approved *bool
		switch v, _ := cmd.Flags().GetString("approved"); v {
		case "":
		case "true", "false":
			b := v == "true"
			approved = &b
		default:
			return fmt.Errorf("--approved must be true or false, got %q", v)
		}

		sessions, err := a.ledger.ListAll(cmd.Context(), approved)
		if err != nil {
			return ledgerError(err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(cmd, sessions)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderSessions(sessions, true))
		return nil
	}),
}

var approveCmd = &cobra.Command{
	Use:   "approve [session-id]",
	Short: "Approve recorded hours",
	Long: `Approve recorded hours. Use --revoke to mark them as pending again.

Examples:
  volhours hours approve 9b1e...
  volhours hours approve 9b1e... --revoke`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		approved := !revoke

		session, err := a.ledger.SetApproval(cmd.Context(), args[0], &approved)
		if err != nil {
			return ledgerError(err)
		}

		who := session.UserID
		if session.User != nil {
			who = session.User.Email
		}
		if approved {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Approved %s for %s\n", parser.FormatHours(session.Hours()), who)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "↩️  Marked %s for %s as pending\n", parser.FormatHours(session.Hours()), who)
		}
		return nil
	}),
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Record hours on behalf of a volunteer",
	Long: `Record hours on behalf of a volunteer. Opens an interactive form by
default; flags pre-fill it. With --no-ui the flags are used as given.

Give either --hours, or --start and --end to compute them.

Examples:
  volhours hours manual
  volhours hours manual --email ann@example.org --event 3f6c... --hours 2.5 --approve --no-ui
  volhours hours manual --email ann@example.org --event 3f6c... --start "01/03/2024 09:00" --end "01/03/2024 12:30" --no-ui`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		prefilled := map[string]string{}
		for _, name := range []string{"email", "event", "hours", "start", "end"} {
			if v, _ := cmd.Flags().GetString(name); v != "" {
				prefilled[name] = v
			}
		}
		approve, _ := cmd.Flags().GetBool("approve")

		submit := func(entry ledger.ManualEntry) (*models.HourSession, error) {
			return a.ledger.CreateManualEntry(cmd.Context(), entry)
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if !noUI {
			if approve {
				prefilled["approve"] = "true"
			}
			return tui.RunManualEntryTUI(prefilled, submit)
		}

		entry, err := manualEntryFromFlags(prefilled, approve)
		if err != nil {
			return err
		}
		session, err := submit(entry)
		if err != nil {
			return ledgerError(err)
		}

		state := "pending approval"
		if session.Approved {
			state = "approved"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged %s for %s (%s) - ID: %s\n",
			parser.FormatHours(session.Hours()), entry.UserEmail, state, session.ID)
		return nil
	}),
}

// manualEntryFromFlags parses flag values into a manual entry. Times use the
// local zone unless they carry their own offset.
func manualEntryFromFlags(values map[string]string, approve bool) (ledger.ManualEntry, error) {
	entry := ledger.ManualEntry{
		UserEmail:    values["email"],
		EventID:      values["event"],
		MarkApproved: approve,
	}

	if v := values["hours"]; v != "" {
		hours, err := parser.ParseHours(v)
		if err != nil {
			return entry, fmt.Errorf("--hours: %w", err)
		}
		entry.HoursWorked = &hours
	}
	if v := values["start"]; v != "" {
		t, err := parser.ParseTimestamp(v, time.Local)
		if err != nil {
			return entry, fmt.Errorf("--start: %w", err)
		}
		entry.StartTime = &t
	}
	if v := values["end"]; v != "" {
		t, err := parser.ParseTimestamp(v, time.Local)
		if err != nil {
			return entry, fmt.Errorf("--end: %w", err)
		}
		entry.EndTime = &t
	}
	return entry, nil
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show organisation-wide statistics (admin)",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		dash, err := a.ledger.DashboardStats(cmd.Context())
		if err != nil {
			return ledgerError(err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(cmd, dash)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderDashboard(dash))
		return nil
	}),
}

func init() {
	hoursListCmd.Flags().String("approved", "", "Filter by approval: true|false")
	hoursListCmd.Flags().Bool("json", false, "JSON output")

	approveCmd.Flags().Bool("revoke", false, "Mark the hours as pending again")

	manualCmd.Flags().String("email", "", "Volunteer email")
	manualCmd.Flags().String("event", "", "Event ID")
	manualCmd.Flags().String("hours", "", "Hours worked (2.5, 90m, 1h30m)")
	manualCmd.Flags().String("start", "", "Start time (dd/mm/yyyy hh:mm or RFC 3339)")
	manualCmd.Flags().String("end", "", "End time (dd/mm/yyyy hh:mm or RFC 3339)")
	manualCmd.Flags().Bool("approve", false, "Approve the hours right away")
	manualCmd.Flags().Bool("no-ui", false, "Skip the interactive form")

	dashboardCmd.Flags().Bool("json", false, "JSON output")

	hoursCmd.AddCommand(hoursListCmd)
	hoursCmd.AddCommand(approveCmd)
	hoursCmd.AddCommand(manualCmd)
}
