package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/auth"
	"github.com/balkashynov/volhours/internal/db"
	"github.com/balkashynov/volhours/internal/parser"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage volunteers and admins",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create a user.

Examples:
  volhours user add --name "Ann Lee" --email ann@example.org
  volhours user add --name Root --email root@example.org --role admin`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")

		user, err := a.dir.CreateUser(cmd.Context(), db.CreateUserRequest{Name: name, Email: email, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Created %s %s <%s> - ID: %s\n", user.Role, user.Name, user.Email, user.ID)
		return nil
	}),
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an event",
	Long: `Create an event.

Examples:
  volhours event add --name "Beach cleanup" --date "16/03/2024 09:00" --location "North pier"
  volhours event add --name "Food bank" --date 2024-03-20T10:00:00Z --capacity 12`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		name, _ := cmd.Flags().GetString("name")
		rawDate, _ := cmd.Flags().GetString("date")
		location, _ := cmd.Flags().GetString("location")
		description, _ := cmd.Flags().GetString("description")

		date, err := parseEventDate(rawDate)
		if err != nil {
			return err
		}

		req := db.CreateEventRequest{
			Name:        name,
			Date:        date,
			Location:    location,
			Description: description,
		}
		if cmd.Flags().Changed("capacity") {
			capacity, _ := cmd.Flags().GetInt("capacity")
			req.Capacity = &capacity
		}

		event, err := a.dir.CreateEvent(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Created event %s on %s - ID: %s\n",
			event.Name, event.Date.Local().Format("02/01/2006 15:04"), event.ID)
		return nil
	}),
}

func parseEventDate(input string) (time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return time.Time{}, errors.New("--date is required")
	}
	// Dates without an offset are local
	return parser.ParseTimestamp(input, time.Local)
}

var eventListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List events",
	Args:    cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		events, err := a.dir.ListEvents(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(cmd, events)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found. Use 'volhours event add' to create one.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-16s  %-28s  %-20s  %s\n", "ID", "DATE", "NAME", "LOCATION", "CAPACITY")
		fmt.Fprintln(out, strings.Repeat("-", 112))
		for _, e := range events {
			capacity := "-"
			if e.Capacity != nil {
				capacity = fmt.Sprintf("%d", *e.Capacity)
			}
			fmt.Fprintf(out, "%-36s  %-16s  %-28s  %-20s  %s\n",
				e.ID,
				e.Date.Local().Format("02/01/2006 15:04"),
				truncate(e.Name, 28),
				truncate(e.Location, 20),
				capacity)
		}
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register [email] [event-id]",
	Short: "Sign a volunteer up for an event",
	Args:  cobra.ExactArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := a.dir.ResolveUserByEmail(cmd.Context(), args[0])
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user with email %s", db.NormalizeEmail(args[0]))
		}
		if err != nil {
			return err
		}

		reg, created, err := a.dir.Register(cmd.Context(), user.ID, args[1])
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("no event with ID %s", args[1])
		case errors.Is(err, db.ErrEventFull):
			return errors.New("event is full")
		case err != nil:
			return err
		}

		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Registered %s for event %s\n", user.Email, reg.EventID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already registered for event %s\n", user.Email, reg.EventID)
		}
		return nil
	}),
}

var tokenCmd = &cobra.Command{
	Use:   "token [email]",
	Short: "Mint an API token for a user",
	Long: `Mint a bearer token for a user, signed with the configured JWT secret.

Example:
  curl -H "Authorization: Bearer $(volhours token ann@example.org)" localhost:5050/api/hours/me`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		user, err := a.dir.ResolveUserByEmail(cmd.Context(), args[0])
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user with email %s", db.NormalizeEmail(args[0]))
		}
		if err != nil {
			return err
		}

		token, err := issuer.Issue(user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}),
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	userAddCmd.Flags().String("name", "", "Full name (required)")
	userAddCmd.Flags().String("email", "", "Email address (required)")
	userAddCmd.Flags().String("role", "volunteer", "Role: volunteer|admin")
	userCmd.AddCommand(userAddCmd)

	eventAddCmd.Flags().String("name", "", "Event name (required)")
	eventAddCmd.Flags().String("date", "", "Date (dd/mm/yyyy hh:mm or RFC 3339, required)")
	eventAddCmd.Flags().String("location", "", "Location")
	eventAddCmd.Flags().String("description", "", "Description")
	eventAddCmd.Flags().Int("capacity", 0, "Maximum registrations (unlimited when not set)")
	eventListCmd.Flags().Bool("json", false, "JSON output")
	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)
}
