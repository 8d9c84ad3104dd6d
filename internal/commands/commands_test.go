package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/volhours/internal/auth"
	"github.com/balkashynov/volhours/internal/config"
	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/models"
)

const testSecret = "cli-test-secret"

// cli runs volhours commands against a throwaway sqlite file
type cli struct {
	t       *testing.T
	envFile string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	t.Setenv("VOLHOURS_DB_DRIVER", "sqlite")
	t.Setenv("VOLHOURS_DB_DSN", filepath.Join(dir, "volhours.db"))
	t.Setenv("VOLHOURS_JWT_SECRET", testSecret)
	t.Setenv("VOLHOURS_USER", "")
	t.Setenv("VOLHOURS_CONFIG", "")
	return &cli{t: t, envFile: filepath.Join(dir, "missing.env")}
}

// resetFlags restores every flag to its default between runs
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	cfgFile, asUser = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--env-file", c.envFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "volhours %v", args)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

// seed creates a volunteer, an admin and one event and returns the event ID
func (c *cli) seed() string {
	c.mustRun("user", "add", "--name", "Ann Lee", "--email", "Ann@Example.org")
	c.mustRun("user", "add", "--name", "Root", "--email", "root@example.org", "--role", "admin")
	c.mustRun("event", "add", "--name", "Beach cleanup", "--date", "2099-03-16T09:00:00Z", "--location", "North pier")

	events := decode[[]models.Event](c.t, c.mustRun("event", "ls", "--json"))
	require.Len(c.t, events, 1)
	return events[0].ID
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	SetVersion("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })

	assert.Contains(t, c.mustRun("version"), "volhours 1.2.3 (commit abc")
}

func TestHelp(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("help")
	assert.Contains(t, out, "Volunteer Hours Ledger")
	assert.Contains(t, out, "hours approve <id>")
}

func TestExecute_ReturnsErrorsUnprinted(t *testing.T) {
	c := newCLI(t)
	resetFlags(rootCmd)
	cfgFile, asUser = "", ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--env-file", c.envFile, "hours", "approve", "missing"})

	err := Execute(context.Background())
	assert.EqualError(t, err, "Hours entry not found")
	assert.Empty(t, stderr.String())
}

func TestMigrate(t *testing.T) {
	c := newCLI(t)
	assert.Contains(t, c.mustRun("migrate"), "up to date")
}

func TestDirectoryCommands(t *testing.T) {
	c := newCLI(t)
	eventID := c.seed()

	_, err := c.run("user", "add", "--name", "Ann again", "--email", "ann@example.org")
	assert.ErrorContains(t, err, "already exists")

	_, err = c.run("event", "add", "--name", "No date")
	assert.ErrorContains(t, err, "--date is required")

	assert.Contains(t, c.mustRun("event", "ls"), "Beach cleanup")

	assert.Contains(t, c.mustRun("register", "ann@example.org", eventID), "Registered ann@example.org")
	assert.Contains(t, c.mustRun("register", "ann@example.org", eventID), "already registered")

	_, err = c.run("register", "nobody@example.org", eventID)
	assert.ErrorContains(t, err, "no user with email nobody@example.org")
	_, err = c.run("register", "ann@example.org", "missing")
	assert.ErrorContains(t, err, "no event with ID missing")
}

func TestToken(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out := c.mustRun("token", "root@example.org")
	issuer, err := auth.NewIssuer(testSecret, config.Default().Auth.TokenTTL)
	require.NoError(t, err)

	claims, err := issuer.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "root@example.org", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestVolunteerCommands(t *testing.T) {
	c := newCLI(t)
	eventID := c.seed()

	_, err := c.run("status")
	assert.ErrorContains(t, err, "no volunteer selected")

	out := c.mustRun("--as", "ann@example.org", "log", eventID, "1h30m")
	assert.Contains(t, out, "Logged 1h 30m")

	_, err = c.run("--as", "ann@example.org", "log", eventID, "lots")
	assert.Error(t, err)

	out = c.mustRun("--as", "ann@example.org", "checkin", eventID, "--no-ui")
	assert.Contains(t, out, "Checked in to event "+eventID)

	_, err = c.run("--as", "ann@example.org", "checkin", eventID, "--no-ui")
	assert.EqualError(t, err, "Already checked in for this event")

	assert.Contains(t, c.mustRun("--as", "ann@example.org", "status"), "Checked in to Beach cleanup")

	out = c.mustRun("--as", "ann@example.org", "checkout", eventID)
	assert.Contains(t, out, "pending approval")
	assert.Contains(t, c.mustRun("--as", "ann@example.org", "status"), "Not checked in")

	_, err = c.run("--as", "ann@example.org", "checkout", eventID)
	assert.EqualError(t, err, "No open check-in found for this event")

	sessions := decode[[]models.HourSession](t, c.mustRun("--as", "ann@example.org", "mine", "--json"))
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, models.StatusClosed, s.Status)
		assert.False(t, s.Approved)
	}

	stats := decode[ledger.MyStats](t, c.mustRun("--as", "ann@example.org", "stats", "--json"))
	assert.Zero(t, stats.TotalHours, "nothing approved yet")
}

func TestAdminCommands(t *testing.T) {
	c := newCLI(t)
	eventID := c.seed()
	c.mustRun("--as", "ann@example.org", "log", eventID, "1.5")

	pending := decode[[]models.HourSession](t, c.mustRun("hours", "ls", "--approved", "false", "--json"))
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].User)
	assert.Equal(t, "ann@example.org", pending[0].User.Email)

	_, err := c.run("hours", "ls", "--approved", "maybe")
	assert.ErrorContains(t, err, "--approved must be true or false")

	assert.Contains(t, c.mustRun("hours", "approve", pending[0].ID), "Approved 1h 30m for ann@example.org")

	_, err = c.run("hours", "approve", "missing")
	assert.EqualError(t, err, "Hours entry not found")

	out := c.mustRun("hours", "manual", "--no-ui",
		"--email", "ann@example.org", "--event", eventID,
		"--start", "2024-03-01T09:00:00Z", "--end", "2024-03-01T11:00:00Z", "--approve")
	assert.Contains(t, out, "Logged 2h for ann@example.org (approved)")

	_, err = c.run("hours", "manual", "--no-ui", "--email", "nobody@example.org", "--event", eventID, "--hours", "2")
	assert.EqualError(t, err, "User with that email not found")

	_, err = c.run("hours", "manual", "--no-ui", "--email", "ann@example.org", "--event", eventID)
	assert.ErrorContains(t, err, "Provide either hoursWorked")

	_, err = c.run("hours", "manual", "--no-ui", "--email", "ann@example.org", "--event", eventID,
		"--hours", "0.001", "--start", "2024-03-01T09:00:00Z", "--end", "2024-03-01T11:00:00Z")
	assert.EqualError(t, err, "--hours: hours must be positive")

	approved := decode[[]models.HourSession](t, c.mustRun("hours", "ls", "--approved", "true", "--json"))
	assert.Len(t, approved, 2)

	stats := decode[ledger.MyStats](t, c.mustRun("--as", "ann@example.org", "stats", "--json"))
	assert.Equal(t, 3.5, stats.TotalHours)
	assert.Equal(t, 2, stats.TotalSessions)

	dash := decode[ledger.Dashboard](t, c.mustRun("dashboard", "--json"))
	assert.Equal(t, int64(1), dash.TotalVolunteers)
	assert.Equal(t, int64(1), dash.TotalEvents)
	assert.Equal(t, 3.5, dash.TotalHours)
	assert.Zero(t, dash.PendingHours)

	assert.Contains(t, c.mustRun("hours", "approve", pending[0].ID, "--revoke"), "as pending")
	assert.Contains(t, c.mustRun("dashboard"), "Volunteer dashboard")
}

func TestManualEntryFromFlags(t *testing.T) {
	entry, err := manualEntryFromFlags(map[string]string{
		"email": "ann@example.org",
		"event": "e-1",
		"hours": "90m",
	}, true)
	require.NoError(t, err)
	require.NotNil(t, entry.HoursWorked)
	assert.Equal(t, 1.5, *entry.HoursWorked)
	assert.True(t, entry.MarkApproved)
	assert.Nil(t, entry.StartTime)

	_, err = manualEntryFromFlags(map[string]string{"start": "yesterday"}, false)
	assert.ErrorContains(t, err, "--start")

	entry, err = manualEntryFromFlags(map[string]string{"hours": "30"}, false)
	require.NoError(t, err)
	assert.Equal(t, 30.0, *entry.HoursWorked)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
