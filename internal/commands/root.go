package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/config"
	"github.com/balkashynov/volhours/internal/db"
	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/logging"
	"github.com/balkashynov/volhours/internal/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	envFile string
	asUser  string

	cfg    = config.Default()
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "volhours",
	Short: "A volunteer hours ledger",
	Long: `volhours records the hours volunteers spend at events.
Check in and out from the terminal, log hours directly, approve them as an
admin and see statistics, or run the HTTP API with 'volhours serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// loadConfig reads the configuration selected by the persistent flags
func loadConfig() error {
	loaded, err := config.Load(cfgFile, envFile)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.New(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// app holds the services a command works with
type app struct {
	dir    *db.Directory
	ledger *ledger.Service
}

func newApp(conn *gorm.DB, log *logrus.Logger) *app {
	dir := db.NewDirectory(conn)
	return &app{
		dir: dir,
		ledger: ledger.New(conn, ledger.Config{
			Identity:      dir,
			Events:        dir,
			Registrations: dir,
			Logger:        log,
		}),
	}
}

// withDB wraps a command function to open the database first
func withDB(fn func(*cobra.Command, []string, *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := db.Initialize(cfg.Database); err != nil {
			return err
		}
		defer db.Close(db.DB)
		return fn(cmd, args, newApp(db.DB, logger))
	}
}

// actingUser resolves the volunteer the CLI acts as, from --as or
// VOLHOURS_USER
func actingUser(cmd *cobra.Command, a *app) (*models.User, error) {
	email := asUser
	if email == "" {
		email = cfg.CLI.User
	}
	if email == "" {
		return nil, errors.New("no volunteer selected: pass --as <email> or set VOLHOURS_USER")
	}

	user, err := a.dir.ResolveUserByEmail(cmd.Context(), email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no user with email %s", db.NormalizeEmail(email))
	}
	return user, err
}

// ledgerError turns a ledger failure into the message a user may see
func ledgerError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(ledger.Message(err))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "volhours %s (commit %s, built %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the command named on the command line. Errors are returned
// unprinted so main reports them once.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("VOLHOURS_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().StringVar(&asUser, "as", "", "email of the volunteer to act as")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hoursCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommand(helpCmd)
}
