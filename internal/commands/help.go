package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for volhours",
	Long:  `Display detailed help for all volhours commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if target, _, err := rootCmd.Find(args); err == nil && target != rootCmd {
				_ = target.Help()
				return
			}
		}
		showCustomHelp(cmd)
	},
}

func showCustomHelp(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), `
██╗   ██╗ ██████╗ ██╗     ██╗  ██╗
██║   ██║██╔═══██╗██║     ██║  ██║
██║   ██║██║   ██║██║     ███████║
╚██╗ ██╔╝██║   ██║██║     ██╔══██║
 ╚████╔╝ ╚██████╔╝███████╗██║  ██║
  ╚═══╝   ╚═════╝ ╚══════╝╚═╝  ╚═╝

volhours - Volunteer Hours Ledger

VOLUNTEER COMMANDS (act as --as <email> or VOLHOURS_USER):

  checkin <event-id>      Check in to an event
    --no-ui               Skip the interactive timer

    Timer keys:
      s             Check out and save hours
      esc/q         Leave the timer, stay checked in

  checkout <event-id>     Check out and record the hours
  log <event-id> <hours>  Log hours without checking in (2.5, 90m, 1h30m)
  status                  Show events you are checked in to
  mine                    List your recorded hours
    --json                JSON output
  stats                   Your totals, last 30 days and monthly breakdown
    --json                JSON output

ADMIN COMMANDS:

  hours ls                List everyone's hours
    --approved            Filter: true|false
    --json                JSON output
  hours approve <id>      Approve recorded hours
    --revoke              Mark them pending again
  hours manual            Record hours for a volunteer
    --email, --event      Who and where
    --hours               Hours worked, or
    --start, --end        Times to compute hours from
    --approve             Approve right away
    --no-ui               Skip the interactive form
  dashboard               Organisation-wide statistics
    --json                JSON output

DIRECTORY:

  user add                Create a user (--name --email --role)
  event add               Create an event (--name --date --location --capacity)
  event ls                List events
  register <email> <id>   Sign a volunteer up for an event
  token <email>           Mint an API bearer token

SERVER:

  serve                   Run the HTTP API
    --addr                Listen address
  migrate                 Create or update the database schema
  version                 Print version information
  help [command]          Show this help

GLOBAL FLAGS:

  --config <file>         YAML config file (or VOLHOURS_CONFIG)
  --env-file <file>       dotenv file (default .env)
  --as <email>            Volunteer to act as

`)
}
