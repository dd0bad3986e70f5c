package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

const rootLong = `credprobe checks that dynamic database credentials issued by HashiCorp Vault
actually work from a client application's point of view.

It reads a credential pair from a Vault database secrets engine role, then
connects to MongoDB or PostgreSQL, inserts a marker document, reads one back
and clears the collection. Authentication failures are retried for a bounded
number of attempts, because a freshly created database user can take a while
to propagate through a cluster.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or missing credential field
  11 - Secrets backend (Vault) failure
  12 - Unexpected database error
  13 - Gave up after exhausting authentication retries
  14 - Interrupted (signal or --timeout) while waiting to retry`

// newRootCmd builds the command tree around deps.
func newRootCmd(deps *runDeps) *cobra.Command {
	root := &cobra.Command{
		Use:           "credprobe",
		Short:         "Probe Vault-issued database credentials against MongoDB or PostgreSQL",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("help", false, "Help for credprobe")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", credprobe.ErrUsage, err)
	})

	root.AddCommand(newRunCmd(deps))
	root.AddCommand(newVersionCmd())
	return root
}

var rootCmd = newRootCmd(defaultRunDeps())

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
