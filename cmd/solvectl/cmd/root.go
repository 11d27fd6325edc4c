package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/newtonkit/internal/config"
	"github.com/copyleftdev/newtonkit/internal/logging"
	"github.com/copyleftdev/newtonkit/internal/server"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "solvectl",
		Short:        "solvectl runs the newtonkit solvers from the command line.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("verbose", false, "trace every iteration on stderr")

	cmd.AddCommand(
		tetrahedronCmd(),
		rootCmd(),
	)

	return cmd
}

// newServer builds an in-process solver service configured from the
// environment. Metrics are not collected.
func newServer(cmd *cobra.Command) (*server.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(&logging.Config{Level: level, Format: "json", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	return server.NewServer(cfg, logger, nil), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
