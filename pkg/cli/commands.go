package cli

import (
	"os"

	"github.com/chainguard-dev/clog"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "pixi",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Manage reproducible multi-ecosystem package environments",
	}

	// Warnings and progress go to stderr through the context logger; stdout
	// stays reserved for primary output.
	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		log := clog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: false}))
		cmd.SetContext(clog.WithLogger(cmd.Context(), log))
	}

	cmd.AddCommand(
		cmdProject(),
		version.Version(),
	)

	return cmd
}
