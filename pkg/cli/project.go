package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/export"
	"github.com/tdejager/pixi/pkg/lock"
	"github.com/tdejager/pixi/pkg/manifest"
)

func cmdProject() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Modify or inspect the project",
	}

	cmd.AddCommand(cmdProjectExport())
	return cmd
}

func cmdProjectExport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export project data to other formats",
	}

	cmd.AddCommand(cmdCondaExplicitSpec())
	return cmd
}

func cmdCondaExplicitSpec() *cobra.Command {
	p := &condaExplicitSpecParams{}
	cmd := &cobra.Command{
		Use:           "conda-explicit-spec OUTPUT_DIR",
		Short:         "Export a conda explicit spec file per environment and platform",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := manifest.Load(p.manifestPath)
			if err != nil {
				return err
			}

			platforms := make([]conda.Platform, 0, len(p.platforms))
			for _, tag := range p.platforms {
				platform, err := conda.ParsePlatform(tag)
				if err != nil {
					return err
				}
				platforms = append(platforms, platform)
			}

			usage := lock.UsageDefault
			switch {
			case p.frozen:
				usage = lock.UsageFrozen
			case p.locked:
				usage = lock.UsageLocked
			}

			lf, err := lock.Update(ctx, m, lock.UpdateOptions{
				LockPath:  filepath.Join(filepath.Dir(p.manifestPath), lock.FileName),
				Usage:     usage,
				NoInstall: p.noInstall,
			})
			if err != nil {
				return err
			}

			if err := export.Export(ctx, lf, export.Options{
				OutputDir:        args[0],
				Environments:     p.environments,
				Platforms:        platforms,
				IgnorePypiErrors: p.ignorePypiErrors,
			}); err != nil {
				return fmt.Errorf("exporting conda explicit specs: %w", err)
			}

			return nil
		},
	}

	p.addFlagsTo(cmd)
	return cmd
}

type condaExplicitSpecParams struct {
	manifestPath     string
	environments     []string
	platforms        []string
	ignorePypiErrors bool

	frozen    bool
	locked    bool
	noInstall bool
}

func (p *condaExplicitSpecParams) addFlagsTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.manifestPath, "manifest-path", manifest.FileName, "Path to the project manifest")
	cmd.Flags().StringSliceVarP(&p.environments, "environment", "e", nil, "Environment to render, can be repeated (defaults to all environments)")
	cmd.Flags().StringSliceVarP(&p.platforms, "platform", "p", nil, "Platform to render, can be repeated (defaults to all platforms available for the selected environments)")
	cmd.Flags().BoolVar(&p.ignorePypiErrors, "ignore-pypi-errors", false, "Allow creating spec files even if PyPI dependencies are present, dropping them with a warning")

	cmd.Flags().BoolVar(&p.frozen, "frozen", false, "Use the lock file as-is, without checking whether it is up-to-date")
	cmd.Flags().BoolVar(&p.locked, "locked", false, "Fail instead of updating when the lock file is not up-to-date")
	cmd.Flags().BoolVar(&p.noInstall, "no-install", false, "Do not install an environment prefix")
	cmd.MarkFlagsMutuallyExclusive("frozen", "locked")
}
