package export

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/lock"
)

// WorkItem is one (environment, platform) pair to export. Work-items are
// independent: each derives its own sorted package list and writes its own
// file.
type WorkItem struct {
	Environment string
	Platform    conda.Platform

	env *lock.Environment
}

// Packages returns the work-item's resolved packages in lock order.
func (w WorkItem) Packages() []lock.Package {
	pkgs, _ := w.env.Packages(w.Platform)
	return pkgs
}

// SelectWorkItems expands the lock into the concrete work-items matching the
// given filters. An empty environment filter selects every environment in the
// lock; an empty platform filter selects every platform available for each
// selected environment.
//
// Explicitly naming an environment the lock does not contain is a fatal
// error. Requesting a platform a particular environment was not resolved for
// only skips that combination with a warning: a multi-environment export must
// tolerate partial platform availability.
func SelectWorkItems(ctx context.Context, lf *lock.LockFile, environments []string, platforms []conda.Platform) ([]WorkItem, error) {
	log := clog.FromContext(ctx)

	selected := environments
	if len(selected) == 0 {
		selected = lf.EnvironmentNames()
	}

	var items []WorkItem
	for _, name := range selected {
		env, ok := lf.Environment(name)
		if !ok {
			return nil, fmt.Errorf("unknown environment %q", name)
		}

		available := env.Platforms()
		if len(platforms) == 0 {
			for _, platform := range available {
				items = append(items, WorkItem{Environment: name, Platform: platform, env: env})
			}
			continue
		}

		for _, platform := range platforms {
			if !lo.Contains(available, platform) {
				log.Warnf("Platform %s not available for environment %s. Skipping...", platform, name)
				continue
			}
			items = append(items, WorkItem{Environment: name, Platform: platform, env: env})
		}
	}

	return items, nil
}
