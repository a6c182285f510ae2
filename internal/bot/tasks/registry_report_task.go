package tasks

import (
	"context"
	"fmt"

	"github.com/edgard/swarmbot/internal/database"
)

// registryWarnThreshold is the number of live bot instances above which the
// report task starts warning. Instances are never evicted, so a runaway
// count usually means someone is spraying tokens at the webhook endpoint.
const registryWarnThreshold = 1000

// newRegistryReportTask creates the scheduled task that reports the size of
// the in-memory instance registry alongside the persisted activity counts.
func newRegistryReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "registry_report")

	return func(ctx context.Context) error {
		live := deps.Registry.Len()

		counts, err := deps.Store.CountInstances(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Registry report task failed", "error", err)
			return fmt.Errorf("count instances: %w", err)
		}

		log.InfoContext(ctx, "Registry report",
			"live_instances", live,
			"seen_main", counts[database.RoleMain],
			"seen_minions", counts[database.RoleMinion],
		)

		if live > registryWarnThreshold {
			log.WarnContext(ctx, "Instance registry is unusually large", "live_instances", live)
		}

		return nil
	}
}
