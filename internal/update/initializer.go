package update

import (
	"context"

	"github.com/dryscan/dryscan/internal/dryconfig"
)

// Init runs the one-shot initializer: the same extract-all → embed-all →
// record-files pipeline as Update (every file is "added" against an empty
// store), which itself finishes by cleaning out anything under
// newly-excluded paths (spec.md §4.5's "three-phase variant", §4.8).
func Init(ctx context.Context, repoRoot string, cfg dryconfig.Config, deps Deps) (Result, error) {
	return Update(ctx, repoRoot, cfg, deps)
}
