package health

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/unalkalkan/rgadapt/internal/storage"
)

// healthProbePath is looked up to see whether the backend answers at all.
const healthProbePath = ".healthcheck"

// BinaryCheck reports degraded when an external converter is not installed.
// Only the adapters that need it stop working.
func BinaryCheck(binary string) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := exec.LookPath(binary); err != nil {
			return StatusDegraded, fmt.Errorf("%s not found in PATH", binary)
		}
		return StatusHealthy, nil
	}
}

// BackendCheck reports unhealthy when the cache backend cannot be reached.
func BackendCheck(b storage.Backend) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := b.Exists(ctx, healthProbePath); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}
