//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartService bounces one compose service so persistence can be checked
// across a process restart. E2E_COMPOSE_FILE selects a non-default file.
func restartService(t *testing.T, ctx context.Context, service string) {
	t.Helper()

	args := []string{"compose"}
	if f := getenv("E2E_COMPOSE_FILE", ""); f != "" {
		args = append(args, "-f", f)
	}
	args = append(args, "restart", service)

	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		t.Fatalf("docker %v: %v\n%s", args, err, out)
	}
}
