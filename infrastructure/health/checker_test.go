package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/infrastructure/health"
)

func TestChecker_Run(t *testing.T) {
	t.Parallel()

	c := health.NewChecker()
	c.Register("store", health.PingCheck(func(context.Context) error { return nil }))
	c.Register("redis", health.PingCheck(func(context.Context) error { return errors.New("refused") }))
	c.Register("memory", health.MemoryCheck())
	c.Register("mode", health.StaticCheck(health.StatusWarning, "debug mode"))

	report := c.Run(context.Background())

	require.Len(t, report.Checks, 4)
	assert.Equal(t, []string{"memory", "mode", "redis", "store"}, []string{
		report.Checks[0].Name, report.Checks[1].Name, report.Checks[2].Name, report.Checks[3].Name,
	})
	assert.Equal(t, health.Summary{Total: 4, Passed: 1, Failed: 1, Warnings: 1}, report.Summary)
	assert.False(t, report.Healthy())
	assert.Equal(t, "refused", report.Checks[2].Details)
}
