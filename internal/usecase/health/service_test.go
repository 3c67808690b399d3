package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/appupdate/internal/logging"
)

type fakeProbe struct {
	name string
	err  error
	wait time.Duration
}

func (p fakeProbe) Name() string { return p.name }

func (p fakeProbe) Check(ctx context.Context) error {
	if p.wait > 0 {
		select {
		case <-time.After(p.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func testContext() context.Context {
	return logging.WithContext(context.Background(), logging.Discard())
}

func TestService_Check_AllPass(t *testing.T) {
	svc := NewService(time.Second, fakeProbe{name: "database"}, fakeProbe{name: "blob_storage"})

	report := svc.Check(testContext())

	assert.True(t, report.Healthy)
	require.Len(t, report.Checks, 2)
	assert.True(t, report.Checks["database"].Passed)
	assert.Empty(t, report.Checks["database"].Error)
}

func TestService_Check_OneFails(t *testing.T) {
	svc := NewService(time.Second,
		fakeProbe{name: "database", err: errors.New("database is locked")},
		fakeProbe{name: "blob_storage"},
	)

	report := svc.Check(testContext())

	assert.False(t, report.Healthy)
	assert.False(t, report.Checks["database"].Passed)
	assert.Equal(t, "database is locked", report.Checks["database"].Error)
	assert.True(t, report.Checks["blob_storage"].Passed)
}

func TestService_Check_Timeout(t *testing.T) {
	svc := NewService(20*time.Millisecond, fakeProbe{name: "slow", wait: time.Second})

	report := svc.Check(testContext())

	assert.False(t, report.Healthy)
	assert.Contains(t, report.Checks["slow"].Error, "deadline exceeded")
}

func TestService_Check_NoProbes(t *testing.T) {
	report := NewService(0).Check(testContext())

	assert.True(t, report.Healthy)
	assert.Empty(t, report.Checks)
}
