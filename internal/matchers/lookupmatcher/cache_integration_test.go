//go:build integration

package lookupmatcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bobmcallan/rulecheck/internal/common"
)

var (
	surrealOnce      sync.Once
	surrealContainer testcontainers.Container
	surrealAddress   string
	surrealError     error
)

// startSurrealDB starts a shared SurrealDB container for the test run. Only
// runs when built with -tags=integration, since it requires Docker. The
// container is left running for every test in the binary and is removed by
// the testcontainers reaper when the test process exits.
func startSurrealDB(t *testing.T) string {
	t.Helper()

	surrealOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8000/tcp"),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			surrealError = fmt.Errorf("start SurrealDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			surrealError = fmt.Errorf("get SurrealDB host: %w", err)
			return
		}
		mappedPort, err := container.MappedPort(ctx, "8000/tcp")
		if err != nil {
			surrealError = fmt.Errorf("get SurrealDB port: %w", err)
			return
		}

		surrealContainer = container
		surrealAddress = fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port())
	})

	if surrealError != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealError)
	}
	return surrealAddress
}

func TestCache_PutThenGet_RoundTripsThroughSurrealDB(t *testing.T) {
	address := startSurrealDB(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, address, "root", "root", "rulecheck_test", "lookupcache", common.NewSilentLogger())
	require.NoError(t, err)
	defer cache.Close()

	r := resolution{Name: "Zorblatt Industries", Known: true, Canonical: "Zorblatt Industries Ltd"}
	require.NoError(t, cache.Put(ctx, r.Name, r))

	got, ok := cache.Get(ctx, r.Name)
	require.True(t, ok)
	require.Equal(t, r, got)
}

func TestCache_Get_MissingEntryReturnsNotOK(t *testing.T) {
	address := startSurrealDB(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, address, "root", "root", "rulecheck_test", "lookupcache", common.NewSilentLogger())
	require.NoError(t, err)
	defer cache.Close()

	_, ok := cache.Get(ctx, "Nobody In Particular")
	require.False(t, ok)
}
