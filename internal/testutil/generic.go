package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisAddr starts a Redis testcontainer and returns its host:port.
func RedisAddr(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	container := startGeneric(t, "redis:7-alpine", "6379/tcp",
		wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second))

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}
	return addr
}

// MongoURI starts a MongoDB testcontainer and returns a mongodb:// URI.
func MongoURI(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	container := startGeneric(t, "mongo:7", "27017/tcp",
		wait.ForListeningPort("27017/tcp").WithStartupTimeout(60*time.Second))

	uri, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		t.Fatalf("Failed to get MongoDB endpoint: %v", err)
	}
	return uri
}

func startGeneric(t testing.TB, image, port string, strategy wait.Strategy) testcontainers.Container {
	t.Helper()
	SkipIfShort(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   strategy,
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", image, err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate %s container: %v", image, err)
		}
	})

	return container
}
