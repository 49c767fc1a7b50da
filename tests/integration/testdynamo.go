// Package integration runs the store and the HTTP API against DynamoDB
// Local started with testcontainers.
package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const dynamoLocalImage = "amazon/dynamodb-local:2.5.2"

var (
	// One container serves every test in the package; tests isolate
	// through table prefixes.
	sharedContainer   testcontainers.Container
	sharedContainerMu sync.Mutex
	sharedEndpoint    string
)

// TestDynamo is a freshly bootstrapped set of tables
type TestDynamo struct {
	Client *dynamodb.Client
	Store  *store.DynamoStore
	Config config.DynamoDBConfig
}

func startDynamoLocal(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dynamoLocalImage,
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory", "-sharedDb"},
			WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "8000/tcp")
	if err != nil {
		return nil, "", err
	}
	return container, fmt.Sprintf("http://%s:%s", host, port.Port()), nil
}

// NewTestDynamo returns a store over tables created under a prefix unique
// to t. It skips in -short mode.
func NewTestDynamo(t *testing.T) *TestDynamo {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping DynamoDB Local integration test in short mode")
	}

	ctx := context.Background()

	sharedContainerMu.Lock()
	if sharedContainer == nil {
		container, endpoint, err := startDynamoLocal(ctx)
		if err != nil {
			sharedContainerMu.Unlock()
			require.NoError(t, err, "Failed to start DynamoDB Local container")
		}
		sharedContainer = container
		sharedEndpoint = endpoint
	}
	endpoint := sharedEndpoint
	sharedContainerMu.Unlock()

	cfg := config.DynamoDBConfig{
		Region:      "us-east-1",
		Endpoint:    endpoint,
		AccessKey:   "local",
		SecretKey:   "local",
		TablePrefix: "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_",
	}
	client, err := store.NewDynamoClient(ctx, &cfg)
	require.NoError(t, err, "Failed to create DynamoDB client")
	require.NoError(t, store.EnsureTables(ctx, client, cfg.TablePrefix, zap.NewNop()), "Failed to bootstrap tables")

	return &TestDynamo{
		Client: client,
		Store:  store.NewDynamoStore(client, store.WithTablePrefix(cfg.TablePrefix)),
		Config: cfg,
	}
}
