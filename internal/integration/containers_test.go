//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/openspace"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// startRedis returns a redis:// connection URL.
func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	rc, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	url, err := rc.ConnectionString(ctx)
	require.NoError(t, err)
	return url
}

// startPostgres returns a DSN for an empty campus database.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	pc, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("campus"),
		tcpostgres.WithUsername("campus"),
		tcpostgres.WithPassword("campus"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	dsn, err := pc.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// lotsFixture replays the captured OpenSpace payload.
type lotsFixture struct {
	fetched domain.Fetched[domain.OpenSpaceLot]
}

func loadLots(t *testing.T) lotsFixture {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "openspace_lots.json"))
	require.NoError(t, err)
	fetched, err := openspace.DecodeLots(body)
	require.NoError(t, err)
	return lotsFixture{fetched: fetched}
}

func (f lotsFixture) FetchLots(context.Context) (domain.Fetched[domain.OpenSpaceLot], error) {
	return f.fetched, nil
}
