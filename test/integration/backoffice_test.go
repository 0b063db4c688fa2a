package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/backoffice/internal/store"
	"github.com/abcretail/backoffice/pkg/outbox"
)

func TestBackofficeIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed integration test in short mode")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	pg := store.NewPostgres(log, pool)
	require.NoError(t, pg.EnsureSchema(ctx))

	t.Run("entity etag round trip", func(t *testing.T) {
		inserted, err := pg.Insert(ctx, store.Entity{
			Partition: store.PartitionProduct,
			Key:       "prod-1",
			Body:      []byte(`{"name":"Rooibos Tea","stock_available":10}`),
		})
		require.NoError(t, err)
		require.NotEmpty(t, inserted.ETag)

		_, err = pg.Insert(ctx, store.Entity{
			Partition: store.PartitionProduct,
			Key:       "prod-1",
			Body:      []byte(`{}`),
		})
		assert.ErrorIs(t, err, store.ErrConflict)

		updated, err := pg.Update(ctx, store.Entity{
			Partition: store.PartitionProduct,
			Key:       "prod-1",
			ETag:      inserted.ETag,
			Body:      []byte(`{"name":"Rooibos Tea","stock_available":7}`),
		})
		require.NoError(t, err)
		assert.NotEqual(t, inserted.ETag, updated.ETag)

		// the first writer's token is now stale
		_, err = pg.Update(ctx, store.Entity{
			Partition: store.PartitionProduct,
			Key:       "prod-1",
			ETag:      inserted.ETag,
			Body:      []byte(`{}`),
		})
		assert.ErrorIs(t, err, store.ErrConflict)

		got, err := pg.Get(ctx, store.PartitionProduct, "prod-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Rooibos Tea","stock_available":7}`, string(got.Body))

		require.NoError(t, pg.Delete(ctx, store.PartitionProduct, "prod-1"))
		assert.ErrorIs(t, pg.Delete(ctx, store.PartitionProduct, "prod-1"), store.ErrNotFound)
	})

	t.Run("outbox relay delivers to kafka", func(t *testing.T) {
		const topic = "order-notifications"

		conn, err := kafka.DialContext(ctx, "tcp", env.KAddr[0])
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
			Topic: topic, NumPartitions: 1, ReplicationFactor: 1,
		}))

		ob := store.NewOutboxStore(log, pg)
		require.NoError(t, ob.Enqueue(ctx, outbox.Event{
			AggregateType: "order",
			AggregateID:   "order-1",
			Topic:         topic,
			Type:          "Created",
			Payload:       []byte(`{"order_id":"order-1","status":"Submitted"}`),
		}))

		writer := &kafka.Writer{
			Addr:                   kafka.TCP(env.KAddr...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		t.Cleanup(func() { _ = writer.Close() })

		relayCtx, cancel := context.WithCancel(ctx)
		t.Cleanup(cancel)
		relay := outbox.NewRelay(log, ob, outbox.NewDispatcher(log, writer), "it-relay")
		go func() { _ = relay.Run(relayCtx) }()

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: env.KAddr,
			Topic:   topic,
			GroupID: "it-consumer",
		})
		t.Cleanup(func() { _ = reader.Close() })

		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		defer readCancel()
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err)
		assert.Equal(t, "order-1", string(msg.Key))
		assert.JSONEq(t, `{"order_id":"order-1","status":"Submitted"}`, string(msg.Value))

		require.Eventually(t, func() bool {
			var status string
			err := pool.QueryRow(ctx, `SELECT status FROM outbox WHERE aggregate_id='order-1'`).Scan(&status)
			return err == nil && status == "sent"
		}, 15*time.Second, 250*time.Millisecond)
	})
}
