package feed

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer runs image and returns host:port for the exposed port.
func startContainer(t *testing.T, image, port string, waitFor wait.Strategy) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   waitFor,
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	// Only one port is exposed, so the first endpoint is the one we want.
	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	return endpoint
}

// relayNode is one simulated instance: a hub behind a running broadcaster.
type relayNode struct {
	hub         *Hub
	broadcaster *Broadcaster
}

func startNode(t *testing.T, ctx context.Context, relay Relay) relayNode {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	b := NewBroadcaster(hub, relay, zerolog.Nop())
	b.RetryDelay = 100 * time.Millisecond
	go func() { _ = b.Run(ctx) }()

	return relayNode{hub: hub, broadcaster: b}
}

// awaitRelayed keeps notifying from one node until the other node's hub
// wakes. Subscriptions are set up asynchronously, so a single notice may
// be published before the remote side is listening.
func awaitRelayed(t *testing.T, ctx context.Context, from, to relayNode, restaurantID int64) {
	t.Helper()

	sub, cancel := to.hub.Subscribe(restaurantID)
	defer cancel()

	require.Eventually(t, func() bool {
		from.broadcaster.Notify(ctx, restaurantID)
		select {
		case <-sub:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 15*time.Second, 50*time.Millisecond)
}

// exerciseRelay checks that two relays on one transport wake each other's
// hubs.
func exerciseRelay(t *testing.T, relayA, relayB Relay) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA := startNode(t, ctx, relayA)
	nodeB := startNode(t, ctx, relayB)

	awaitRelayed(t, ctx, nodeA, nodeB, 11)
	awaitRelayed(t, ctx, nodeB, nodeA, 12)
}

func TestRedisRelay(t *testing.T) {
	addr := startContainer(t, "redis:7-alpine", "6379/tcp",
		wait.ForLog("Ready to accept connections").WithStartupTimeout(60*time.Second))
	ctx := context.Background()
	url := "redis://" + addr + "/0"

	relayA, err := NewRedisRelay(ctx, url, "order_changes_test", zerolog.Nop())
	require.NoError(t, err)
	defer relayA.Close()
	relayB, err := NewRedisRelay(ctx, url, "order_changes_test", zerolog.Nop())
	require.NoError(t, err)
	defer relayB.Close()

	exerciseRelay(t, relayA, relayB)
}

func TestRedisRelay_BadURL(t *testing.T) {
	_, err := NewRedisRelay(context.Background(), "not a url", "c", zerolog.Nop())
	assert.Error(t, err)
}

func TestAMQPRelay(t *testing.T) {
	addr := startContainer(t, "rabbitmq:3-alpine", "5672/tcp",
		wait.ForLog("Server startup complete").WithStartupTimeout(90*time.Second))
	url := "amqp://guest:guest@" + addr + "/"

	relayA, err := NewAMQPRelay(url, "order_changes_test", zerolog.Nop())
	require.NoError(t, err)
	defer relayA.Close()
	relayB, err := NewAMQPRelay(url, "order_changes_test", zerolog.Nop())
	require.NoError(t, err)
	defer relayB.Close()

	exerciseRelay(t, relayA, relayB)
}

func TestAMQPRelay_RecoversAfterConnectionLoss(t *testing.T) {
	addr := startContainer(t, "rabbitmq:3-alpine", "5672/tcp",
		wait.ForLog("Server startup complete").WithStartupTimeout(90*time.Second))
	url := "amqp://guest:guest@" + addr + "/"

	relayA, err := NewAMQPRelay(url, "order_changes_reconnect", zerolog.Nop())
	require.NoError(t, err)
	defer relayA.Close()
	relayB, err := NewAMQPRelay(url, "order_changes_reconnect", zerolog.Nop())
	require.NoError(t, err)
	defer relayB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA := startNode(t, ctx, relayA)
	nodeB := startNode(t, ctx, relayB)
	awaitRelayed(t, ctx, nodeA, nodeB, 21)

	// Drop both broker connections the way a broker restart would.
	for _, r := range []*AMQPRelay{relayA, relayB} {
		r.mu.Lock()
		conn := r.conn
		r.mu.Unlock()
		require.NoError(t, conn.Close())
	}

	awaitRelayed(t, ctx, nodeA, nodeB, 22)
	awaitRelayed(t, ctx, nodeB, nodeA, 23)

	relayA.mu.Lock()
	assert.False(t, relayA.conn.IsClosed())
	relayA.mu.Unlock()
}

func TestAMQPRelay_NoReconnectAfterClose(t *testing.T) {
	addr := startContainer(t, "rabbitmq:3-alpine", "5672/tcp",
		wait.ForLog("Server startup complete").WithStartupTimeout(90*time.Second))

	relay, err := NewAMQPRelay("amqp://guest:guest@"+addr+"/", "order_changes_closed", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, relay.Close())

	err = relay.Publish(context.Background(), Notice{Origin: "x", RestaurantID: 1})
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.ErrorIs(t, relay.Subscribe(context.Background(), func(Notice) {}), amqp.ErrClosed)
}
