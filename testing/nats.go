package testing

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled.
//
// The server listens on a random port and stores JetStream data in a temporary
// directory; both are cleaned up when the test completes.
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected client (closed automatically on test completion)
//
// Example:
//
//	func TestTransport(t *testing.T) {
//	    _, nc := pactltest.StartEmbeddedNATS(t)
//	    tr, err := comm.NewNATS(nc, comm.DefaultNATSConfig())
//	}
func StartEmbeddedNATS(t testing.TB) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // random available port
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	// registered first, so it runs after the client cleanups of Connect
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, Connect(t, ns)
}

// Connect opens another client connection to ns, closed when the test completes.
//
// Separate connections stand in for separate processes of a distributed run.
func Connect(t testing.TB, ns *server.Server) *nats.Conn {
	t.Helper()

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}
	t.Cleanup(nc.Close)

	return nc
}

// KeyValue opens an existing JetStream KV bucket.
func KeyValue(t testing.TB, nc *nats.Conn, bucket string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}
	kv, err := js.KeyValue(t.Context(), bucket)
	if err != nil {
		t.Fatalf("Failed to open KV bucket %s: %v", bucket, err)
	}

	return kv
}
