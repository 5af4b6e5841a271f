// Package testing provides test utilities for pactl.
//
// It starts embedded NATS servers for exercising the NATS transport without
// external infrastructure, following the convention of net/http/httptest.
//
// Key utilities:
//   - StartEmbeddedNATS: single NATS server with JetStream
//   - Connect: additional client connection, one per simulated process
//   - KeyValue: open a KV bucket to inspect rendezvous state
//
// Example usage:
//
//	import (
//	    "testing"
//	    pactltest "github.com/arloliu/pactl/testing"
//	)
//
//	func TestDistributed(t *testing.T) {
//	    ns, nc := pactltest.StartEmbeddedNATS(t)
//	    other := pactltest.Connect(t, ns)
//	    // one transport per connection
//	}
package testing
