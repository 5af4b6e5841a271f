// Package comm implements the round-synchronized message exchange between the
// partitions of one verification session.
//
// Every round runs the same protocol on every partition:
//
//  1. barrier
//  2. map: the participant encodes its pending deltas for each peer into a
//     pooled buffer, which is delivered to that peer
//  3. barrier
//  4. reduce: every received buffer is replayed through the participant and
//     recycled; the partition notes whether anything arrived
//  5. barrier; the round result is the OR of all arrival flags
//
// Because every partition learns the same round result, all of them stop
// iterating in the same round. A single partition uses Noop.
//
// Two transports are provided. Shared connects partitions living in one process
// through inbox slots and a breakable barrier. NATSTransport connects partitions
// through NATS subjects, so a session can span processes.
package comm
