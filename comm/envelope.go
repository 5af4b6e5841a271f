package comm

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/pactl/types"
)

// envelope is one network message of a round. A peer's outbound buffer may be
// split over several envelopes; the last one is marked final.
type envelope struct {
	round   uint64
	from    types.PartitionID
	sentAny bool // the sender sent data to some peer this round
	payload []byte
	final   bool
	abort   string // non-empty when the sender gave up on the session
}

const (
	fieldRound   protowire.Number = 1
	fieldFrom    protowire.Number = 2
	fieldSentAny protowire.Number = 3
	fieldPayload protowire.Number = 4
	fieldFinal   protowire.Number = 5
	fieldAbort   protowire.Number = 6
)

// envelopeOverhead bounds the encoded size of an envelope without its payload.
const envelopeOverhead = 48

func (e *envelope) append(dst []byte) []byte {
	dst = protowire.AppendTag(dst, fieldRound, protowire.VarintType)
	dst = protowire.AppendVarint(dst, e.round)
	dst = protowire.AppendTag(dst, fieldFrom, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(e.from)) //nolint:gosec // partition ids are small and non-negative
	if e.sentAny {
		dst = protowire.AppendTag(dst, fieldSentAny, protowire.VarintType)
		dst = protowire.AppendVarint(dst, 1)
	}
	if len(e.payload) > 0 {
		dst = protowire.AppendTag(dst, fieldPayload, protowire.BytesType)
		dst = protowire.AppendBytes(dst, e.payload)
	}
	if e.final {
		dst = protowire.AppendTag(dst, fieldFinal, protowire.VarintType)
		dst = protowire.AppendVarint(dst, 1)
	}
	if e.abort != "" {
		dst = protowire.AppendTag(dst, fieldAbort, protowire.BytesType)
		dst = protowire.AppendString(dst, e.abort)
	}

	return dst
}

// parseEnvelope decodes buf. The payload aliases buf.
func parseEnvelope(buf []byte) (envelope, error) {
	var (
		e       envelope
		hasFrom bool
	)
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return e, fmt.Errorf("%w: envelope tag: %w", types.ErrMalformedMessage, protowire.ParseError(n))
		}
		buf = buf[n:]

		var v uint64
		switch {
		case num == fieldRound && typ == protowire.VarintType:
			e.round, n = protowire.ConsumeVarint(buf)
		case num == fieldFrom && typ == protowire.VarintType:
			v, n = protowire.ConsumeVarint(buf)
			e.from = types.PartitionID(v) //nolint:gosec // range checked by the receiver
			hasFrom = true
		case num == fieldSentAny && typ == protowire.VarintType:
			v, n = protowire.ConsumeVarint(buf)
			e.sentAny = v != 0
		case num == fieldPayload && typ == protowire.BytesType:
			e.payload, n = protowire.ConsumeBytes(buf)
		case num == fieldFinal && typ == protowire.VarintType:
			v, n = protowire.ConsumeVarint(buf)
			e.final = v != 0
		case num == fieldAbort && typ == protowire.BytesType:
			e.abort, n = protowire.ConsumeString(buf)
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
		}
		if n < 0 {
			return e, fmt.Errorf("%w: envelope field %d: %w", types.ErrMalformedMessage, num, protowire.ParseError(n))
		}
		buf = buf[n:]
	}
	if !hasFrom {
		return e, fmt.Errorf("%w: envelope without sender", types.ErrMalformedMessage)
	}

	return e, nil
}
