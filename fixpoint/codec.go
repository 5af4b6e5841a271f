package fixpoint

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/pactl/types"
)

// Delta buffers use the protobuf wire format: a sequence of length-delimited
// records (field 1), each holding the state id (field 1, varint) and the
// solver-encoded colors (field 2, bytes). Unknown record fields are skipped.
const (
	fieldDelta  protowire.Number = 1
	fieldState  protowire.Number = 1
	fieldColors protowire.Number = 2
)

// AppendDelta appends one (state, colors) record to dst.
func AppendDelta(dst []byte, state types.State, colors []byte) []byte {
	size := protowire.SizeTag(fieldState) + protowire.SizeVarint(uint64(state)) +
		protowire.SizeTag(fieldColors) + protowire.SizeBytes(len(colors))

	dst = protowire.AppendTag(dst, fieldDelta, protowire.BytesType)
	dst = protowire.AppendVarint(dst, uint64(size)) //nolint:gosec // size is positive
	dst = protowire.AppendTag(dst, fieldState, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(state))
	dst = protowire.AppendTag(dst, fieldColors, protowire.BytesType)
	dst = protowire.AppendBytes(dst, colors)

	return dst
}

// DecodeDeltas calls fn for every record in buf.
//
// The colors slice aliases buf and is only valid during the call.
func DecodeDeltas(buf []byte, fn func(state types.State, colors []byte) error) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return malformed("record tag", protowire.ParseError(n))
		}
		buf = buf[n:]
		if num != fieldDelta || typ != protowire.BytesType {
			return fmt.Errorf("%w: unexpected field %d of type %d", types.ErrMalformedMessage, num, typ)
		}

		rec, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return malformed("record", protowire.ParseError(n))
		}
		buf = buf[n:]

		state, colors, err := decodeRecord(rec)
		if err != nil {
			return err
		}
		if err := fn(state, colors); err != nil {
			return err
		}
	}

	return nil
}

func decodeRecord(rec []byte) (types.State, []byte, error) {
	var (
		state     uint64
		colors    []byte
		hasState  bool
		hasColors bool
	)
	for len(rec) > 0 {
		num, typ, n := protowire.ConsumeTag(rec)
		if n < 0 {
			return 0, nil, malformed("field tag", protowire.ParseError(n))
		}
		rec = rec[n:]

		switch {
		case num == fieldState && typ == protowire.VarintType:
			state, n = protowire.ConsumeVarint(rec)
			hasState = true
		case num == fieldColors && typ == protowire.BytesType:
			colors, n = protowire.ConsumeBytes(rec)
			hasColors = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, rec)
		}
		if n < 0 {
			return 0, nil, malformed("field value", protowire.ParseError(n))
		}
		rec = rec[n:]
	}

	if !hasState || !hasColors {
		return 0, nil, fmt.Errorf("%w: incomplete delta record", types.ErrMalformedMessage)
	}
	if state > math.MaxUint32 {
		return 0, nil, fmt.Errorf("%w: state %d overflows", types.ErrMalformedMessage, state)
	}

	return types.State(state), colors, nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrMalformedMessage, what, err)
}
