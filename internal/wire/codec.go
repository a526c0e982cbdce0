package wire

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// handle is the shared CBOR handle. A single package-level *codec.CborHandle
// is safe for concurrent Encode/Decode calls (the ugorji documentation
// guarantees this once options are no longer mutated), so no per-call
// allocation is needed.
var handle = &codec.CborHandle{}

// Encode serializes msg into a self-describing CBOR frame.
func Encode(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, handle)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a CBOR frame produced by Encode back into a Message.
func Decode(raw []byte) (Message, error) {
	var msg Message
	dec := codec.NewDecoderBytes(raw, handle)
	if err := dec.Decode(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
