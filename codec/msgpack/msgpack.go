// Package msgpack provides a MessagePack codec for presage events.
//
// MessagePack is a binary format that produces smaller payloads than JSON
// while keeping the same structure. The codec reads the `json` struct tags of
// events, so the same struct works with both codecs:
//
//	events, err := presage.NewEventsWith(msgpack.NewCodec(), TaskCreated{ID: id, Name: "Buy milk"})
//
// Decoding is strict like presage.JSONCodec: unknown fields and trailing data
// are rejected.
package msgpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Name is the codec name recorded in serialized events.
const Name = "msgpack"

// Codec is a MessagePack implementation of presage.Codec.
type Codec struct {
	structTag      string
	allowUnknown   bool
	useCompactInts bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithStructTag sets the struct tag read for field names. Defaults to "json".
func WithStructTag(tag string) Option {
	return func(c *Codec) {
		c.structTag = tag
	}
}

// WithUnknownFields makes decoding ignore fields the target type does not declare.
func WithUnknownFields() Option {
	return func(c *Codec) {
		c.allowUnknown = true
	}
}

// WithCompactInts encodes integers with the smallest representation that fits.
func WithCompactInts() Option {
	return func(c *Codec) {
		c.useCompactInts = true
	}
}

// NewCodec creates a new MessagePack Codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{structTag: "json"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "msgpack".
func (c *Codec) Name() string {
	return Name
}

// Marshal encodes v to MessagePack bytes.
func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("presage/msgpack: value cannot be nil")
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(c.structTag)
	enc.UseCompactInts(c.useCompactInts)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack bytes into the value pointed to by v.
func (c *Codec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("presage/msgpack: data cannot be empty")
	}

	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag(c.structTag)
	dec.DisallowUnknownFields(!c.allowUnknown)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("presage/msgpack: %d bytes of unexpected data after value", r.Len())
	}
	return nil
}
