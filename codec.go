package presage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Codec encodes event payloads into a self-describing structured value and back.
// A SerializedEvent remembers the codec that produced it, so decoding always
// uses the matching format.
type Codec interface {
	// Name identifies the encoding (e.g., "json").
	Name() string

	// Marshal encodes a payload.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes data into the value pointed to by v.
	// It must fail when the data does not match the structure of v.
	Unmarshal(data []byte, v interface{}) error
}

// JSONCodec is the default Codec. Decoding is strict: fields unknown to the
// target type and trailing data are rejected.
var JSONCodec Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}
