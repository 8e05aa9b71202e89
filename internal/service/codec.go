package service

import "encoding/json"

// jsonCodec marshals plain Go structs. It registers under the "json" name,
// replacing connect's protobuf JSON codec, so both the Connect protocol's
// application/json and application/connect+json content types use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}
