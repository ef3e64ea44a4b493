// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     grpc
// Description: JSON message codec for services without generated stubs
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package grpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype of the JSON codec (application/grpc+json)
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec encodes plain Go structs, so services can be declared with a
// hand-written grpc.ServiceDesc and no protoc step.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

// JSON returns the call option selecting the JSON codec
func JSON() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
