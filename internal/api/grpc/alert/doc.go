// Package alert implements the gRPC transport of the shared alert record.
//
// The service descriptor is declared by hand on top of the protobuf well-known types:
// records travel as google.protobuf.Struct values carrying the wire JSON shape.
package alert
