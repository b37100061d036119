// Package server runs the alert store: the gRPC server holding the shared record,
// its file persistence, the optional NATS mirror and the optional reminder schedule.
package server
