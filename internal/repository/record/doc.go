// Package record implements the Remote Alert Store adapters.
//
// Every adapter holds exactly one alert.Record, replaces it as a whole and pushes
// the latest record to subscribers. Hub is the in-process store, NATSStore keeps the
// record in a JetStream key-value bucket and FileRepository persists the record of
// the gRPC server across restarts.
package record
