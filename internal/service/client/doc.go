// Package client runs the producer actions of the alert-button command.
//
// Every action writes one whole record to the remote alert store and prints
// the resulting record. Writes are never retried; a failed write is reported
// and the operator reissues it.
package client
