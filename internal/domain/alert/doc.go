// Package alert contains the core domain types of the alert broadcast engine.
//
// It defines Record (the single shared alert condition), its status and test-kind
// enums, the producer constructors, the narration texts derived from a record and the
// wire codec used by every store transport.
package alert
