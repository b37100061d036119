// Package producer writes whole alert records to the shared store.
//
// Emergencies, drills, announcements and resolutions are built with the domain
// constructors and replace the remote record in a single write. Failed writes are
// returned to the caller and never retried.
package producer
