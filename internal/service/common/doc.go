// Package common holds helpers shared by several services.
//
// It provides the gRPC alert store client with timeouts and self-recovering
// subscriptions, detection of the current system actor and a single-instance guard.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
