// Package history keeps an append-only log of the alert records a monitor has observed.
package history
