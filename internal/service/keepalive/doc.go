// Package keepalive keeps the host awake and its audio path open while an alert cycle runs.
package keepalive
