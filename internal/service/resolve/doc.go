// Package resolve clears live emergencies after a maximum duration measured from their trigger time.
package resolve
