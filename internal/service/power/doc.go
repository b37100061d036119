// Package power holds OS level idle and sleep inhibitors.
package power
