// Package monitor implements the client device process (alert-monitor).
//
// It follows the remote alert store and feeds every record to the local
// phase scheduler and auto-resolve timer, appends the alert history,
// notifies about new emergencies and serves the phase feed for a
// presentation layer.
package monitor
