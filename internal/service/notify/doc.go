// Package notify informs idle devices of new emergencies through an Apprise API server.
package notify
