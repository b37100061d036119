// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every service of the alert engine accepts a context and extracts the logger
// from it, so phase transitions, store deliveries and audio failures are logged
// with the component name that produced them.
package logger
