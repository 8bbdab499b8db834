// Package logging provides a simple leveled logging interface for the
// image browser application.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable,
// or by setting DEBUG=1 as a shortcut for LOG_LEVEL=debug.
package logging
