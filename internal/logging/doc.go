// Package logging provides a simple leveled logging interface for the
// video platform.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions, including failures that are logged and swallowed
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Components obtain a prefixed logger with
// For("views"), which keeps lines greppable per subsystem.
package logging
