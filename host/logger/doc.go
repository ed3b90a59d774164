// Package logger wraps zap for the host tools:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext, FromContext, WithName, WithKV),
//   - level parsing and configuration.
//
// Host components take a context and log through the logger stored in it,
// so a command can scope every line to a device or a session.
package logger
