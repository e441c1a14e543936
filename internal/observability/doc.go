// Package observability provides structured logging and Prometheus metrics
// for the task tracker.
//
// Loggers are zap-based and configured from LOG_LEVEL and LOG_FORMAT.
// Metrics cover logins, user registration, access gate verdicts and HTTP
// traffic, and are exposed on a separate listener.
package observability
