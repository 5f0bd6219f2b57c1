// Package logger provides structured logging for the ledger daemon and CLI.
//
// Two backends sit behind the same Logger interface:
//
//   - logger.go: log/slog handlers (json, text)
//   - zap.go: go.uber.org/zap cores (json, console)
//   - context.go: context propagation of loggers, request IDs and operations
//   - redact.go: masking of seed material and other secrets
//
// Both backends share one dynamic level, so SetLevel (driven by the config
// watcher) takes effect on every logger created from New.
package logger
