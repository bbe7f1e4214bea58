// Package observable decorates command and query handlers with metrics, tracing and logging.
//
// The wrappers only observe: they take everything they report from the handler's error and,
// for commands, from the shell.HandlerResult.
package observable
