// Package logger is a thin structured-logging layer over zerolog.
//
// Services log through *Logger with a message and optional field maps:
//
//	log := logger.WithComponent("account")
//	log.Info("user registered", logger.Fields(logger.FieldUserID, id))
//
// Request-scoped values (request id, user id) are attached to a context by
// the HTTP middleware and picked up with WithContext.
package logger
