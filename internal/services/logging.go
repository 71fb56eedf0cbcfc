package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request ID that operation logs are tagged with.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service   string
	Component string
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

// classify picks the level and status label for an operation outcome.
// Caller mistakes are warnings; only unexpected failures are errors.
func classify(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsValidation(err):
		return slog.LevelWarn, "validation_error"
	case IsBusinessRule(err):
		return slog.LevelWarn, "rule_violation"
	case IsUnauthorized(err):
		return slog.LevelWarn, "unauthorized"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	case IsConflict(err):
		return slog.LevelWarn, "conflict"
	default:
		return slog.LevelError, "error"
	}
}

func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, userID string, resourceID uint, resourceType string, duration time.Duration, err error) {
	level, status := classify(err)

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if resourceID != 0 {
		attrs = append(attrs, slog.String(resourceType+"_id", fmt.Sprint(resourceID)))
	}
	if requestID, ok := requestIDFrom(ctx); ok {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var validationErr ValidationErrors
		var ruleErr *BusinessRuleError
		var permErr *PermissionError
		switch {
		case errors.As(err, &validationErr):
			attrs = append(attrs, slog.Any("invalid_fields", validationErr.Fields()))
		case errors.As(err, &ruleErr):
			attrs = append(attrs, slog.String("rule", ruleErr.Rule))
		case errors.As(err, &permErr):
			attrs = append(attrs, slog.String("denied_action", permErr.Action))
		}
	}

	l.logger.LogAttrs(ctx, level, operation+" "+status, attrs...)
}

// OperationLog times one service call and logs its outcome.
type OperationLog struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, userID string) *OperationLog {
	return &OperationLog{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (o *OperationLog) LogResult(resourceID uint, resourceType string, err error) {
	o.logger.LogOperation(o.ctx, o.operation, o.userID, resourceID, resourceType, time.Since(o.startTime), err)
}
