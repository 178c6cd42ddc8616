package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the production structured logger shared by both services.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation returns a child logger tagged with the operation name and,
// when known, the upload operation id.
func WithOperation(logger *zap.Logger, operation, opID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if opID != "" {
		fields = append(fields, zap.String("op_id", opID))
	}
	return logger.With(fields...)
}

// OperationError annotates an error with the operation it occurred in.
type OperationError struct {
	Operation string
	OpID      string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.OpID != "" {
		return fmt.Sprintf("%s (op_id=%s): %v", e.Operation, e.OpID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err with operation metadata. A nil err stays nil so
// callers can wrap unconditionally.
func NewOperationError(operation, opID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, OpID: opID, Err: err}
}
