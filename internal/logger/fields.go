package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldTool     = "tool"
	FieldCallID   = "call_id"
	FieldEmail    = "email"
)

// nonEmpty turns key/value pairs into string fields, dropping blank values.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		value := strings.TrimSpace(pairs[i+1])
		if value == "" {
			continue
		}
		fields = append(fields, zap.String(pairs[i], value))
	}
	return fields
}

func with(log *zap.Logger, fields []zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// WithCommonFields tags log with the model provider and model name.
func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return with(log, nonEmpty(FieldProvider, provider, FieldModel, model))
}

// WithToolCall tags log with the tool being dispatched.
func WithToolCall(log *zap.Logger, name, id string) *zap.Logger {
	return with(log, nonEmpty(FieldTool, name, FieldCallID, id))
}

// Email is the field used for profile identifiers.
func Email(email string) zap.Field {
	return zap.String(FieldEmail, strings.TrimSpace(email))
}
