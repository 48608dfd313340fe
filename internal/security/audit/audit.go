package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits structured audit records for security-relevant actions.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, tenantID, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogLogin(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, "", userID, "login", "session", "", status, details)
}

func (al *Logger) LogUserCreated(ctx context.Context, tenantID, actorID, newUserID string) {
	al.LogAction(ctx, tenantID, actorID, "create", "user", newUserID, "created", "")
}

func (al *Logger) LogTenantCreated(ctx context.Context, actorID, tenantID string) {
	al.LogAction(ctx, tenantID, actorID, "create", "client", tenantID, "created", "")
}

func (al *Logger) LogUpload(ctx context.Context, tenantID, userID, schemaName string, rows int) {
	al.LogAction(ctx, tenantID, userID, "upload", "dataset", schemaName, "committed", "")
}

func (al *Logger) LogDenied(ctx context.Context, tenantID, userID, reason string) {
	al.LogAction(ctx, tenantID, userID, "access_denied", "api", "", "denied", reason)
}
