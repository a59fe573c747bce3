package posauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLogout               = "logout"
	auditEventAnonymousBoot        = "anonymous_boot"
	auditEventHydrationCompleted   = "hydration_completed"
	auditEventIdentityDegraded     = "identity_refresh_degraded"
	auditEventPermissionsRefreshed = "permissions_refreshed"
	auditEventPermissionsDegraded  = "permission_refresh_degraded"
	auditEventBusinessDegraded     = "business_lookup_degraded"
	auditEventAssetFetchFailure    = "asset_fetch_failure"
	auditEventStaleResultDiscarded = "stale_result_discarded"
)

// AuditErrorCode is the stable error vocabulary carried by audit events in
// place of raw error strings.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrNotAuthenticated   AuditErrorCode = "not_authenticated"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrClosed             AuditErrorCode = "engine_closed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrEngineClosed):
		return auditErrClosed
	default:
		return auditErrInternal
	}
}
