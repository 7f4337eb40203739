// Package notify delivers credential and status notifications to members.
// The workflow treats delivery as fire-and-forget: a failed notification is
// logged, never propagated to the caller.
package notify

import (
	"context"
	"log/slog"
)

// CredentialNotice carries the login details sent to a newly promoted admin.
type CredentialNotice struct {
	MobileNumber string
	Username     string
	// Password is the generated default credential, sent once and never
	// stored in plain text.
	Password string
	Role     string
}

// Notifier sends a credential notice to a member.
type Notifier interface {
	SendCredentials(ctx context.Context, n CredentialNotice) error
}

// LogNotifier writes notices to the structured log instead of an SMS
// gateway. Used in development and as the default wiring until a gateway is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendCredentials implements Notifier. The password itself is never logged.
func (n *LogNotifier) SendCredentials(ctx context.Context, notice CredentialNotice) error {
	n.logger.InfoContext(ctx, "credential notice",
		"mobile_number", notice.MobileNumber,
		"username", notice.Username,
		"role", notice.Role,
	)
	return nil
}
