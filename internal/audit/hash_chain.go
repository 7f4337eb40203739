package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// computeHash returns the SHA-256 hash of an entry's identifying fields.
// IP address and user agent are deliberately excluded so that
// retention-driven IP anonymization does not invalidate the chain.
func computeHash(log *AuditLog) string {
	var b strings.Builder
	b.WriteString(log.ID)
	b.WriteByte('|')
	b.WriteString(log.AdminID)
	b.WriteByte('|')
	b.WriteString(log.EntityType)
	b.WriteByte('|')
	b.WriteString(log.EntityID)
	b.WriteByte('|')
	b.WriteString(log.Action)
	b.WriteByte('|')
	b.WriteString(log.Outcome)
	b.WriteByte('|')
	b.WriteString(log.CreatedAt.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')
	b.WriteString(log.RequestID)
	b.WriteByte('|')
	b.WriteString(log.PreviousHash)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
