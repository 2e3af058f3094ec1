// Package queue defines message payloads exchanged over the message broker.
package queue

// LoginAuditEvent is published for every authentication attempt, success or
// failure. It carries enough for downstream security monitoring to alert on
// credential-stuffing patterns without querying the primary database.
type LoginAuditEvent struct {
	Username    string `json:"username"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
	Success     bool   `json:"success"`
	AttemptedAt string `json:"attempted_at"`
}
