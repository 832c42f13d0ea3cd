// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationsQueueName is the durable queue carrying security-relevant
// account events. The API process publishes; the in-process consumer
// turns events into emails.
const NotificationsQueueName = "account.notifications"

// Account event types.
const (
    EventPasswordChanged        = "password_changed"
    EventUsernameChanged        = "username_changed"
    EventPasswordResetRequested = "password_reset_requested"
)

// AccountEvent is published whenever a credential or identity attribute
// changes. It contains enough information for the consumer to build a
// notification email without querying the primary database. Delivery is
// best effort: the mutation that triggered the event has already been
// committed by the time the event is published.
type AccountEvent struct {
    Type        string `json:"type"`
    Email       string `json:"email"`
    Username    string `json:"username"`
    OldUsername string `json:"old_username,omitempty"`
    ResetLink   string `json:"reset_link,omitempty"`
    OccurredAt  string `json:"occurred_at"`
}
