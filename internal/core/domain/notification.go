package domain

import "fmt"

// NotificationType classifies an admin notification.
type NotificationType string

const (
	NotificationSignupRequest       NotificationType = "SIGNUP_REQUEST"
	NotificationVerificationRequest NotificationType = "VERIFICATION_REQUEST"
	NotificationProjectProposal     NotificationType = "PROJECT_PROPOSAL"
	NotificationAppStatUpdate       NotificationType = "APP_STAT_UPDATE"
)

// Notification is an entry in the admin notification log.
//
// IsAccepted is nil while the request is undecided and moves to true or false
// exactly once.
type Notification struct {
	ID           ID               `json:"id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	CreatedAt    Timestamp        `json:"createdAt"`
	IsRead       bool             `json:"isRead"`
	IsAccepted   *bool            `json:"isAccepted"`
	ReqID        ID               `json:"reqId,omitempty"`
	CompanyID    ID               `json:"companyId,omitempty"`
	DocumentURLs []string         `json:"documentUrls,omitempty"`
	// Status is the server's display label for the related entity; it is only
	// ever refreshed from the server.
	Status string `json:"status,omitempty"`
}

// Clone returns a deep copy of n.
func (n Notification) Clone() Notification {
	if n.IsAccepted != nil {
		v := *n.IsAccepted
		n.IsAccepted = &v
	}
	if n.DocumentURLs != nil {
		n.DocumentURLs = append([]string(nil), n.DocumentURLs...)
	}
	return n
}

// Decided reports whether an accept/reject decision has been recorded.
func (n Notification) Decided() bool {
	return n.IsAccepted != nil
}

// Decide records the accept/reject decision. A second decision on the same
// notification is an invalid transition.
func (n *Notification) Decide(accepted bool) error {
	if n.IsAccepted != nil {
		return fmt.Errorf("notification %s: %w (already %s)", n.ID, ErrInvalidTransition, decisionLabel(*n.IsAccepted))
	}
	n.IsAccepted = &accepted
	return nil
}

// Actionable reports whether the notification carries an approve/reject workflow.
func (t NotificationType) Actionable() bool {
	return t == NotificationSignupRequest || t == NotificationVerificationRequest
}

func decisionLabel(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
