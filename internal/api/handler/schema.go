package handler

import (
	"strings"
	"time"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// --- Request / Response types ---

type reasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type notificationView struct {
	domain.Notification
	Actions []domain.ActionKind `json:"actions"`
}

type notificationListResponse struct {
	Items  []notificationView `json:"items"`
	Unread int                `json:"unread"`
}

type investmentRequestView struct {
	domain.InvestmentRequest
	Actions []domain.ActionKind `json:"actions"`
}

type investmentView struct {
	domain.Investment
	PayoutState domain.PayoutState `json:"payoutState"`
	CanPayout   bool               `json:"canRequestPayout"`
}

type sessionResponse struct {
	UserID    string     `json:"userId"`
	Roles     []string   `json:"roles"`
	Admin     bool       `json:"admin"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// notificationActions lists the admin decisions still open on n. Document
// submission belongs to the company and is never offered here.
func notificationActions(n domain.Notification) []domain.ActionKind {
	var allowed []domain.ActionKind
	switch n.Type {
	case domain.NotificationSignupRequest:
		allowed = domain.CompanySignup.Allowed(domain.SignupStatusOf(n))
	case domain.NotificationVerificationRequest:
		allowed = domain.CompanyVerification.Allowed(domain.VerificationStatusOf(n))
	}

	out := make([]domain.ActionKind, 0, len(allowed))
	for _, a := range allowed {
		if a != domain.ActionSubmitDocuments {
			out = append(out, a)
		}
	}
	return out
}

func toNotificationView(n domain.Notification) notificationView {
	return notificationView{Notification: n, Actions: notificationActions(n)}
}

func toInvestmentRequestView(r domain.InvestmentRequest) investmentRequestView {
	return investmentRequestView{
		InvestmentRequest: r,
		Actions:           domain.InvestmentRequestFlow.Allowed(r.Status),
	}
}

func toInvestmentView(inv domain.Investment) investmentView {
	return investmentView{
		Investment:  inv,
		PayoutState: domain.PayoutStateOf(inv),
		CanPayout:   inv.CanRequestPayout(),
	}
}

func (r *reasonRequest) normalize() { r.Reason = strings.TrimSpace(r.Reason) }
