package domain

import (
	"errors"
	"testing"
)

var allCompanyStatuses = []CompanyStatus{
	CompanyPending, CompanyApproved, CompanyPendingDocs, CompanyFullyVerified, CompanyRejected,
}

var allRequestStatuses = []InvestmentRequestStatus{
	RequestPending, RequestAccepted, RequestPaid, RequestRejected,
}

func TestCompanySignup_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    CompanyStatus
		action  Action
		want    CompanyStatus
		wantErr error
	}{
		{"approve pending", CompanyPending, Action{Kind: ActionApprove}, CompanyApproved, nil},
		{"reject pending", CompanyPending, Action{Kind: ActionReject, Reason: "incomplete"}, CompanyRejected, nil},
		{"reject without reason", CompanyPending, Action{Kind: ActionReject, Reason: "  "}, CompanyPending, ErrMissingField},
		{"approve approved", CompanyApproved, Action{Kind: ActionApprove}, CompanyApproved, ErrInvalidTransition},
		{"reject rejected", CompanyRejected, Action{Kind: ActionReject, Reason: "x"}, CompanyRejected, ErrInvalidTransition},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CompanySignup.Transition(tc.from, tc.action)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCompanyVerification_Transitions(t *testing.T) {
	for _, from := range []CompanyStatus{CompanyApproved, CompanyPendingDocs} {
		got, err := CompanyVerification.Transition(from, Action{Kind: ActionApproveVerification})
		if err != nil || got != CompanyFullyVerified {
			t.Errorf("approve from %s: got %s, %v", from, got, err)
		}
		got, err = CompanyVerification.Transition(from, Action{Kind: ActionRejectVerification, Reason: "blurry id"})
		if err != nil || got != CompanyRejected {
			t.Errorf("reject from %s: got %s, %v", from, got, err)
		}
		if _, err := CompanyVerification.Transition(from, Action{Kind: ActionRejectVerification}); !errors.Is(err, ErrMissingField) {
			t.Errorf("reject without reason from %s: expected ErrMissingField, got %v", from, err)
		}
	}

	for _, from := range []CompanyStatus{CompanyPending, CompanyFullyVerified, CompanyRejected} {
		if _, err := CompanyVerification.Transition(from, Action{Kind: ActionApproveVerification}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("approve from %s: expected ErrInvalidTransition, got %v", from, err)
		}
	}
}

func TestCanPostProject_OnlyFullyVerified(t *testing.T) {
	for _, s := range allCompanyStatuses {
		if got, want := CanPostProject(s), s == CompanyFullyVerified; got != want {
			t.Errorf("CanPostProject(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestInvestmentRequest_Actions(t *testing.T) {
	for _, s := range allRequestStatuses {
		r := InvestmentRequest{Status: s}
		if got, want := r.CanPay(), s == RequestAccepted; got != want {
			t.Errorf("CanPay(%s) = %v, want %v", s, got, want)
		}
		if got, want := r.CanDecide(), s == RequestPending; got != want {
			t.Errorf("CanDecide(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestInvestmentRequestFlow_DoubleAcceptRejected(t *testing.T) {
	next, err := InvestmentRequestFlow.Transition(RequestPending, Action{Kind: ActionAccept})
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := InvestmentRequestFlow.Transition(next, Action{Kind: ActionAccept}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	paid, err := InvestmentRequestFlow.Transition(next, Action{Kind: ActionPay})
	if err != nil || paid != RequestPaid {
		t.Fatalf("pay: got %s, %v", paid, err)
	}
}

func TestPayoutRequest_Guard(t *testing.T) {
	tests := []struct {
		inv  Investment
		want bool
	}{
		{Investment{IsMatured: true, PayoutRequested: false}, true},
		{Investment{IsMatured: true, PayoutRequested: true}, false},
		{Investment{IsMatured: false, PayoutRequested: false}, false},
	}
	for _, tc := range tests {
		if got := tc.inv.CanRequestPayout(); got != tc.want {
			t.Errorf("CanRequestPayout(%+v) = %v, want %v", tc.inv, got, tc.want)
		}
	}

	if _, err := PayoutRequest.Transition(PayoutRequested, Action{Kind: ActionRequestPayout}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for second request, got %v", err)
	}
}

func TestNotification_DecideOnce(t *testing.T) {
	n := Notification{ID: "1", Type: NotificationVerificationRequest}
	if n.Decided() {
		t.Fatalf("new notification must be undecided")
	}
	if err := n.Decide(true); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if err := n.Decide(false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !*n.IsAccepted {
		t.Errorf("second decision must not change the recorded value")
	}
}

func TestMachine_Allowed(t *testing.T) {
	got := CompanyVerification.Allowed(CompanyApproved)
	want := []ActionKind{ActionApproveVerification, ActionRejectVerification, ActionSubmitDocuments}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(CompanySignup.Allowed(CompanyRejected)) != 0 {
		t.Errorf("terminal state must have no actions")
	}
}
