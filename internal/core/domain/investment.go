package domain

// InvestmentRequestStatus is the lifecycle of an investor's request to fund a project.
type InvestmentRequestStatus string

const (
	RequestPending  InvestmentRequestStatus = "PENDING"
	RequestAccepted InvestmentRequestStatus = "ACCEPTED"
	RequestPaid     InvestmentRequestStatus = "PAID"
	RequestRejected InvestmentRequestStatus = "REJECTED"
)

// InvestmentRequestFlow: the company accepts or rejects, the investor pays.
var InvestmentRequestFlow = Machine[InvestmentRequestStatus]{
	Name: "investment request",
	transitions: map[InvestmentRequestStatus]map[ActionKind]InvestmentRequestStatus{
		RequestPending: {
			ActionAccept: RequestAccepted,
			ActionReject: RequestRejected,
		},
		RequestAccepted: {
			ActionPay: RequestPaid,
		},
	},
}

// InvestmentRequest is one investor's request to fund a project.
type InvestmentRequest struct {
	ID              ID                      `json:"id"`
	ProjectID       ID                      `json:"projectId,omitempty"`
	ProjectTitle    string                  `json:"projectTitle,omitempty"`
	InvestorID      ID                      `json:"investorId,omitempty"`
	InvestorName    string                  `json:"investorName,omitempty"`
	Amount          float64                 `json:"amount"`
	Status          InvestmentRequestStatus `json:"status"`
	RejectionReason string                  `json:"rejectionReason,omitempty"`
	CreatedAt       Timestamp               `json:"createdAt"`
}

// CanDecide reports whether the accept/reject actions are exposed.
func (r InvestmentRequest) CanDecide() bool {
	return InvestmentRequestFlow.Can(r.Status, ActionAccept)
}

// CanPay reports whether the "Pay Now" action is exposed.
func (r InvestmentRequest) CanPay() bool {
	return InvestmentRequestFlow.Can(r.Status, ActionPay)
}

// Investment is a funded position held by an investor.
type Investment struct {
	ID              ID        `json:"id"`
	ProjectID       ID        `json:"projectId,omitempty"`
	ProjectTitle    string    `json:"projectTitle,omitempty"`
	Amount          float64   `json:"amount"`
	IsMatured       bool      `json:"isMatured"`
	PayoutRequested bool      `json:"payoutRequested"`
	MaturityDate    Timestamp `json:"maturityDate"`
}

// PayoutState is derived from an investment's maturity and payout flags.
type PayoutState string

const (
	PayoutNotMatured PayoutState = "NOT_MATURED"
	PayoutAvailable  PayoutState = "AVAILABLE"
	PayoutRequested  PayoutState = "REQUESTED"
)

// PayoutRequest allows one payout request per matured investment.
var PayoutRequest = Machine[PayoutState]{
	Name: "payout request",
	transitions: map[PayoutState]map[ActionKind]PayoutState{
		PayoutAvailable: {
			ActionRequestPayout: PayoutRequested,
		},
	},
}

// PayoutStateOf derives the payout state of inv.
func PayoutStateOf(inv Investment) PayoutState {
	switch {
	case inv.PayoutRequested:
		return PayoutRequested
	case inv.IsMatured:
		return PayoutAvailable
	default:
		return PayoutNotMatured
	}
}

// CanRequestPayout reports whether the "Request Payout" action is enabled.
func (inv Investment) CanRequestPayout() bool {
	return PayoutRequest.Can(PayoutStateOf(inv), ActionRequestPayout)
}
