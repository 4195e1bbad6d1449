package domain

// CompanyStatus is the lifecycle of a company account.
type CompanyStatus string

const (
	CompanyPending       CompanyStatus = "PENDING"
	CompanyApproved      CompanyStatus = "APPROVED"
	CompanyPendingDocs   CompanyStatus = "PENDING_DOCS"
	CompanyFullyVerified CompanyStatus = "FULLY_VERIFIED"
	CompanyRejected      CompanyStatus = "REJECTED"
)

// CompanySignup covers the admin decision on a signup request.
var CompanySignup = Machine[CompanyStatus]{
	Name: "company signup",
	transitions: map[CompanyStatus]map[ActionKind]CompanyStatus{
		CompanyPending: {
			ActionApprove: CompanyApproved,
			ActionReject:  CompanyRejected,
		},
	},
}

// CompanyVerification covers document submission and the admin decision on it.
var CompanyVerification = Machine[CompanyStatus]{
	Name: "company verification",
	transitions: map[CompanyStatus]map[ActionKind]CompanyStatus{
		CompanyApproved: {
			ActionSubmitDocuments:     CompanyPendingDocs,
			ActionApproveVerification: CompanyFullyVerified,
			ActionRejectVerification:  CompanyRejected,
		},
		CompanyPendingDocs: {
			ActionApproveVerification: CompanyFullyVerified,
			ActionRejectVerification:  CompanyRejected,
		},
	},
}

// CanPostProject reports whether a company in status s may publish
// investment projects.
func CanPostProject(s CompanyStatus) bool {
	return s == CompanyFullyVerified
}

// SignupStatusOf derives the signup state from a SIGNUP_REQUEST notification.
func SignupStatusOf(n Notification) CompanyStatus {
	switch {
	case n.IsAccepted == nil:
		return CompanyPending
	case *n.IsAccepted:
		return CompanyApproved
	default:
		return CompanyRejected
	}
}

// VerificationStatusOf derives the verification state from a
// VERIFICATION_REQUEST notification. An undecided request means the company
// is waiting on document review.
func VerificationStatusOf(n Notification) CompanyStatus {
	switch {
	case n.IsAccepted == nil:
		return CompanyPendingDocs
	case *n.IsAccepted:
		return CompanyFullyVerified
	default:
		return CompanyRejected
	}
}
