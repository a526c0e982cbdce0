package approval

// AcceptingApprovalVotingClient is an ApprovalVotingClient that accepts
// everything. Approval Voting's cryptographic checks are an external
// collaborator out of scope for this subsystem (spec.md §1); this
// implementation lets the event loop run without one wired up.
type AcceptingApprovalVotingClient struct{}

func (AcceptingApprovalVotingClient) CheckAndImportAssignment(cert AssignmentCert, claimed CandidateBitfield) AssignmentCheckResult {
	return AssignmentAccepted
}

func (AcceptingApprovalVotingClient) CheckAndImportApproval(vote ApprovalVote) ApprovalCheckResult {
	return ApprovalAccepted
}
