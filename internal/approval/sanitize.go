package approval

// sanitizeAssignment validates an incoming assignment's bitfields before
// ingestion, per spec.md §4.9. V1 only bounds bit-counts; V2/V3 additionally
// require the candidate bitfield be non-empty with its most significant bit
// set (trivially true for a bitfield whose logical length is defined by its
// MSB, but checked explicitly here to catch a zero-length encoding).
func sanitizeAssignment(version ProtocolVersion, msg AssignmentMessage) error {
	if msg.Cert.CoreBitfield.Len() > MaxBitfieldSize {
		return ErrOversizedBitfield
	}
	if msg.Claimed.Len() > MaxBitfieldSize {
		return ErrOversizedBitfield
	}
	if version != ProtocolV1 {
		if msg.Claimed.IsZero() {
			return ErrOversizedBitfield
		}
		msb := CandidateIndex(msg.Claimed.Len() - 1)
		if !msg.Claimed.IsSet(msb) {
			return ErrOversizedBitfield
		}
	}
	return nil
}

// sanitizeApproval validates an incoming approval's candidate bitfield.
func sanitizeApproval(version ProtocolVersion, vote ApprovalVote) error {
	if vote.Candidates.Len() > MaxBitfieldSize {
		return ErrOversizedBitfield
	}
	if vote.Candidates.IsZero() {
		return ErrOversizedBitfield
	}
	return nil
}

// SanitizeAndImportAssignment is the entry point for peer-originated
// assignments: it sanitizes first and only ingests on success, punishing
// and dropping the message otherwise.
func (s *State) SanitizeAndImportAssignment(peer PeerID, version ProtocolVersion, msg AssignmentMessage) {
	if err := sanitizeAssignment(version, msg); err != nil {
		s.punish(peer, CostOversizedBitfield, err)
		return
	}
	s.ImportAndCirculateAssignment(PeerSource(peer), msg)
}

// SanitizeAndImportApproval is the entry point for peer-originated
// approvals.
func (s *State) SanitizeAndImportApproval(peer PeerID, version ProtocolVersion, vote ApprovalVote) {
	if err := sanitizeApproval(version, vote); err != nil {
		s.punish(peer, CostOversizedBitfield, err)
		return
	}
	s.ImportAndCirculateApproval(PeerSource(peer), vote)
}
