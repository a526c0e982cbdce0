package approval

// AssignmentCertKind distinguishes the VRF scheme backing an assignment.
type AssignmentCertKind int

const (
	CertRelayVRFDelay AssignmentCertKind = iota
	CertRelayVRFModulo
	CertRelayVRFModuloCompact
)

// AssignmentCert is the opaque, validator-signed claim that a validator is
// assigned to check one or more candidates on a block. Its cryptographic
// payload is never interpreted here; Approval Voting validates it.
type AssignmentCert struct {
	Kind      AssignmentCertKind
	BlockHash Hash
	Validator ValidatorIndex

	// Core is the assigned core index for RelayVRFDelay certs.
	Core uint32
	// Sample is the VRF modulo sample count for RelayVRFModulo certs.
	Sample uint32
	// CoreBitfield is the compact multi-core claim for
	// RelayVRFModuloCompact certs.
	CoreBitfield CandidateBitfield

	// Payload is the opaque signed bytes; approval-distribution never
	// inspects it, and sanitization does not bound its size.
	Payload []byte
}

// ApprovalVote is a validator's signed attestation that one or more
// candidates, identified by CandidateBitfield, were checked and approved.
type ApprovalVote struct {
	BlockHash Hash
	Validator ValidatorIndex
	Candidates CandidateBitfield
	Signature []byte
}

// MessageKind classifies a MessageSubject's position in the knowledge
// lattice: absent < Assignment < Approval.
type MessageKind int

const (
	KindAssignment MessageKind = iota
	KindApproval
)

// satisfies reports whether `have` already satisfies a query for `want`.
// Approval knowledge satisfies an Assignment query (every approval implies
// the matching assignment); an Assignment-only level never satisfies an
// Approval query.
func (have MessageKind) satisfies(want MessageKind) bool {
	if want == KindAssignment {
		return true
	}
	return have == KindApproval
}

// less reports whether `have` is strictly below `want` in the lattice,
// i.e. inserting `want` would raise the stored level.
func (have MessageKind) less(want MessageKind) bool {
	return have == KindAssignment && want == KindApproval
}

// MessageSubject is the fingerprint (block_hash, candidate_bitfield,
// validator_index) that, together with a MessageKind, forms a knowledge key.
type MessageSubject struct {
	BlockHash  Hash
	Candidates string // CandidateBitfield.Key()
	Validator  ValidatorIndex
}

func subjectFor(block Hash, candidates CandidateBitfield, validator ValidatorIndex) MessageSubject {
	return MessageSubject{BlockHash: block, Candidates: candidates.Key(), Validator: validator}
}
