// Package wire implements the versioned approval-distribution network
// frames of spec.md §6: V1, V2, and V3 message encodings, down-conversion
// between them, and notification-size batching.
package wire

import "github.com/parachain/approval-distribution/internal/approval"

// V1Assignment carries a single candidate index; V1 never had a concept of
// a multi-candidate assignment.
type V1Assignment struct {
	Cert      approval.AssignmentCert
	Candidate approval.CandidateIndex
}

// V1Approval carries a single candidate index.
type V1Approval struct {
	BlockHash approval.Hash
	Validator approval.ValidatorIndex
	Candidate approval.CandidateIndex
	Signature []byte
}

// V2Assignment carries a full CandidateBitfield and the richer cert kinds
// introduced alongside it.
type V2Assignment struct {
	Cert    approval.AssignmentCert
	Claimed approval.CandidateBitfield
}

// V2Approval is wire-identical to V1Approval: V1 and V2 share one approval
// encoding (spec.md §6).
type V2Approval = V1Approval

// V3Assignment is identical in shape to V2Assignment; V3 only changes the
// approval encoding.
type V3Assignment = V2Assignment

// V3Approval carries a candidate bitfield and supports multi-candidate
// approvals, the one encoding difference V3 introduces.
type V3Approval struct {
	BlockHash  approval.Hash
	Validator  approval.ValidatorIndex
	Candidates approval.CandidateBitfield
	Signature  []byte
}

// Message is the tagged union {Assignments([...]), Approvals([...])} of
// spec.md §6, parameterized by protocol version. Exactly one of the
// version-specific slice pairs is populated, matching Version.
type Message struct {
	Version approval.ProtocolVersion

	V1Assignments []V1Assignment
	V1Approvals   []V1Approval

	V2Assignments []V2Assignment
	V2Approvals   []V2Approval

	V3Assignments []V3Assignment
	V3Approvals   []V3Approval
}
