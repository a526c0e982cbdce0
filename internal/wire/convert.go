package wire

import "github.com/parachain/approval-distribution/internal/approval"

// DroppedCounter is satisfied by approval.Metrics; kept as a narrow
// interface so this package does not need the rest of Metrics' surface.
type DroppedCounter interface {
	RecordV1DownConvertDropped()
}

// ToV1 down-converts assignments and approvals to the V1 wire encoding.
// A V2/V3 assignment down-converts only if its claimed bitfield has exactly
// one set bit (spec.md §6); multi-candidate assignments are dropped rather
// than truncated, and counted via counter if non-nil.
func ToV1(assignments []approval.AssignmentMessage, approvals []approval.ApprovalVote, counter DroppedCounter) Message {
	msg := Message{Version: approval.ProtocolV1}

	for _, a := range assignments {
		indices := a.Claimed.Indices()
		if len(indices) != 1 {
			if counter != nil {
				counter.RecordV1DownConvertDropped()
			}
			continue
		}
		msg.V1Assignments = append(msg.V1Assignments, V1Assignment{Cert: a.Cert, Candidate: indices[0]})
	}

	for _, v := range approvals {
		indices := v.Candidates.Indices()
		if len(indices) != 1 {
			if counter != nil {
				counter.RecordV1DownConvertDropped()
			}
			continue
		}
		msg.V1Approvals = append(msg.V1Approvals, V1Approval{
			BlockHash: v.BlockHash,
			Validator: v.Validator,
			Candidate: indices[0],
			Signature: v.Signature,
		})
	}

	return msg
}

// ToV2 converts to the V2 wire encoding. V2 carries a full bitfield for
// assignments but still a single candidate index for approvals (spec.md
// §6), so multi-candidate approvals are split into one V2Approval per set
// bit rather than dropped.
func ToV2(assignments []approval.AssignmentMessage, approvals []approval.ApprovalVote) Message {
	msg := Message{Version: approval.ProtocolV2}

	for _, a := range assignments {
		msg.V2Assignments = append(msg.V2Assignments, V2Assignment{Cert: a.Cert, Claimed: a.Claimed})
	}
	for _, v := range approvals {
		for _, idx := range v.Candidates.Indices() {
			msg.V2Approvals = append(msg.V2Approvals, V2Approval{
				BlockHash: v.BlockHash,
				Validator: v.Validator,
				Candidate: idx,
				Signature: v.Signature,
			})
		}
	}

	return msg
}

// ToV3 converts to the V3 wire encoding, the only version carrying a
// genuine multi-candidate approval bitfield.
func ToV3(assignments []approval.AssignmentMessage, approvals []approval.ApprovalVote) Message {
	msg := Message{Version: approval.ProtocolV3}

	for _, a := range assignments {
		msg.V3Assignments = append(msg.V3Assignments, V3Assignment{Cert: a.Cert, Claimed: a.Claimed})
	}
	for _, v := range approvals {
		msg.V3Approvals = append(msg.V3Approvals, V3Approval{
			BlockHash:  v.BlockHash,
			Validator:  v.Validator,
			Candidates: v.Candidates,
			Signature:  v.Signature,
		})
	}

	return msg
}

// FromWire recovers the internal representation from any wire version.
func FromWire(msg Message) ([]approval.AssignmentMessage, []approval.ApprovalVote) {
	var assignments []approval.AssignmentMessage
	var votes []approval.ApprovalVote

	switch msg.Version {
	case approval.ProtocolV1:
		for _, a := range msg.V1Assignments {
			assignments = append(assignments, approval.AssignmentMessage{
				Cert:    a.Cert,
				Claimed: approval.NewCandidateBitfield(a.Candidate),
			})
		}
		for _, v := range msg.V1Approvals {
			votes = append(votes, approval.ApprovalVote{
				BlockHash:  v.BlockHash,
				Validator:  v.Validator,
				Candidates: approval.NewCandidateBitfield(v.Candidate),
				Signature:  v.Signature,
			})
		}

	case approval.ProtocolV2:
		for _, a := range msg.V2Assignments {
			assignments = append(assignments, approval.AssignmentMessage{Cert: a.Cert, Claimed: a.Claimed})
		}
		votes = mergeV2Approvals(msg.V2Approvals)

	case approval.ProtocolV3:
		for _, a := range msg.V3Assignments {
			assignments = append(assignments, approval.AssignmentMessage{Cert: a.Cert, Claimed: a.Claimed})
		}
		for _, v := range msg.V3Approvals {
			votes = append(votes, approval.ApprovalVote{
				BlockHash:  v.BlockHash,
				Validator:  v.Validator,
				Candidates: v.Candidates,
				Signature:  v.Signature,
			})
		}
	}

	return assignments, votes
}

// mergeV2Approvals recombines the per-candidate-index V2 approvals a single
// validator sent for one block into one ApprovalVote per distinct
// signature, mirroring ToV2's split.
func mergeV2Approvals(in []V2Approval) []approval.ApprovalVote {
	type key struct {
		hash approval.Hash
		val  approval.ValidatorIndex
		sig  string
	}
	byKey := make(map[key]*approval.ApprovalVote)
	var order []key

	for _, v := range in {
		k := key{hash: v.BlockHash, val: v.Validator, sig: string(v.Signature)}
		vote, ok := byKey[k]
		if !ok {
			bf := approval.NewCandidateBitfield(v.Candidate)
			vote = &approval.ApprovalVote{BlockHash: v.BlockHash, Validator: v.Validator, Candidates: bf, Signature: v.Signature}
			byKey[k] = vote
			order = append(order, k)
		} else {
			vote.Candidates.Set(v.Candidate)
		}
	}

	out := make([]approval.ApprovalVote, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}
