package wire

import (
	"testing"

	"github.com/parachain/approval-distribution/internal/approval"
)

type countingDropped struct{ count int }

func (c *countingDropped) RecordV1DownConvertDropped() { c.count++ }

func TestToV1DropsMultiCandidateAssignments(t *testing.T) {
	single := approval.AssignmentMessage{Claimed: approval.NewCandidateBitfield(2)}
	multi := approval.AssignmentMessage{Claimed: approval.NewCandidateBitfield(0, 1)}
	counter := &countingDropped{}

	msg := ToV1([]approval.AssignmentMessage{single, multi}, nil, counter)

	if len(msg.V1Assignments) != 1 {
		t.Fatalf("expected exactly one V1 assignment to survive down-conversion, got %d", len(msg.V1Assignments))
	}
	if msg.V1Assignments[0].Candidate != 2 {
		t.Fatalf("expected the surviving assignment to be the single-candidate one")
	}
	if counter.count != 1 {
		t.Fatalf("expected exactly one dropped-assignment count, got %d", counter.count)
	}
}

func TestToV1DropsMultiCandidateApprovals(t *testing.T) {
	single := approval.ApprovalVote{Candidates: approval.NewCandidateBitfield(1)}
	multi := approval.ApprovalVote{Candidates: approval.NewCandidateBitfield(0, 3)}
	counter := &countingDropped{}

	msg := ToV1(nil, []approval.ApprovalVote{single, multi}, counter)

	if len(msg.V1Approvals) != 1 {
		t.Fatalf("expected exactly one V1 approval to survive down-conversion, got %d", len(msg.V1Approvals))
	}
	if counter.count != 1 {
		t.Fatalf("expected exactly one dropped-approval count, got %d", counter.count)
	}
}

func TestToV2SplitsMultiCandidateApprovals(t *testing.T) {
	vote := approval.ApprovalVote{Validator: 3, Candidates: approval.NewCandidateBitfield(0, 2)}
	msg := ToV2(nil, []approval.ApprovalVote{vote})

	if len(msg.V2Approvals) != 2 {
		t.Fatalf("expected the multi-candidate approval to split into 2 V2 approvals, got %d", len(msg.V2Approvals))
	}
}

func TestToV3PreservesMultiCandidateApprovalBitfield(t *testing.T) {
	vote := approval.ApprovalVote{Validator: 3, Candidates: approval.NewCandidateBitfield(0, 2)}
	msg := ToV3(nil, []approval.ApprovalVote{vote})

	if len(msg.V3Approvals) != 1 {
		t.Fatalf("expected exactly one V3 approval, got %d", len(msg.V3Approvals))
	}
	if msg.V3Approvals[0].Candidates.Key() != vote.Candidates.Key() {
		t.Fatalf("expected V3 to carry the full candidate bitfield unsplit")
	}
}

func TestFromWireV2MergesSplitApprovals(t *testing.T) {
	vote := approval.ApprovalVote{BlockHash: approval.Hash{1}, Validator: 9, Candidates: approval.NewCandidateBitfield(0, 2), Signature: []byte("sig")}
	wireMsg := ToV2(nil, []approval.ApprovalVote{vote})

	_, votes := FromWire(wireMsg)
	if len(votes) != 1 {
		t.Fatalf("expected the split V2 approvals to merge back into one vote, got %d", len(votes))
	}
	if votes[0].Candidates.Key() != vote.Candidates.Key() {
		t.Fatalf("merged candidate bitfield should match the original")
	}
}

func TestFromWireV1RoundTrip(t *testing.T) {
	assignments := []approval.AssignmentMessage{{Claimed: approval.NewCandidateBitfield(4)}}
	wireMsg := ToV1(assignments, nil, nil)

	recovered, _ := FromWire(wireMsg)
	if len(recovered) != 1 || recovered[0].Claimed.Key() != assignments[0].Claimed.Key() {
		t.Fatalf("expected V1 assignment round trip to preserve the claimed bitfield")
	}
}
