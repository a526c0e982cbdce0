package wire

import (
	"testing"

	"github.com/parachain/approval-distribution/internal/approval"
)

func TestEncodeDecodeRoundTripV3(t *testing.T) {
	msg := Message{
		Version: approval.ProtocolV3,
		V3Assignments: []V3Assignment{
			{Cert: approval.AssignmentCert{Validator: 2}, Claimed: approval.NewCandidateBitfield(0, 3)},
		},
		V3Approvals: []V3Approval{
			{BlockHash: approval.Hash{9}, Validator: 2, Candidates: approval.NewCandidateBitfield(0), Signature: []byte("sig")},
		},
	}

	raw, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Version != approval.ProtocolV3 {
		t.Fatalf("expected version V3, got %v", decoded.Version)
	}
	if len(decoded.V3Assignments) != 1 || decoded.V3Assignments[0].Claimed.Key() != msg.V3Assignments[0].Claimed.Key() {
		t.Fatalf("assignment did not round trip through CBOR")
	}
	if len(decoded.V3Approvals) != 1 || decoded.V3Approvals[0].Validator != 2 {
		t.Fatalf("approval did not round trip through CBOR")
	}
}
