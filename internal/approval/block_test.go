package approval

import "testing"

func newTestBlock(numCandidates int) *BlockEntry {
	return NewBlockEntry(hashFromUint64(1), 10, hashFromUint64(0), 1, numCandidates)
}

func TestBlockEntryContainsCandidates(t *testing.T) {
	block := newTestBlock(3)
	if !block.ContainsCandidates(NewCandidateBitfield(0, 2)) {
		t.Fatalf("expected bitfield within candidate count to be contained")
	}
	if block.ContainsCandidates(NewCandidateBitfield(3)) {
		t.Fatalf("did not expect an out-of-range candidate index to be contained")
	}
}

func TestBlockEntryInsertAndLocateApprovalEntry(t *testing.T) {
	block := newTestBlock(3)
	claimed := NewCandidateBitfield(0, 1)
	entry := newApprovalEntry(AssignmentCert{Validator: 5}, claimed, 5, RoutingNone, false, 4)
	block.InsertApprovalEntry(entry)

	key, ok := block.Candidates[0].claimedKeyFor(5)
	if !ok || key != claimed.Key() {
		t.Fatalf("expected candidate 0 to record validator 5's claimed bitfield")
	}
	key, ok = block.Candidates[1].claimedKeyFor(5)
	if !ok || key != claimed.Key() {
		t.Fatalf("expected candidate 1 to record validator 5's claimed bitfield")
	}
	if _, ok := block.Candidates[2].claimedKeyFor(5); ok {
		t.Fatalf("did not expect candidate 2 to record an unclaimed assignment")
	}
}

func TestBlockEntryNoteApprovalUnknownAssignment(t *testing.T) {
	block := newTestBlock(2)
	vote := ApprovalVote{Candidates: NewCandidateBitfield(0), Validator: 1}

	if _, _, err := block.NoteApproval(vote); err != ErrUnknownAssignment {
		t.Fatalf("expected ErrUnknownAssignment, got %v", err)
	}
}

func TestBlockEntryNoteApprovalOutOfBounds(t *testing.T) {
	block := newTestBlock(2)
	vote := ApprovalVote{Candidates: NewCandidateBitfield(5), Validator: 1}

	if _, _, err := block.NoteApproval(vote); err != ErrCandidateIndexOutOfBounds {
		t.Fatalf("expected ErrCandidateIndexOutOfBounds, got %v", err)
	}
}

func TestBlockEntryNoteApprovalSucceedsAndReturnsRandomlyRoutedPeers(t *testing.T) {
	block := newTestBlock(2)
	claimed := NewCandidateBitfield(0, 1)
	entry := newApprovalEntry(AssignmentCert{Validator: 1}, claimed, 1, RoutingGridX, false, 4)
	entry.Routing.markRandomlySent(PeerID(9))
	block.InsertApprovalEntry(entry)

	vote := ApprovalVote{Candidates: NewCandidateBitfield(0), Validator: 1}
	required, randomlyRouted, err := block.NoteApproval(vote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if required != RoutingGridX {
		t.Fatalf("expected required routing GridX, got %v", required)
	}
	if _, ok := randomlyRouted[9]; !ok {
		t.Fatalf("expected peer 9 to be surfaced as randomly routed")
	}
}

func TestBlockEntryNoteApprovalDifferentPaths(t *testing.T) {
	block := newTestBlock(2)

	claimed0 := NewCandidateBitfield(0)
	entry0 := newApprovalEntry(AssignmentCert{Validator: 1}, claimed0, 1, RoutingGridX, false, 4)
	block.InsertApprovalEntry(entry0)

	claimed1 := NewCandidateBitfield(1)
	entry1 := newApprovalEntry(AssignmentCert{Validator: 1}, claimed1, 1, RoutingGridY, false, 4)
	block.InsertApprovalEntry(entry1)

	vote := ApprovalVote{Candidates: NewCandidateBitfield(0, 1), Validator: 1}
	if _, _, err := block.NoteApproval(vote); err != ErrAssignmentsFollowedDifferentPaths {
		t.Fatalf("expected ErrAssignmentsFollowedDifferentPaths, got %v", err)
	}
}

func TestBlockEntryApprovalVotesUnion(t *testing.T) {
	block := newTestBlock(2)
	claimed := NewCandidateBitfield(0, 1)
	entry := newApprovalEntry(AssignmentCert{Validator: 1}, claimed, 1, RoutingNone, false, 4)
	block.InsertApprovalEntry(entry)

	vote := ApprovalVote{Candidates: NewCandidateBitfield(0, 1), Validator: 1}
	entry.noteApproval(vote)

	votes := block.ApprovalVotes(0)
	if len(votes) != 1 {
		t.Fatalf("expected exactly one approval vote for candidate 0, got %d", len(votes))
	}
	votes = block.ApprovalVotes(1)
	if len(votes) != 1 {
		t.Fatalf("expected exactly one approval vote for candidate 1, got %d", len(votes))
	}
}

func TestBlockEntryRemovePeer(t *testing.T) {
	block := newTestBlock(1)
	pk := block.PeerKnowledgeFor(PeerID(3))
	if pk == nil {
		t.Fatalf("expected a PeerKnowledge entry to be created")
	}
	block.RemovePeer(3)
	if _, ok := block.Peers[3]; ok {
		t.Fatalf("expected peer 3 to be removed")
	}
}
