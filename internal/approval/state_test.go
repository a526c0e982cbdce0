package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNetwork records every outbound send, used to assert recipient sets
// and absence of echo-back-to-sender without a real Network Bridge.
type fakeNetwork struct {
	assignments map[PeerID][]AssignmentMessage
	approvals   map[PeerID][]ApprovalVote
	reports     map[PeerID]ReputationDelta
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		assignments: make(map[PeerID][]AssignmentMessage),
		approvals:   make(map[PeerID][]ApprovalVote),
		reports:     make(map[PeerID]ReputationDelta),
	}
}

func (f *fakeNetwork) SendAssignments(peer PeerID, version ProtocolVersion, msgs []AssignmentMessage) {
	f.assignments[peer] = append(f.assignments[peer], msgs...)
}

func (f *fakeNetwork) SendApprovals(peer PeerID, version ProtocolVersion, votes []ApprovalVote) {
	f.approvals[peer] = append(f.approvals[peer], votes...)
}

func (f *fakeNetwork) ReportPeer(peer PeerID, delta ReputationDelta) {
	f.reports[peer] += delta
}

func newTestState(net *fakeNetwork) *State {
	return NewState(net, AcceptingApprovalVotingClient{}, nopLogger{}, nil)
}

// setupGridState builds a 4-validator topology where we are validator 0,
// with peer 1 a row neighbor, peer 2 a column neighbor, and peer 3 a
// non-neighbor, plus one unfinalized block B with one candidate.
func setupGridState(t *testing.T, net *fakeNetwork) (*State, Hash) {
	t.Helper()
	s := newTestState(net)

	validators := []ValidatorIndex{0, 1, 2, 3}
	topo := NewSessionGridTopology(1, validators, 0)
	s.Topologies.Insert(topo)

	block := hashFromUint64(100)
	s.AddBlock(BlockDescriptor{Hash: block, Number: 10, ParentHash: hashFromUint64(99), Session: 1, Candidates: 1})

	for _, p := range []PeerID{1, 2, 3} {
		s.AddPeer(p, ProtocolV2)
		topo.SetPeerValidator(p, ValidatorIndex(p))
		s.Blocks[block].PeerKnowledgeFor(p)
	}
	return s, block
}

func TestLocalOriginateDistributesToGridNeighbors(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	msg := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 0}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(LocalSource(), msg)

	require.Len(t, net.assignments[1], 1, "row neighbor peer 1 should receive the assignment")
	require.Len(t, net.assignments[2], 1, "column neighbor peer 2 should receive the assignment")

	subject := subjectFor(block, msg.Claimed, 0)
	assert.True(t, s.Blocks[block].Knowledge.Contains(subject, KindAssignment))
}

func TestPeerRelayNeverEchoesBackToSource(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	// Validator 1 is a row neighbor of us (0); required routing for an
	// assignment it originates is GridX, which by symmetry of the grid
	// also routes to peer 1 (itself a row neighbor) among others — but
	// the source peer must never appear in its own recipient set.
	msg := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 1}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(PeerSource(1), msg)

	assert.Empty(t, net.assignments[1], "the source peer must never receive its own message back")
}

func TestDuplicateRaceIsBenignNotPunished(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	msg := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 0}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(LocalSource(), msg)

	// Peer 1 already received it (sent-side). Now simulate peer 1
	// concurrently sending the same assignment back to us.
	relayMsg := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 0}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(PeerSource(1), relayMsg)
	s.Reputation.Flush(net.ReportPeer)

	assert.Zero(t, net.reports[1], "a benign send race must not be punished")
}

func TestTrueDuplicateIsPunished(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	msg := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 5}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(PeerSource(1), msg)
	s.ImportAndCirculateAssignment(PeerSource(1), msg)
	s.Reputation.Flush(net.ReportPeer)

	// The first copy is accepted and rewarded; only the second is punished.
	assert.Equal(t, BenefitValidMessageFirst+CostDuplicateMessage, net.reports[1])
}

func TestApprovalBeforeAssignmentIsPunished(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	vote := ApprovalVote{BlockHash: block, Validator: 5, Candidates: NewCandidateBitfield(0)}
	s.ImportAndCirculateApproval(PeerSource(2), vote)
	s.Reputation.Flush(net.ReportPeer)

	assert.Equal(t, CostUnexpectedMessage, net.reports[2])
	assert.Empty(t, s.Blocks[block].ApprovalVotes(0))
}

func TestApprovalAfterAssignmentIsAcceptedAndDistributed(t *testing.T) {
	net := newFakeNetwork()
	s, block := setupGridState(t, net)

	assignment := AssignmentMessage{Cert: AssignmentCert{BlockHash: block, Validator: 5}, Claimed: NewCandidateBitfield(0)}
	s.ImportAndCirculateAssignment(PeerSource(1), assignment)

	vote := ApprovalVote{BlockHash: block, Validator: 5, Candidates: NewCandidateBitfield(0)}
	s.ImportAndCirculateApproval(PeerSource(1), vote)

	votes := s.Blocks[block].ApprovalVotes(0)
	require.Len(t, votes, 1)
	assert.Equal(t, ValidatorIndex(5), votes[0].Validator)

	// Validator 5 is outside the grid, so the approval follows the
	// assignment's random routing: never back to peer 1, but to one of 2/3.
	assert.Empty(t, net.approvals[1], "the source peer must never receive its own approval back")
	assert.NotEmpty(t, append(append([]ApprovalVote(nil), net.approvals[2]...), net.approvals[3]...), "the approval should reach the peer its assignment was randomly routed to")
}

func TestAggressionL1RaisesLocalEntriesToAll(t *testing.T) {
	net := newFakeNetwork()
	s := newTestState(net)
	s.Aggression = AggressionConfig{L1Threshold: 16, L2Threshold: 28, ResendUnfinalizedPeriod: 1000}

	validators := []ValidatorIndex{0, 1, 2, 3}
	topo := NewSessionGridTopology(1, validators, 0)
	s.Topologies.Insert(topo)

	oldest := hashFromUint64(1)
	s.AddBlock(BlockDescriptor{Hash: oldest, Number: 100, ParentHash: hashFromUint64(0), Session: 1, Candidates: 1})
	s.AddBlock(BlockDescriptor{Hash: hashFromUint64(2), Number: 119, ParentHash: oldest, Session: 1, Candidates: 1})

	s.AddPeer(3, ProtocolV2)
	topo.SetPeerValidator(3, 3)
	s.Blocks[oldest].PeerKnowledgeFor(3)

	entry := newApprovalEntry(AssignmentCert{Validator: 0, BlockHash: oldest}, NewCandidateBitfield(0), 0, RoutingNone, true, 1)
	s.Blocks[oldest].InsertApprovalEntry(entry)

	s.EnableAggression(true)

	assert.Equal(t, RoutingAll, entry.Routing.RequiredRouting)
	assert.NotEmpty(t, net.assignments[3], "a peer not previously sent the message should now receive it under All routing")
}

func TestFinalizationEvictsBlocksAndRecordsOutdated(t *testing.T) {
	net := newFakeNetwork()
	s := newTestState(net)

	for n := BlockNumber(100); n <= 120; n++ {
		s.AddBlock(BlockDescriptor{Hash: hashFromUint64(uint64(n)), Number: n, ParentHash: hashFromUint64(uint64(n - 1)), Session: 1, Candidates: 1})
	}
	require.Len(t, s.Blocks, 21)

	s.FinalizeBlock(110)

	assert.Len(t, s.Blocks, 10, "blocks 111..120 should remain")
	for n := BlockNumber(100); n <= 110; n++ {
		_, stillPresent := s.Blocks[hashFromUint64(uint64(n))]
		assert.False(t, stillPresent)
		assert.True(t, s.Outdated.contains(hashFromUint64(uint64(n))))
	}
}

func TestRecentlyOutdatedRingCapsAtTwenty(t *testing.T) {
	net := newFakeNetwork()
	s := newTestState(net)

	for n := BlockNumber(0); n < 25; n++ {
		s.AddBlock(BlockDescriptor{Hash: hashFromUint64(uint64(n)), Number: n, ParentHash: hashFromUint64(0), Session: 1, Candidates: 1})
	}
	s.FinalizeBlock(24)

	assert.LessOrEqual(t, s.Outdated.len(), DefaultRecentlyOutdatedCapacity)
}

func TestRepeatedNewBlockIsNoOp(t *testing.T) {
	net := newFakeNetwork()
	s := newTestState(net)

	d := BlockDescriptor{Hash: hashFromUint64(1), Number: 1, ParentHash: hashFromUint64(0), Session: 1, Candidates: 2}
	first := s.AddBlock(d)
	second := s.AddBlock(d)

	assert.Same(t, first, second, "re-adding an existing block hash must be a no-op returning the same entry")
}
