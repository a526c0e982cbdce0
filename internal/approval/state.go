package approval

import (
	"math/rand"
	"sort"
)

// AggressionConfig carries the thresholds from spec.md §4.8.
type AggressionConfig struct {
	L1Threshold             uint32
	L2Threshold             uint32
	ResendUnfinalizedPeriod uint32
}

// DefaultAggressionConfig returns the thresholds spec.md §4.8 suggests.
func DefaultAggressionConfig() AggressionConfig {
	return AggressionConfig{L1Threshold: 16, L2Threshold: 28, ResendUnfinalizedPeriod: 8}
}

// State is the top-level object tying together every unfinalized block's
// knowledge, every connected peer's view, session topologies, the
// recently-outdated ring, aggression configuration, and the reputation
// aggregator (spec.md §3).
type State struct {
	Blocks         map[Hash]*BlockEntry
	BlocksByNumber map[BlockNumber][]Hash
	Peers          map[PeerID]*PeerEntry
	Pending        map[Hash][]pendingMessage

	Topologies *SessionGridTopologies
	Outdated   *recentlyOutdated

	Aggression          AggressionConfig
	ApprovalCheckingLag uint32

	Reputation *ReputationAggregator
	Metrics    *Metrics
	Logger     Logger

	Network        NetworkSink
	ApprovalVoting ApprovalVotingClient

	rng *rand.Rand

	maxNotificationSize int
}

// NewState constructs an empty State. rng may be nil, in which case a new
// source seeded with 1 is used, so runs without an explicit rng are
// deterministic.
func NewState(network NetworkSink, voting ApprovalVotingClient, logger Logger, rng *rand.Rand) *State {
	if logger == nil {
		logger = nopLogger{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &State{
		Blocks:              make(map[Hash]*BlockEntry),
		BlocksByNumber:       make(map[BlockNumber][]Hash),
		Peers:               make(map[PeerID]*PeerEntry),
		Pending:             make(map[Hash][]pendingMessage),
		Topologies:          NewSessionGridTopologies(),
		Outdated:            newRecentlyOutdated(DefaultRecentlyOutdatedCapacity),
		Aggression:          DefaultAggressionConfig(),
		Reputation:          NewReputationAggregator(),
		Metrics:             NewMetrics(),
		Logger:              logger,
		Network:             network,
		ApprovalVoting:      voting,
		rng:                 rng,
		maxNotificationSize: 8192,
	}
}

// totalPeers returns the number of currently connected peers, the
// denominator RandomRouting uses to size its target.
func (s *State) totalPeers() int {
	return len(s.Peers)
}

// AddBlock inserts a new BlockEntry for a previously unseen hash (the
// NewBlocks control signal, spec.md §4.10). Re-insertion of an existing
// hash is a no-op (spec.md §8's round-trip property).
func (s *State) AddBlock(d BlockDescriptor) *BlockEntry {
	if existing, ok := s.Blocks[d.Hash]; ok {
		return existing
	}
	entry := NewBlockEntry(d.Hash, d.Number, d.ParentHash, d.Session, d.Candidates)
	s.Blocks[d.Hash] = entry
	s.BlocksByNumber[d.Number] = append(s.BlocksByNumber[d.Number], d.Hash)
	s.Topologies.Acquire(d.Session)
	return entry
}

// FinalizeBlock evicts every block with number <= finalizedNumber, moving
// their hashes into the recently-outdated ring and releasing their
// session topology reference (spec.md §4.10, §8 scenario 6).
func (s *State) FinalizeBlock(finalizedNumber BlockNumber) {
	var numbers []BlockNumber
	for n := range s.BlocksByNumber {
		if n <= finalizedNumber {
			numbers = append(numbers, n)
		}
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	for _, n := range numbers {
		for _, hash := range s.BlocksByNumber[n] {
			entry, ok := s.Blocks[hash]
			if !ok {
				continue
			}
			s.Outdated.add(hash, n)
			s.Topologies.Release(entry.Session)
			delete(s.Blocks, hash)
			delete(s.Pending, hash)
		}
		delete(s.BlocksByNumber, n)
	}
}

// minMaxUnfinalized returns the smallest and largest block numbers among
// currently tracked blocks, and whether any block exists at all.
func (s *State) minMaxUnfinalized() (min, max BlockNumber, ok bool) {
	first := true
	for n := range s.BlocksByNumber {
		if first || n < min {
			min = n
		}
		if first || n > max {
			max = n
		}
		first = false
	}
	return min, max, !first
}

// AddPeer creates a PeerEntry for a newly connected peer (spec.md §4.10).
func (s *State) AddPeer(peer PeerID, version ProtocolVersion) {
	s.Peers[peer] = &PeerEntry{View: NewView(), ProtocolVersion: version}
}

// RemovePeer drops a peer's PeerEntry and removes it from every block's
// known_by map and from every session topology's peer mapping.
func (s *State) RemovePeer(peer PeerID) {
	delete(s.Peers, peer)
	for _, block := range s.Blocks {
		block.RemovePeer(peer)
	}
	for _, t := range s.Topologies.bySession {
		t.RemovePeer(peer)
	}
}

// SetPeerView updates a peer's announced view and evicts it from every
// block whose number is now <= its new finalized number (spec.md §4.10).
func (s *State) SetPeerView(peer PeerID, view View) {
	entry, ok := s.Peers[peer]
	if !ok {
		return
	}
	entry.View = view
	for hash, block := range s.Blocks {
		if block.Number <= view.Finalized {
			block.RemovePeer(peer)
			_ = hash
		}
	}
}

// ourViewHeads is used by OurViewChange handling to create/prune pending
// buckets (spec.md §3, §4.10).
func (s *State) ourViewHeads(heads map[Hash]struct{}) {
	for hash := range heads {
		if _, known := s.Blocks[hash]; known {
			continue
		}
		if _, exists := s.Pending[hash]; !exists {
			s.Pending[hash] = nil
		}
	}
	for hash := range s.Pending {
		if _, stillOurs := heads[hash]; !stillOurs {
			delete(s.Pending, hash)
		}
	}
}

// stashPending returns true and stashes msg if hash currently has a pending
// bucket (meaning NewBlocks for it has not arrived yet).
func (s *State) stashPending(hash Hash, msg pendingMessage) bool {
	if _, isPending := s.Pending[hash]; !isPending {
		return false
	}
	s.Pending[hash] = append(s.Pending[hash], msg)
	return true
}

// drainPending removes and returns the pending bucket for hash, if any.
func (s *State) drainPending(hash Hash) []pendingMessage {
	msgs := s.Pending[hash]
	delete(s.Pending, hash)
	return msgs
}

// Diagnostics returns point-in-time state useful for logging/monitoring;
// this is the supplemented feature from SPEC_FULL.md §D.2 surfacing the
// approval-checking lag since there is no external metrics sink to carry it
// instead.
type Diagnostics struct {
	UnfinalizedBlocks   int
	ConnectedPeers      int
	ApprovalCheckingLag uint32
}

// Diagnostics reports a snapshot of aggregate state.
func (s *State) Diagnostics() Diagnostics {
	return Diagnostics{
		UnfinalizedBlocks:   len(s.Blocks),
		ConnectedPeers:      len(s.Peers),
		ApprovalCheckingLag: s.ApprovalCheckingLag,
	}
}
