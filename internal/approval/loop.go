package approval

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// NetworkEvent is one of the network-bridge-originated events of spec.md §6.
type NetworkEvent struct {
	PeerConnected       *PeerConnectedEvent
	PeerDisconnected    *PeerDisconnectedEvent
	NewGossipTopology   *NewGossipTopologyEvent
	PeerViewChange      *PeerViewChangeEvent
	OurViewChange       *OurViewChangeEvent
	PeerMessage         *PeerMessageEvent
	UpdatedAuthorityIds *UpdatedAuthorityIdsEvent
}

type PeerConnectedEvent struct {
	Peer    PeerID
	Version ProtocolVersion
}

type PeerDisconnectedEvent struct {
	Peer PeerID
}

type NewGossipTopologyEvent struct {
	Session    SessionIndex
	Topology   *SessionGridTopology
	LocalIndex ValidatorIndex
}

type PeerViewChangeEvent struct {
	Peer PeerID
	View View
}

type OurViewChangeEvent struct {
	View View
}

type PeerMessageEvent struct {
	Peer        PeerID
	Version     ProtocolVersion
	Assignments []AssignmentMessage
	Approvals   []ApprovalVote
}

// UpdatedAuthorityIdsEvent carries a peer's refreshed authority-id mapping;
// handled as its own dispatch case (SPEC_FULL.md §D.3) since routing
// decisions depend on knowing which validator a peer speaks for and a
// pending-topology entry may now resolve for it.
type UpdatedAuthorityIdsEvent struct {
	Peer      PeerID
	Validator ValidatorIndex
}

// ControlEvent is one of the orchestrator-originated control messages of
// spec.md §6.
type ControlEvent struct {
	NewBlocks                []BlockDescriptor
	BlockFinalized           *BlockFinalizedEvent
	DistributeAssignment     *AssignmentMessage
	DistributeApproval       *ApprovalVote
	GetApprovalSignatures    *GetApprovalSignaturesEvent
	ApprovalCheckingLagUpdate *uint32
	NetworkBridgeUpdate      *NetworkEvent
	Conclude                 bool
}

// BlockFinalizedEvent carries only the finalized block number; spec.md §6
// also names a hash on BlockFinalized(hash, number), but eviction
// (State.FinalizeBlock) operates purely on number, so the hash carries no
// information this dispatch path needs.
type BlockFinalizedEvent struct {
	Number BlockNumber
}

// ApprovalSignature is one validator's signature over the given candidates
// on the given block, the unit GetApprovalSignatures gathers.
type ApprovalSignature struct {
	BlockHash  Hash
	Candidates []CandidateIndex
	Signature  []byte
}

// GetApprovalSignaturesEvent is a synchronous query: Candidates names the
// (block, candidate) pairs of interest and Reply receives the per-validator
// signatures found, per spec.md §4.10 and §6.
type GetApprovalSignaturesEvent struct {
	Candidates []MessageSubject
	Reply      chan map[ValidatorIndex]ApprovalSignature
}

// Loop is the cooperative single-threaded event loop described in spec.md
// §5: one task owns State exclusively, driven by a control-event channel and
// a periodic reputation-flush timer, both run under one errgroup.Group so
// either stopping ends the other.
type Loop struct {
	state   *State
	events  chan ControlEvent
	flushEvery time.Duration
}

// NewLoop constructs a Loop around state. flushEvery is the
// REPUTATION_CHANGE_INTERVAL of spec.md §5; callers should pass 30 *
// time.Second absent a more specific configuration.
func NewLoop(state *State, flushEvery time.Duration) *Loop {
	return &Loop{
		state:      state,
		events:     make(chan ControlEvent, 256),
		flushEvery: flushEvery,
	}
}

// Submit enqueues ev for processing by Run. It blocks if the loop's inbox is
// full, providing natural backpressure.
func (l *Loop) Submit(ev ControlEvent) {
	l.events <- ev
}

// Run drives the loop until ctx is cancelled or a Conclude event arrives.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return l.dispatchLoop(gCtx, cancel) })
	g.Go(func() error { return l.reputationFlushLoop(gCtx) })

	return g.Wait()
}

func (l *Loop) dispatchLoop(ctx context.Context, stop context.CancelFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			if ev.Conclude {
				l.state.Reputation.Flush(l.state.Network.ReportPeer)
				stop()
				return nil
			}
			l.dispatch(ev)
		}
	}
}

func (l *Loop) reputationFlushLoop(ctx context.Context) error {
	if l.flushEvery <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(l.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.state.Reputation.Flush(l.state.Network.ReportPeer)
		}
	}
}

func (l *Loop) dispatch(ev ControlEvent) {
	s := l.state

	switch {
	case ev.NewBlocks != nil:
		var touched []Hash
		for _, d := range ev.NewBlocks {
			s.AddBlock(d)
			touched = append(touched, d.Hash)
		}
		for peer, pe := range s.Peers {
			s.UnifyWithPeer(peer, pe.View, false)
		}
		for _, hash := range touched {
			for _, pm := range s.drainPending(hash) {
				l.ingestPending(pm)
			}
		}
		s.EnableAggression(true)

	case ev.BlockFinalized != nil:
		s.FinalizeBlock(ev.BlockFinalized.Number)
		s.EnableAggression(false)

	case ev.DistributeAssignment != nil:
		s.ImportAndCirculateAssignment(LocalSource(), *ev.DistributeAssignment)

	case ev.DistributeApproval != nil:
		s.ImportAndCirculateApproval(LocalSource(), *ev.DistributeApproval)

	case ev.GetApprovalSignatures != nil:
		out := make(map[ValidatorIndex]ApprovalSignature)
		for _, subject := range ev.GetApprovalSignatures.Candidates {
			block, ok := s.Blocks[subject.BlockHash]
			if !ok {
				continue
			}
			for _, idx := range candidateIndicesFromKey(subject.Candidates) {
				for _, vote := range block.ApprovalVotes(idx) {
					if vote.Validator != subject.Validator {
						continue
					}
					out[vote.Validator] = ApprovalSignature{
						BlockHash:  subject.BlockHash,
						Candidates: vote.Candidates.Indices(),
						Signature:  vote.Signature,
					}
				}
			}
		}
		ev.GetApprovalSignatures.Reply <- out

	case ev.ApprovalCheckingLagUpdate != nil:
		s.ApprovalCheckingLag = *ev.ApprovalCheckingLagUpdate

	case ev.NetworkBridgeUpdate != nil:
		l.dispatchNetwork(*ev.NetworkBridgeUpdate)
	}
}

func (l *Loop) dispatchNetwork(ev NetworkEvent) {
	s := l.state

	switch {
	case ev.PeerConnected != nil:
		s.AddPeer(ev.PeerConnected.Peer, ev.PeerConnected.Version)

	case ev.PeerDisconnected != nil:
		s.RemovePeer(ev.PeerDisconnected.Peer)

	case ev.NewGossipTopology != nil:
		topology := ev.NewGossipTopology.Topology
		session := ev.NewGossipTopology.Session
		s.Topologies.Insert(topology)

		touchedSession := false
		for _, block := range s.Blocks {
			if block.Session != session {
				continue
			}
			touchedSession = true
			s.Topologies.Acquire(session)
			for _, entry := range block.Entries {
				if entry.Routing.RequiredRouting != RoutingPendingTopology {
					continue
				}
				entry.updateRequiredRouting(topology.RequiredRoutingFor(entry.Validator, entry.Routing.Local))
			}
		}
		if touchedSession {
			for peer, pe := range s.Peers {
				s.UnifyWithPeer(peer, pe.View, false)
			}
		}

	case ev.PeerViewChange != nil:
		s.SetPeerView(ev.PeerViewChange.Peer, ev.PeerViewChange.View)
		s.UnifyWithPeer(ev.PeerViewChange.Peer, ev.PeerViewChange.View, false)

	case ev.OurViewChange != nil:
		s.ourViewHeads(ev.OurViewChange.View.Heads)

	case ev.PeerMessage != nil:
		l.dispatchPeerMessage(*ev.PeerMessage)

	case ev.UpdatedAuthorityIds != nil:
		if pe, ok := s.Peers[ev.UpdatedAuthorityIds.Peer]; ok {
			s.UnifyWithPeer(ev.UpdatedAuthorityIds.Peer, pe.View, true)
		}
	}
}

// dispatchPeerMessage sanitizes each assignment/approval in turn and either
// ingests it or, if its block hash currently has a pending bucket, stashes
// it for later (spec.md §4.10).
func (l *Loop) dispatchPeerMessage(ev PeerMessageEvent) {
	s := l.state

	for _, msg := range ev.Assignments {
		hash := msg.Cert.BlockHash
		if s.stashPending(hash, pendingMessage{peer: ev.Peer, assignment: &msg}) {
			continue
		}
		s.SanitizeAndImportAssignment(ev.Peer, ev.Version, msg)
	}
	for _, vote := range ev.Approvals {
		hash := vote.BlockHash
		if s.stashPending(hash, pendingMessage{peer: ev.Peer, approval: &vote}) {
			continue
		}
		s.SanitizeAndImportApproval(ev.Peer, ev.Version, vote)
	}
}

func (l *Loop) ingestPending(pm pendingMessage) {
	s := l.state
	switch {
	case pm.assignment != nil:
		s.SanitizeAndImportAssignment(pm.peer, l.versionOf(pm.peer), *pm.assignment)
	case pm.approval != nil:
		s.SanitizeAndImportApproval(pm.peer, l.versionOf(pm.peer), *pm.approval)
	}
}

func (l *Loop) versionOf(peer PeerID) ProtocolVersion {
	if pe, ok := l.state.Peers[peer]; ok {
		return pe.ProtocolVersion
	}
	return ProtocolV2
}

// candidateIndicesFromKey recovers the set of candidate indices a
// MessageSubject.Candidates key addresses, for GetApprovalSignatures
// lookups that only carry the encoded key.
func candidateIndicesFromKey(key string) []CandidateIndex {
	return CandidateBitfieldFromBytes([]byte(key)).Indices()
}
