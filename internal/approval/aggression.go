package approval

// aggressionBatches accumulates assignments and approvals to push per peer
// across every block touched by one aggression run, flushed once at the
// end (spec.md §4.8: "batches are accumulated per peer and flushed at the
// end").
type aggressionBatches struct {
	blocks      map[Hash]struct{}
	assignments map[PeerID][]AssignmentMessage
	approvals   map[PeerID][]ApprovalVote
}

func newAggressionBatches() *aggressionBatches {
	return &aggressionBatches{
		blocks:      make(map[Hash]struct{}),
		assignments: make(map[PeerID][]AssignmentMessage),
		approvals:   make(map[PeerID][]ApprovalVote),
	}
}

func (b *aggressionBatches) markBlock(hash Hash) { b.blocks[hash] = struct{}{} }

// shouldTriggerAggression is spec.md §4.8's overall gate: "if neither
// threshold nor resend-period condition is met, do nothing". When an
// L1 threshold is configured, aggression is live once age reaches it;
// otherwise it falls back to firing only on resend-period boundaries, and
// with neither configured it never fires.
func shouldTriggerAggression(age, l1Threshold, resendPeriod uint32) bool {
	switch {
	case l1Threshold > 0:
		return age >= l1Threshold
	case resendPeriod > 0:
		return age > 0 && age%resendPeriod == 0
	default:
		return false
	}
}

// EnableAggression runs the two-level aggression escalation of spec.md
// §4.8. resend selects whether the resend pass runs (true after NewBlocks,
// false after BlockFinalized).
func (s *State) EnableAggression(resend bool) {
	min, max, ok := s.minMaxUnfinalized()
	if !ok {
		return
	}
	age := uint32(max - min)
	if !shouldTriggerAggression(age, s.Aggression.L1Threshold, s.Aggression.ResendUnfinalizedPeriod) {
		return
	}

	batches := newAggressionBatches()

	if resend {
		s.aggressionResendPass(min, batches)
	}
	s.aggressionEscalationPass(min, age, batches)
	s.adjustRequiredRoutingAndPropagate(batches)
}

// aggressionResendPass clears sent-knowledge for every block whose distance
// from the oldest unfinalized block is a positive multiple of
// ResendUnfinalizedPeriod, forcing re-send on the next propagation pass.
// Required routing itself is untouched.
func (s *State) aggressionResendPass(min BlockNumber, batches *aggressionBatches) {
	period := s.Aggression.ResendUnfinalizedPeriod
	if period == 0 {
		return
	}
	for hash, block := range s.Blocks {
		distance := uint32(block.Number - min)
		if distance > 0 && distance%period == 0 {
			for _, pk := range block.Peers {
				pk.ClearSent()
			}
			batches.markBlock(hash)
		}
	}
}

// aggressionEscalationPass raises required routing for the single block at
// the oldest unfinalized number, the likely finality bottleneck. spec.md
// §4.8 speaks of "the single block equal to min_age", so only the first
// hash at that height is escalated; if a fork produced more than one block
// at min_age, the others wait for the next run to catch up.
func (s *State) aggressionEscalationPass(min BlockNumber, age uint32, batches *aggressionBatches) {
	var hash Hash
	var block *BlockEntry
	for h, n := range s.BlocksByNumber {
		if h != min || len(n) == 0 {
			continue
		}
		hash = n[0]
		block = s.Blocks[hash]
		break
	}
	if block == nil {
		return
	}

	for _, entry := range block.Entries {
		switch {
		case entry.Routing.RequiredRouting == RoutingPendingTopology:
			continue
		case age >= s.Aggression.L1Threshold && entry.Routing.Local:
			entry.updateRequiredRouting(RoutingAll)
			s.Metrics.recordAggressionL1()
			batches.markBlock(hash)
		case age >= s.Aggression.L2Threshold && !entry.Routing.Local:
			entry.updateRequiredRouting(RoutingGridXY)
			s.Metrics.recordAggressionL2()
			batches.markBlock(hash)
		}
	}
}

// adjustRequiredRoutingAndPropagate pushes any assignment or approval to
// every peer now in-topology for an ApprovalEntry's (possibly just raised)
// required routing, for every block marked by the passes above, so long as
// the peer's sent-knowledge does not already show the message.
func (s *State) adjustRequiredRoutingAndPropagate(batches *aggressionBatches) {
	for hash := range batches.blocks {
		block, ok := s.Blocks[hash]
		if !ok {
			continue
		}
		topology := s.Topologies.Get(block.Session)
		if topology == nil {
			continue
		}

		for _, entry := range block.Entries {
			assignmentSubject := subjectFor(hash, entry.Claimed, entry.Validator)
			for peer := range block.Peers {
				if !topology.RouteToPeer(entry.Routing.RequiredRouting, peer) {
					continue
				}
				pk := block.PeerKnowledgeFor(peer)
				if !pk.Sent.Contains(assignmentSubject, KindAssignment) {
					pk.Insert(DirSent, assignmentSubject, KindAssignment, entry.Claimed)
					batches.assignments[peer] = append(batches.assignments[peer], AssignmentMessage{Cert: entry.Cert, Claimed: entry.Claimed})
				}
				for _, vote := range entry.Approvals {
					approvalSubject := subjectFor(hash, vote.Candidates, vote.Validator)
					if !pk.Sent.Contains(approvalSubject, KindApproval) {
						pk.Insert(DirSent, approvalSubject, KindApproval, vote.Candidates)
						batches.approvals[peer] = append(batches.approvals[peer], vote)
					}
				}
			}
		}
	}

	for peer, batch := range batches.assignments {
		version := ProtocolV2
		if pe, ok := s.Peers[peer]; ok {
			version = pe.ProtocolVersion
		}
		s.Network.SendAssignments(peer, version, batch)
	}
	for peer, batch := range batches.approvals {
		version := ProtocolV2
		if pe, ok := s.Peers[peer]; ok {
			version = pe.ProtocolVersion
		}
		s.Network.SendApprovals(peer, version, batch)
	}
}
