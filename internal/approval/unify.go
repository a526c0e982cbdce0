package approval

// UnifyWithPeer brings a peer's known-messages set up to date with the
// intersection of its view and ours, per spec.md §4.7. It is triggered on
// PeerConnected+view, PeerViewChange, NewBlocks, UpdatedAuthorityIds, and
// once a pending topology resolves.
//
// retryKnownBlocks forces re-evaluation of blocks this peer already has a
// PeerKnowledge entry for; it is set when the peer's authority-id mapping
// becomes known after the initial connect, since routing decisions depend
// on knowing which validator a peer speaks for.
func (s *State) UnifyWithPeer(peer PeerID, view View, retryKnownBlocks bool) {
	var assignments []AssignmentMessage
	var approvals []ApprovalVote
	visited := make(map[Hash]struct{})

	for head := range view.Heads {
		hash := head
		for {
			block, ok := s.Blocks[hash]
			if !ok {
				break
			}
			if _, done := visited[hash]; !done {
				visited[hash] = struct{}{}
				s.unifyBlock(peer, block, retryKnownBlocks, &assignments, &approvals)
			}
			if block.Number <= view.Finalized {
				break
			}
			if block.Parent == hash {
				break
			}
			hash = block.Parent
		}
	}

	version := ProtocolV2
	if pe, ok := s.Peers[peer]; ok {
		version = pe.ProtocolVersion
	}
	if len(assignments) > 0 {
		s.Network.SendAssignments(peer, version, assignments)
	}
	if len(approvals) > 0 {
		s.Network.SendApprovals(peer, version, approvals)
	}
}

func (s *State) unifyBlock(peer PeerID, block *BlockEntry, retryKnownBlocks bool, assignments *[]AssignmentMessage, approvals *[]ApprovalVote) {
	_, hadEntry := block.Peers[peer]
	if hadEntry && !retryKnownBlocks {
		return
	}
	pk := block.PeerKnowledgeFor(peer)
	topology := s.Topologies.Get(block.Session)

	remaining := len(block.Peers)

	for _, entry := range block.Entries {
		include := false
		if topology != nil && topology.RouteToPeer(entry.Routing.RequiredRouting, peer) {
			include = true
		} else if topology != nil && topology.IsGridPeer(peer) {
			remaining--
			if entry.Routing.Random.sample(remaining, s.rng) {
				entry.Routing.markRandomlySent(peer)
				include = true
			}
		}
		if !include {
			continue
		}

		assignmentSubject := subjectFor(block.Hash, entry.Claimed, entry.Validator)
		if !pk.Sent.Contains(assignmentSubject, KindAssignment) {
			pk.Insert(DirSent, assignmentSubject, KindAssignment, entry.Claimed)
			*assignments = append(*assignments, AssignmentMessage{Cert: entry.Cert, Claimed: entry.Claimed})
		}

		for _, vote := range entry.Approvals {
			approvalSubject := subjectFor(block.Hash, vote.Candidates, vote.Validator)
			if !pk.Sent.Contains(approvalSubject, KindApproval) {
				pk.Insert(DirSent, approvalSubject, KindApproval, vote.Candidates)
				*approvals = append(*approvals, vote)
			}
		}
	}
}
