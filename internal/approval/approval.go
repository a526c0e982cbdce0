package approval

// ImportAndCirculateApproval ingests an approval vote from the given
// source and, once accepted, distributes it, piggybacking on the random
// routing already chosen for the matching assignment(s). This is the core
// of spec.md §4.6.
func (s *State) ImportAndCirculateApproval(source Source, vote ApprovalVote) {
	block, ok := s.Blocks[vote.BlockHash]
	if !ok || !block.ContainsCandidates(vote.Candidates) {
		if !source.IsLocal && !s.Outdated.contains(vote.BlockHash) {
			s.punish(source.Peer, CostUnexpectedMessage, ErrUnexpectedMessage)
		}
		return
	}

	approvalSubject := subjectFor(vote.BlockHash, vote.Candidates, vote.Validator)

	if !source.IsLocal {
		peer := source.Peer
		for _, idx := range vote.Candidates.Indices() {
			assignmentSubject := subjectFor(vote.BlockHash, singleCandidateBitfield(idx), vote.Validator)
			if !block.Knowledge.Contains(assignmentSubject, KindAssignment) {
				s.punish(peer, CostUnexpectedMessage, ErrUnexpectedMessage)
				return
			}
		}

		pk, hasEntry := block.Peers[peer]
		if hasEntry && pk.Contains(approvalSubject, KindApproval) {
			if !pk.Received.Contains(approvalSubject, KindApproval) {
				pk.Insert(DirReceived, approvalSubject, KindApproval, vote.Candidates)
				return
			}
			s.punish(peer, CostDuplicateMessage, ErrDuplicateMessage)
			s.Metrics.recordDuplicate()
			return
		}
		if !hasEntry {
			pk = block.PeerKnowledgeFor(peer)
		}

		if block.Knowledge.Contains(approvalSubject, KindApproval) {
			s.reward(peer, BenefitValidMessage)
			pk.Insert(DirReceived, approvalSubject, KindApproval, vote.Candidates)
			return
		}

		switch s.ApprovalVoting.CheckAndImportApproval(vote) {
		case ApprovalAccepted:
			s.reward(peer, BenefitValidMessageFirst)
			block.Knowledge.Insert(approvalSubject, KindApproval, vote.Candidates)
			pk.Insert(DirReceived, approvalSubject, KindApproval, vote.Candidates)
		case ApprovalBad:
			s.punish(peer, CostInvalidMessage, ErrInvalidMessage)
			return
		}
	} else {
		if !block.Knowledge.Insert(approvalSubject, KindApproval, vote.Candidates) {
			s.Logger.Debug("local approval already known, not resending", "block", vote.BlockHash)
			return
		}
	}

	required, randomlyRouted, err := block.NoteApproval(vote)
	if err != nil {
		if IsInvariantViolation(err) {
			s.Metrics.recordInvariantViolation()
			s.Logger.Warn("invariant violation noting approval", "error", err, "block", vote.BlockHash)
		} else {
			s.Logger.Warn("could not note approval", "error", err, "block", vote.BlockHash)
		}
		return
	}

	s.Metrics.recordApprovalImported()
	s.distributeApproval(block, block.Session, required, randomlyRouted, approvalSubject, vote, source)
}

// distributeApproval builds the recipient set for an accepted approval and
// batch-sends it, per spec.md §4.6 step 5: the recipient set is the union
// of grid-routed peers and the peers the matching assignment(s) already
// randomly routed to, so the approval reaches the same audience.
func (s *State) distributeApproval(block *BlockEntry, session SessionIndex, required RequiredRouting, randomlyRouted map[PeerID]struct{}, subject MessageSubject, vote ApprovalVote, source Source) {
	topology := s.Topologies.Get(session)
	perPeerBatches := make(map[PeerID][]ApprovalVote)

	for peer := range block.Peers {
		if !source.IsLocal && peer == source.Peer {
			continue
		}
		pk := block.PeerKnowledgeFor(peer)
		if pk.Sent.Contains(subject, KindApproval) {
			continue
		}

		_, random := randomlyRouted[peer]
		routed := random
		if !routed && topology != nil {
			routed = topology.RouteToPeer(required, peer)
		}
		if !routed {
			continue
		}

		pk.Insert(DirSent, subject, KindApproval, vote.Candidates)
		perPeerBatches[peer] = append(perPeerBatches[peer], vote)
	}

	for peer, batch := range perPeerBatches {
		version := ProtocolV2
		if pe, ok := s.Peers[peer]; ok {
			version = pe.ProtocolVersion
		}
		s.Network.SendApprovals(peer, version, batch)
	}
}
