package approval

// ImportAndCirculateAssignment ingests an assignment certificate from the
// given source and, once accepted, distributes it to the appropriate peers.
// This is the core of spec.md §4.5.
func (s *State) ImportAndCirculateAssignment(source Source, msg AssignmentMessage) {
	cert := msg.Cert
	block, ok := s.Blocks[cert.BlockHash]
	if !ok {
		if !source.IsLocal && !s.Outdated.contains(cert.BlockHash) {
			s.punish(source.Peer, CostUnexpectedMessage, ErrUnexpectedMessage)
		}
		return
	}

	subject := subjectFor(cert.BlockHash, msg.Claimed, cert.Validator)

	if !source.IsLocal {
		peer := source.Peer
		pk, hasEntry := block.Peers[peer]
		if hasEntry && pk.Contains(subject, KindAssignment) {
			if !pk.Received.Contains(subject, KindAssignment) {
				// Benign race: we had already sent this to the peer and
				// they sent it to us before receiving ours.
				pk.Insert(DirReceived, subject, KindAssignment, msg.Claimed)
				return
			}
			s.punish(peer, CostDuplicateMessage, ErrDuplicateMessage)
			s.Metrics.recordDuplicate()
			return
		}
		if !hasEntry {
			s.punish(peer, CostUnexpectedMessage, ErrUnexpectedMessage)
			pk = block.PeerKnowledgeFor(peer)
		}

		if block.Knowledge.Contains(subject, KindAssignment) {
			s.reward(peer, BenefitValidMessage)
			pk.Insert(DirReceived, subject, KindAssignment, msg.Claimed)
			return
		}

		switch s.ApprovalVoting.CheckAndImportAssignment(cert, msg.Claimed) {
		case AssignmentAccepted:
			s.reward(peer, BenefitValidMessageFirst)
			block.Knowledge.Insert(subject, KindAssignment, msg.Claimed)
			pk.Insert(DirReceived, subject, KindAssignment, msg.Claimed)
		case AssignmentAcceptedDuplicate:
			pk.Insert(DirReceived, subject, KindAssignment, msg.Claimed)
			return
		case AssignmentTooFarInFuture:
			s.punish(peer, CostAssignmentTooFarInTheFuture, ErrAssignmentTooFarInTheFuture)
			return
		case AssignmentBad:
			s.punish(peer, CostInvalidMessage, ErrInvalidMessage)
			return
		}
	} else {
		if !block.Knowledge.Insert(subject, KindAssignment, msg.Claimed) {
			s.Logger.Debug("local assignment already known, not resending", "block", cert.BlockHash)
			return
		}
	}

	s.Metrics.recordAssignmentImported()

	topology := s.Topologies.Get(block.Session)
	var required RequiredRouting
	if topology == nil {
		required = RoutingPendingTopology
	} else {
		required = topology.RequiredRoutingFor(cert.Validator, source.IsLocal)
	}

	entry := newApprovalEntry(cert, msg.Claimed, cert.Validator, required, source.IsLocal, s.totalPeers())
	block.InsertApprovalEntry(entry)

	s.distributeAssignment(block, topology, entry, subject, msg, source)
}

// distributeAssignment builds the recipient set for an accepted assignment
// and batch-sends it, per spec.md §4.5 steps 5-6.
func (s *State) distributeAssignment(block *BlockEntry, topology *SessionGridTopology, entry *ApprovalEntry, subject MessageSubject, msg AssignmentMessage, source Source) {
	perPeerBatches := make(map[PeerID][]AssignmentMessage)

	remaining := 0
	for peer := range block.Peers {
		if !source.IsLocal && peer == source.Peer {
			continue
		}
		remaining++
	}

	for peer := range block.Peers {
		if !source.IsLocal && peer == source.Peer {
			continue
		}
		pk := block.PeerKnowledgeFor(peer)
		if pk.Sent.Contains(subject, KindAssignment) {
			continue
		}

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

		pk.Insert(DirSent, subject, KindAssignment, msg.Claimed)
		perPeerBatches[peer] = append(perPeerBatches[peer], msg)
	}

	for peer, batch := range perPeerBatches {
		version := ProtocolV2
		if pe, ok := s.Peers[peer]; ok {
			version = pe.ProtocolVersion
		}
		s.Network.SendAssignments(peer, version, batch)
	}
}

func (s *State) punish(peer PeerID, delta ReputationDelta, err error) {
	s.Reputation.Report(peer, delta)
	s.Metrics.recordProtocolViolation()
	s.Logger.Warn("peer punished", "peer", peer, "reason", err)
}

func (s *State) reward(peer PeerID, delta ReputationDelta) {
	s.Reputation.Report(peer, delta)
}
