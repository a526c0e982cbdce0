package approval

// entryKey identifies an ApprovalEntry within a block: the validator plus
// the exact claimed-candidate bitfield it was assigned under (a validator
// may hold several ApprovalEntries for one block if it was assigned
// multiple times with different claimed bitfields).
type entryKey struct {
	Validator ValidatorIndex
	Claimed   string
}

// BlockEntry holds everything approval-distribution tracks for one
// unfinalized block.
type BlockEntry struct {
	Hash    Hash
	Number  BlockNumber
	Parent  Hash
	Session SessionIndex

	Candidates []*CandidateEntry // index = CandidateIndex
	Knowledge  *Knowledge
	Peers      map[PeerID]*PeerKnowledge
	Entries    map[entryKey]*ApprovalEntry
}

// NewBlockEntry constructs an empty BlockEntry for a block with the given
// number of candidates.
func NewBlockEntry(hash Hash, number BlockNumber, parent Hash, session SessionIndex, numCandidates int) *BlockEntry {
	candidates := make([]*CandidateEntry, numCandidates)
	for i := range candidates {
		candidates[i] = newCandidateEntry()
	}
	return &BlockEntry{
		Hash:       hash,
		Number:     number,
		Parent:     parent,
		Session:    session,
		Candidates: candidates,
		Knowledge:  NewKnowledge(),
		Peers:      make(map[PeerID]*PeerKnowledge),
		Entries:    make(map[entryKey]*ApprovalEntry),
	}
}

// ContainsCandidates reports whether every bit of bitfield addresses a
// valid candidate index for this block.
func (b *BlockEntry) ContainsCandidates(bitfield CandidateBitfield) bool {
	for _, idx := range bitfield.Indices() {
		if int(idx) >= len(b.Candidates) {
			return false
		}
	}
	return true
}

// InsertApprovalEntry records entry and, for every candidate it claims,
// updates that CandidateEntry so a later per-candidate approval can locate
// it.
func (b *BlockEntry) InsertApprovalEntry(entry *ApprovalEntry) {
	key := entryKey{Validator: entry.Validator, Claimed: entry.Claimed.Key()}
	b.Entries[key] = entry
	for _, idx := range entry.Claimed.Indices() {
		if int(idx) < len(b.Candidates) {
			b.Candidates[idx].record(entry.Validator, entry.Claimed)
		}
	}
}

// NoteApproval applies vote against every ApprovalEntry it resolves to via
// the candidate index -> claimed-bitfield-key lookup, per spec.md §4.3.
func (b *BlockEntry) NoteApproval(vote ApprovalVote) (RequiredRouting, map[PeerID]struct{}, error) {
	if !b.ContainsCandidates(vote.Candidates) {
		return RoutingNone, nil, ErrCandidateIndexOutOfBounds
	}

	seen := make(map[entryKey]struct{})
	var matched []*ApprovalEntry
	for _, idx := range vote.Candidates.Indices() {
		if int(idx) >= len(b.Candidates) {
			continue
		}
		claimedKey, ok := b.Candidates[idx].claimedKeyFor(vote.Validator)
		if !ok {
			continue
		}
		key := entryKey{Validator: vote.Validator, Claimed: claimedKey}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if entry, ok := b.Entries[key]; ok {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return RoutingNone, nil, ErrUnknownAssignment
	}

	required := matched[0].Routing.RequiredRouting
	randomlyRouted := make(map[PeerID]struct{})
	for _, entry := range matched {
		if entry.Routing.RequiredRouting != required {
			return RoutingNone, nil, ErrAssignmentsFollowedDifferentPaths
		}
		if err := entry.noteApproval(vote); err != nil {
			return RoutingNone, nil, err
		}
		for p := range entry.Routing.PeersRandomlyRouted {
			randomlyRouted[p] = struct{}{}
		}
	}
	return required, randomlyRouted, nil
}

// ApprovalVotes returns the union of approval votes across every
// ApprovalEntry whose claimed bitfield includes candidateIndex and which
// holds a stored approval whose bitfield also includes it.
func (b *BlockEntry) ApprovalVotes(candidateIndex CandidateIndex) []ApprovalVote {
	var out []ApprovalVote
	if int(candidateIndex) >= len(b.Candidates) {
		return out
	}
	for _, entry := range b.Entries {
		if !entry.Claimed.IsSet(candidateIndex) {
			continue
		}
		for _, vote := range entry.Approvals {
			if vote.Candidates.IsSet(candidateIndex) {
				out = append(out, vote)
			}
		}
	}
	return out
}

// PeerKnowledgeFor returns the PeerKnowledge for peer, creating it if
// absent.
func (b *BlockEntry) PeerKnowledgeFor(peer PeerID) *PeerKnowledge {
	pk, ok := b.Peers[peer]
	if !ok {
		pk = NewPeerKnowledge()
		b.Peers[peer] = pk
	}
	return pk
}

// RemovePeer drops all knowledge of peer from this block, used on
// PeerDisconnected and on view changes that move the peer's finalized
// number past this block.
func (b *BlockEntry) RemovePeer(peer PeerID) {
	delete(b.Peers, peer)
}
