package approval

// Knowledge is a fingerprint set recording, per block, which (block,
// candidate-set, validator) assignment messages are known, and which are
// known with approval. Insertions only ever raise the stored level along
// the lattice absent < Assignment < Approval.
type Knowledge struct {
	known map[MessageSubject]MessageKind
}

// NewKnowledge returns an empty ledger.
func NewKnowledge() *Knowledge {
	return &Knowledge{known: make(map[MessageSubject]MessageKind)}
}

// Contains reports whether the ledger satisfies a query for (subject, kind).
// An Approval-kind query requires the stored level be exactly Approval; an
// Assignment-kind query is satisfied by either stored level.
func (k *Knowledge) Contains(subject MessageSubject, kind MessageKind) bool {
	have, ok := k.known[subject]
	if !ok {
		return false
	}
	return have.satisfies(kind)
}

// Insert raises the stored level for subject to at least kind. It returns
// true if this insertion actually raised the level (i.e. it was not already
// known at kind or higher).
//
// When kind is Assignment and the subject's candidate bitfield claims more
// than one candidate, per-single-candidate shadow subjects are also
// inserted (at Assignment level, never overwriting an existing Approval on
// the shadow key) so that a later per-candidate approval can find assignment
// knowledge through its own single-candidate key.
func (k *Knowledge) Insert(subject MessageSubject, kind MessageKind, candidates CandidateBitfield) bool {
	raised := k.insertOne(subject, kind)
	if kind == KindAssignment && len(candidates.Indices()) > 1 {
		for _, idx := range candidates.Indices() {
			shadow := subjectFor(subject.BlockHash, singleCandidateBitfield(idx), subject.Validator)
			k.insertOne(shadow, KindAssignment)
		}
	}
	return raised
}

func (k *Knowledge) insertOne(subject MessageSubject, kind MessageKind) bool {
	have, ok := k.known[subject]
	if !ok {
		k.known[subject] = kind
		return true
	}
	if have.less(kind) {
		k.known[subject] = kind
		return true
	}
	return false
}

// PeerKnowledge tracks, per peer and per block, two directed Knowledge
// ledgers: what we have sent the peer, and what the peer has sent us.
type PeerKnowledge struct {
	Sent     *Knowledge
	Received *Knowledge
}

// NewPeerKnowledge returns an empty directed pair.
func NewPeerKnowledge() *PeerKnowledge {
	return &PeerKnowledge{Sent: NewKnowledge(), Received: NewKnowledge()}
}

// Contains reports whether either side — sent or received — satisfies the
// query. A peer "knows" a message if we sent it to them or they sent it
// to us.
func (pk *PeerKnowledge) Contains(subject MessageSubject, kind MessageKind) bool {
	return pk.Sent.Contains(subject, kind) || pk.Received.Contains(subject, kind)
}

// Direction selects which side of a PeerKnowledge an insertion targets.
type Direction int

const (
	DirSent Direction = iota
	DirReceived
)

// Insert raises the given directed ledger for subject to at least kind,
// honoring the multi-candidate shadow-key invariant.
func (pk *PeerKnowledge) Insert(dir Direction, subject MessageSubject, kind MessageKind, candidates CandidateBitfield) bool {
	if dir == DirSent {
		return pk.Sent.Insert(subject, kind, candidates)
	}
	return pk.Received.Insert(subject, kind, candidates)
}

// ClearSent discards everything we believe we have sent for this peer,
// forcing re-send on the next propagation pass. Used by the aggression
// resend pass (spec.md §4.8). Received knowledge is untouched.
func (pk *PeerKnowledge) ClearSent() {
	pk.Sent = NewKnowledge()
}
