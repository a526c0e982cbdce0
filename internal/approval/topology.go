package approval

import "math"

// SessionGridTopology is the per-session grid arrangement of validators:
// each validator occupies a (row, column) cell; its neighbors are every
// other validator sharing its row or its column. It also holds the
// peer<->validator mapping learned from NewGossipTopology/UpdatedAuthorityIds.
type SessionGridTopology struct {
	Session    SessionIndex
	LocalIndex ValidatorIndex

	row map[ValidatorIndex]int
	col map[ValidatorIndex]int

	peerValidator map[PeerID]ValidatorIndex

	refs int
}

// NewSessionGridTopology lays validators out row-major in a grid whose
// width is ceil(sqrt(len(validators))), the conventional shape for a
// validator grid that keeps both per-peer and aggregate bandwidth
// sublinear in validator count.
func NewSessionGridTopology(session SessionIndex, validators []ValidatorIndex, local ValidatorIndex) *SessionGridTopology {
	width := int(math.Ceil(math.Sqrt(float64(len(validators)))))
	if width < 1 {
		width = 1
	}
	t := &SessionGridTopology{
		Session:       session,
		LocalIndex:    local,
		row:           make(map[ValidatorIndex]int),
		col:           make(map[ValidatorIndex]int),
		peerValidator: make(map[PeerID]ValidatorIndex),
	}
	for i, v := range validators {
		t.row[v] = i / width
		t.col[v] = i % width
	}
	return t
}

// SetPeerValidator records which validator authority a peer speaks for.
func (t *SessionGridTopology) SetPeerValidator(peer PeerID, validator ValidatorIndex) {
	t.peerValidator[peer] = validator
}

// RemovePeer forgets a peer's validator mapping, e.g. on disconnect.
func (t *SessionGridTopology) RemovePeer(peer PeerID) {
	delete(t.peerValidator, peer)
}

func (t *SessionGridTopology) isRowNeighbor(v ValidatorIndex) bool {
	r, ok := t.row[v]
	return ok && r == t.row[t.LocalIndex] && v != t.LocalIndex
}

func (t *SessionGridTopology) isColNeighbor(v ValidatorIndex) bool {
	c, ok := t.col[v]
	return ok && c == t.col[t.LocalIndex] && v != t.LocalIndex
}

// RequiredRoutingFor derives the initial required routing for an
// assignment originated by validator `origin`, per spec.md §4.4: if we
// originated it (local), routing is GridXY — we must push our own message
// along both axes since no one else will relay it on our behalf. Otherwise
// it is GridX if origin is a row neighbor, GridY if a column neighbor, else
// None (we rely solely on random routing and on other grid members).
func (t *SessionGridTopology) RequiredRoutingFor(origin ValidatorIndex, local bool) RequiredRouting {
	if local {
		return RoutingGridXY
	}
	switch {
	case t.isRowNeighbor(origin):
		return RoutingGridX
	case t.isColNeighbor(origin):
		return RoutingGridY
	default:
		return RoutingNone
	}
}

// RouteToPeer reports whether a message with the given required routing
// class must be sent to peer.
func (t *SessionGridTopology) RouteToPeer(required RequiredRouting, peer PeerID) bool {
	validator, known := t.peerValidator[peer]
	switch required {
	case RoutingNone, RoutingPendingTopology:
		return false
	case RoutingAll:
		return true
	case RoutingGridX:
		return known && t.isRowNeighbor(validator)
	case RoutingGridY:
		return known && t.isColNeighbor(validator)
	case RoutingGridXY:
		return known && (t.isRowNeighbor(validator) || t.isColNeighbor(validator))
	default:
		return false
	}
}

// IsGridPeer reports whether peer is recognized as any validator authority
// in this topology at all (used to decide eligibility for random routing:
// only topology-recognized validators are candidates, per spec.md §4.5).
func (t *SessionGridTopology) IsGridPeer(peer PeerID) bool {
	_, known := t.peerValidator[peer]
	return known
}

// SessionGridTopologies is the central, session-keyed registry of grid
// topologies, ref-counted by the number of live BlockEntry objects in that
// session (spec.md §9's "cyclic references" design note): a BlockEntry
// holds only its SessionIndex, never a direct pointer, and release happens
// when the last referencing block is evicted.
type SessionGridTopologies struct {
	bySession map[SessionIndex]*SessionGridTopology
}

// NewSessionGridTopologies returns an empty registry.
func NewSessionGridTopologies() *SessionGridTopologies {
	return &SessionGridTopologies{bySession: make(map[SessionIndex]*SessionGridTopology)}
}

// Insert installs or replaces the topology for a session and resets its
// refcount to zero; callers must Acquire it for each referencing block.
func (s *SessionGridTopologies) Insert(topology *SessionGridTopology) {
	s.bySession[topology.Session] = topology
}

// Get returns the topology for a session, or nil if not yet known
// (RoutingPendingTopology should be used by callers in that case).
func (s *SessionGridTopologies) Get(session SessionIndex) *SessionGridTopology {
	return s.bySession[session]
}

// Acquire increments the refcount for a session's topology, called when a
// BlockEntry in that session is created.
func (s *SessionGridTopologies) Acquire(session SessionIndex) {
	if t, ok := s.bySession[session]; ok {
		t.refs++
	}
}

// Release decrements the refcount for a session's topology, called when a
// BlockEntry in that session is evicted; the topology is dropped from the
// registry once no block references it.
func (s *SessionGridTopologies) Release(session SessionIndex) {
	t, ok := s.bySession[session]
	if !ok {
		return
	}
	t.refs--
	if t.refs <= 0 {
		delete(s.bySession, session)
	}
}
