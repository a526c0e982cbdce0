package approval

import "math/rand"

// RequiredRouting classifies which grid neighbors must receive a message.
type RequiredRouting int

const (
	// RoutingPendingTopology is the sentinel meaning the session's grid
	// topology has not yet arrived; routing cannot be derived.
	RoutingPendingTopology RequiredRouting = iota
	RoutingNone
	RoutingGridX
	RoutingGridY
	RoutingGridXY
	RoutingAll
)

// RandomRouting supplements required routing with a Bernoulli-sampled
// dispersion to non-neighbor peers, covering gaps in the grid. Its state
// lives inside ApprovalEntry so that both fresh-arrival distribution and
// unify-with-peer share one sampling policy (spec.md §9).
type RandomRouting struct {
	sent   uint32
	target uint32
}

// newRandomRouting sets the target to ceil(sqrt(totalPeers)), the
// documented choice for the open question left by spec.md §9 on the exact
// distribution RandomRouting::sample should follow: a long-run rate that
// keeps supplementary fan-out sublinear in validator-set size.
func newRandomRouting(totalPeers int) RandomRouting {
	target := 0
	for target*target < totalPeers {
		target++
	}
	return RandomRouting{target: uint32(target)}
}

// sample draws a Bernoulli outcome with probability max(0, (target-sent) /
// remaining) against the remaining candidate peer count, so that over the
// lifetime of an ApprovalEntry the expected number of randomly-routed peers
// converges to target without ever exceeding the remaining candidate pool.
func (r *RandomRouting) sample(remaining int, rng *rand.Rand) bool {
	if remaining <= 0 || r.sent >= r.target {
		return false
	}
	p := float64(r.target-r.sent) / float64(remaining)
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

func (r *RandomRouting) incSent() { r.sent++ }

// ApprovalRouting is the routing state attached to one ApprovalEntry.
type ApprovalRouting struct {
	RequiredRouting    RequiredRouting
	Local              bool
	Random             RandomRouting
	PeersRandomlyRouted map[PeerID]struct{}
}

func newApprovalRouting(required RequiredRouting, local bool, totalPeers int) ApprovalRouting {
	return ApprovalRouting{
		RequiredRouting:     required,
		Local:               local,
		Random:              newRandomRouting(totalPeers),
		PeersRandomlyRouted: make(map[PeerID]struct{}),
	}
}

// markRandomlySent records that peer was chosen by random routing and
// advances the Bernoulli counter.
func (r *ApprovalRouting) markRandomlySent(peer PeerID) {
	r.PeersRandomlyRouted[peer] = struct{}{}
	r.Random.incSent()
}

// ApprovalEntry is the per-(validator, claimed-candidate-set) record: the
// assignment certificate, its claimed bitfield, every matching approval
// vote, and routing state.
type ApprovalEntry struct {
	Cert      AssignmentCert
	Claimed   CandidateBitfield
	Validator ValidatorIndex
	Approvals map[string]ApprovalVote // keyed by approval bitfield .Key()
	Routing   ApprovalRouting
}

func newApprovalEntry(cert AssignmentCert, claimed CandidateBitfield, validator ValidatorIndex, required RequiredRouting, local bool, totalPeers int) *ApprovalEntry {
	return &ApprovalEntry{
		Cert:      cert,
		Claimed:   claimed,
		Validator: validator,
		Approvals: make(map[string]ApprovalVote),
		Routing:   newApprovalRouting(required, local, totalPeers),
	}
}

// includesApprovalCandidates reports whether any bit of vote's bitfield is
// set in the entry's claimed bitfield.
func (e *ApprovalEntry) includesApprovalCandidates(vote ApprovalVote) bool {
	return e.Claimed.Intersects(vote.Candidates)
}

// noteApproval stores vote against this entry, enforcing the invariants
// from spec.md §4.2.
func (e *ApprovalEntry) noteApproval(vote ApprovalVote) error {
	if vote.Validator != e.Validator {
		return ErrInvalidValidatorIndex
	}
	if !e.includesApprovalCandidates(vote) {
		return ErrInvalidCandidateIndex
	}
	key := vote.Candidates.Key()
	if _, exists := e.Approvals[key]; exists {
		return ErrDuplicateApproval
	}
	e.Approvals[key] = vote
	return nil
}

// updateRequiredRouting replaces the entry's required routing class. Used
// by aggression escalation and by topology arrival resolving a
// RoutingPendingTopology sentinel.
func (e *ApprovalEntry) updateRequiredRouting(r RequiredRouting) {
	e.Routing.RequiredRouting = r
}
