package approval

// ProtocolVersion identifies which wire-protocol version a peer speaks.
type ProtocolVersion int

const (
	ProtocolV1 ProtocolVersion = iota + 1
	ProtocolV2
	ProtocolV3
)

// Source distinguishes a locally originated message from one received from
// a peer.
type Source struct {
	Peer    PeerID
	IsLocal bool
}

// LocalSource constructs a Source representing our own origination.
func LocalSource() Source { return Source{IsLocal: true} }

// PeerSource constructs a Source representing a message received from peer.
func PeerSource(peer PeerID) Source { return Source{Peer: peer} }

// AssignmentMessage pairs a certificate with the candidate bitfield it
// claims, the unit exchanged over the wire and stored pending delivery.
type AssignmentMessage struct {
	Cert    AssignmentCert
	Claimed CandidateBitfield
}

// AssignmentCheckResult is Approval Voting's verdict on a candidate
// assignment certificate.
type AssignmentCheckResult int

const (
	AssignmentAccepted AssignmentCheckResult = iota
	AssignmentAcceptedDuplicate
	AssignmentTooFarInFuture
	AssignmentBad
)

// ApprovalCheckResult is Approval Voting's verdict on an approval vote.
type ApprovalCheckResult int

const (
	ApprovalAccepted ApprovalCheckResult = iota
	ApprovalBad
)

// ApprovalVotingClient is the external collaborator that cryptographically
// validates assignments and approvals (spec.md §1, out of scope here: only
// its interface contract matters). Calls are synchronous from this
// package's point of view, matching the "await a oneshot reply" model of
// spec.md §5 — an implementation may back this with a channel-based
// oneshot internally.
type ApprovalVotingClient interface {
	CheckAndImportAssignment(cert AssignmentCert, claimed CandidateBitfield) AssignmentCheckResult
	CheckAndImportApproval(vote ApprovalVote) ApprovalCheckResult
}

// NetworkSink is the external collaborator that delivers and sends
// versioned protocol frames (spec.md §1's "Network Bridge", out of scope:
// only its interface contract matters here).
type NetworkSink interface {
	SendAssignments(peer PeerID, version ProtocolVersion, msgs []AssignmentMessage)
	SendApprovals(peer PeerID, version ProtocolVersion, votes []ApprovalVote)
	ReportPeer(peer PeerID, delta ReputationDelta)
}

// View is a peer's (or our own) most recently announced set of head
// hashes plus the block number it considers finalized.
type View struct {
	Heads     map[Hash]struct{}
	Finalized BlockNumber
}

// NewView returns an empty view.
func NewView() View {
	return View{Heads: make(map[Hash]struct{})}
}

// PeerEntry is the per-connected-peer record.
type PeerEntry struct {
	View            View
	ProtocolVersion ProtocolVersion
}

// BlockDescriptor is the per-head information carried by a NewBlocks
// control signal.
type BlockDescriptor struct {
	Hash       Hash
	Number     BlockNumber
	ParentHash Hash
	Session    SessionIndex
	Candidates int
}

// pendingMessage is a (peer, received-but-not-yet-ingested message) pair,
// stashed while a head has appeared in OurViewChange but NewBlocks for it
// has not yet arrived (spec.md §3's "pending-message buckets").
type pendingMessage struct {
	peer       PeerID
	assignment *AssignmentMessage
	approval   *ApprovalVote
}
