package wire

import "github.com/parachain/approval-distribution/internal/approval"

// Transport is the actual bytes-on-wire boundary a Sink hands already
// version-converted, size-bounded frames to: the real Network Bridge
// (spec.md §1, out of scope here — only its contract matters). Unlike
// approval.NetworkSink, a Transport never sees raw internal messages or a
// version tag: by the time it is called, that decision has already been
// made.
type Transport interface {
	Send(peer approval.PeerID, frame Message)
	ReportPeer(peer approval.PeerID, delta approval.ReputationDelta)
}

// entrySize estimates are representative on-wire sizes for one assignment
// or approval entry, used only to size batches per spec.md §6; the exact
// encoded length is whatever the CBOR codec actually produces.
const (
	assignmentEntrySize = 256
	approvalEntrySize   = 128
)

// Sink adapts a Transport into an approval.NetworkSink, performing the two
// things spec.md §6 assigns to approval-distribution itself rather than
// the Network Bridge: version down-conversion (ToV1/ToV2/ToV3) and
// MAX_NOTIFICATION_SIZE batching (BatchAssignments/BatchApprovals). In the
// original this lives inside the approval-distribution crate's
// send_assignments_batched/send_approvals_batched, not the network bridge
// — this type is where that responsibility is discharged here.
type Sink struct {
	Transport           Transport
	MaxNotificationSize int
	Metrics             DroppedCounter // may be nil
}

// NewSink returns a Sink wrapping transport with the spec.md §6 default
// notification-size ceiling.
func NewSink(transport Transport) *Sink {
	return &Sink{Transport: transport, MaxNotificationSize: DefaultMaxNotificationSize}
}

func (s *Sink) maxSize() int {
	if s.MaxNotificationSize > 0 {
		return s.MaxNotificationSize
	}
	return DefaultMaxNotificationSize
}

// SendAssignments batches msgs to respect MAX_NOTIFICATION_SIZE, then
// down-converts each batch to the peer's protocol version before handing
// it to the Transport. A V1 peer silently drops multi-candidate
// assignments here (ToV1), which is the one place that filtering can
// actually happen — it never reaches a peer speaking an older protocol.
func (s *Sink) SendAssignments(peer approval.PeerID, version approval.ProtocolVersion, msgs []approval.AssignmentMessage) {
	for _, batch := range BatchAssignments(msgs, s.maxSize(), assignmentEntrySize) {
		if len(batch) == 0 {
			continue
		}
		s.Transport.Send(peer, s.convert(version, batch, nil))
	}
}

// SendApprovals batches votes to respect MAX_NOTIFICATION_SIZE, then
// down-converts each batch to the peer's protocol version before handing
// it to the Transport.
func (s *Sink) SendApprovals(peer approval.PeerID, version approval.ProtocolVersion, votes []approval.ApprovalVote) {
	for _, batch := range BatchApprovals(votes, s.maxSize(), approvalEntrySize) {
		if len(batch) == 0 {
			continue
		}
		s.Transport.Send(peer, s.convert(version, nil, batch))
	}
}

func (s *Sink) convert(version approval.ProtocolVersion, assignments []approval.AssignmentMessage, approvals []approval.ApprovalVote) Message {
	switch version {
	case approval.ProtocolV1:
		return ToV1(assignments, approvals, s.Metrics)
	case approval.ProtocolV3:
		return ToV3(assignments, approvals)
	default:
		return ToV2(assignments, approvals)
	}
}

// ReportPeer passes reputation reports straight through.
func (s *Sink) ReportPeer(peer approval.PeerID, delta approval.ReputationDelta) {
	s.Transport.ReportPeer(peer, delta)
}

// LoggingTransport is a Transport that only logs the frames it would have
// sent. It lets the node run standalone (diagnostics, local testing)
// without a live Network Bridge connection, while still exercising the
// batching and version-conversion Sink performs above it.
type LoggingTransport struct {
	Logger approval.Logger
}

func (t LoggingTransport) Send(peer approval.PeerID, frame Message) {
	t.Logger.Debug("would send frame", "peer", peer, "version", frame.Version,
		"assignments", len(frame.V1Assignments)+len(frame.V2Assignments)+len(frame.V3Assignments),
		"approvals", len(frame.V1Approvals)+len(frame.V2Approvals)+len(frame.V3Approvals))
}

func (t LoggingTransport) ReportPeer(peer approval.PeerID, delta approval.ReputationDelta) {
	t.Logger.Debug("would report peer", "peer", peer, "delta", delta)
}
