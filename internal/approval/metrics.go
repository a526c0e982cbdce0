package approval

import "sync/atomic"

// Metrics tracks operational counters for the subsystem: plain atomic
// counters behind a struct, with no external metrics sink.
type Metrics struct {
	assignmentsImported  atomic.Uint64
	approvalsImported    atomic.Uint64
	duplicatesDetected   atomic.Uint64
	protocolViolations   atomic.Uint64
	invariantViolations  atomic.Uint64
	aggressionL1Events   atomic.Uint64
	aggressionL2Events   atomic.Uint64
	v1DownConvertDropped atomic.Uint64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) recordAssignmentImported()  { m.assignmentsImported.Add(1) }
func (m *Metrics) recordApprovalImported()    { m.approvalsImported.Add(1) }
func (m *Metrics) recordDuplicate()           { m.duplicatesDetected.Add(1) }
func (m *Metrics) recordProtocolViolation()   { m.protocolViolations.Add(1) }
func (m *Metrics) recordInvariantViolation()  { m.invariantViolations.Add(1) }
func (m *Metrics) recordAggressionL1()        { m.aggressionL1Events.Add(1) }
func (m *Metrics) recordAggressionL2()        { m.aggressionL2Events.Add(1) }
func (m *Metrics) recordV1DownConvertDropped() { m.v1DownConvertDropped.Add(1) }

// RecordV1DownConvertDropped is the exported entry point used by the wire
// package, which sits outside this package and cannot reach the unexported
// counters directly.
func (m *Metrics) RecordV1DownConvertDropped() { m.recordV1DownConvertDropped() }

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	AssignmentsImported  uint64
	ApprovalsImported    uint64
	DuplicatesDetected   uint64
	ProtocolViolations   uint64
	InvariantViolations  uint64
	AggressionL1Events   uint64
	AggressionL2Events   uint64
	V1DownConvertDropped uint64
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		AssignmentsImported:  m.assignmentsImported.Load(),
		ApprovalsImported:    m.approvalsImported.Load(),
		DuplicatesDetected:   m.duplicatesDetected.Load(),
		ProtocolViolations:   m.protocolViolations.Load(),
		InvariantViolations:  m.invariantViolations.Load(),
		AggressionL1Events:   m.aggressionL1Events.Load(),
		AggressionL2Events:   m.aggressionL2Events.Load(),
		V1DownConvertDropped: m.v1DownConvertDropped.Load(),
	}
}
