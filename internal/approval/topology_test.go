package approval

import "testing"

func newTestTopology() *SessionGridTopology {
	// 9 validators laid out in a 3x3 grid: local validator 4 sits at
	// row 1, col 1, with row neighbors {3,5} and column neighbors {1,7}.
	validators := make([]ValidatorIndex, 9)
	for i := range validators {
		validators[i] = ValidatorIndex(i)
	}
	return NewSessionGridTopology(1, validators, 4)
}

func TestRequiredRoutingForLocalOrigin(t *testing.T) {
	topo := newTestTopology()
	if got := topo.RequiredRoutingFor(4, true); got != RoutingGridXY {
		t.Fatalf("local origin should route GridXY, got %v", got)
	}
}

func TestRequiredRoutingForRowAndColumnNeighbors(t *testing.T) {
	topo := newTestTopology()

	if got := topo.RequiredRoutingFor(3, false); got != RoutingGridX {
		t.Errorf("row neighbor 3 should route GridX, got %v", got)
	}
	if got := topo.RequiredRoutingFor(5, false); got != RoutingGridX {
		t.Errorf("row neighbor 5 should route GridX, got %v", got)
	}
	if got := topo.RequiredRoutingFor(1, false); got != RoutingGridY {
		t.Errorf("column neighbor 1 should route GridY, got %v", got)
	}
	if got := topo.RequiredRoutingFor(7, false); got != RoutingGridY {
		t.Errorf("column neighbor 7 should route GridY, got %v", got)
	}
	if got := topo.RequiredRoutingFor(8, false); got != RoutingNone {
		t.Errorf("non-neighbor 8 should route None, got %v", got)
	}
}

func TestRouteToPeer(t *testing.T) {
	topo := newTestTopology()
	topo.SetPeerValidator(100, 3) // row neighbor
	topo.SetPeerValidator(101, 1) // column neighbor
	topo.SetPeerValidator(102, 8) // non-neighbor

	if !topo.RouteToPeer(RoutingGridX, 100) {
		t.Errorf("expected GridX to route to row neighbor's peer")
	}
	if topo.RouteToPeer(RoutingGridX, 101) {
		t.Errorf("did not expect GridX to route to a column-only neighbor's peer")
	}
	if !topo.RouteToPeer(RoutingGridXY, 101) {
		t.Errorf("expected GridXY to route to a column neighbor's peer")
	}
	if topo.RouteToPeer(RoutingGridXY, 102) {
		t.Errorf("did not expect GridXY to route to a non-neighbor's peer")
	}
	if !topo.RouteToPeer(RoutingAll, 102) {
		t.Errorf("expected All to route to every peer")
	}
	if topo.RouteToPeer(RoutingNone, 100) {
		t.Errorf("did not expect None to route anywhere")
	}
	if topo.RouteToPeer(RoutingPendingTopology, 100) {
		t.Errorf("did not expect PendingTopology to route anywhere")
	}
}

func TestRouteToPeerUnknownPeerNeverMatchesGridClasses(t *testing.T) {
	topo := newTestTopology()
	if topo.RouteToPeer(RoutingGridXY, 999) {
		t.Fatalf("an unmapped peer should never match a grid routing class")
	}
}

func TestSessionGridTopologiesRefcounting(t *testing.T) {
	topologies := NewSessionGridTopologies()
	topo := newTestTopology()
	topologies.Insert(topo)

	topologies.Acquire(1)
	topologies.Acquire(1)
	if topologies.Get(1) == nil {
		t.Fatalf("expected topology to be present after Insert")
	}

	topologies.Release(1)
	if topologies.Get(1) == nil {
		t.Fatalf("topology should survive while refs remain")
	}

	topologies.Release(1)
	if topologies.Get(1) != nil {
		t.Fatalf("topology should be released once its refcount reaches zero")
	}
}
