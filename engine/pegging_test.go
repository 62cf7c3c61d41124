package engine

import "testing"

// TestPeggingFifteen: landing the count on 15 scores two.
func TestPeggingFifteen(t *testing.T) {
	p := NewPegging()
	p.Play(mustCard(t, "7h"))
	if pts := p.Play(mustCard(t, "8c")); pts != 2 {
		t.Errorf("expected 2 points for fifteen, got %d", pts)
	}
	if p.Count != 15 {
		t.Errorf("expected count 15, got %d", p.Count)
	}
}

// TestPeggingPairsTail: consecutive same-rank cards score 2/6/12.
func TestPeggingPairsTail(t *testing.T) {
	p := NewPegging()
	p.Play(mustCard(t, "3h"))
	if pts := p.Play(mustCard(t, "3c")); pts != 2 {
		t.Errorf("pair: expected 2, got %d", pts)
	}
	if pts := p.Play(mustCard(t, "3d")); pts != 6 {
		t.Errorf("triple: expected 6, got %d", pts)
	}
	if pts := p.Play(mustCard(t, "3s")); pts != 12 {
		t.Errorf("quadruple: expected 12, got %d", pts)
	}
}

// TestPeggingPairBrokenByOtherRank: an intervening rank breaks the tail.
func TestPeggingPairBrokenByOtherRank(t *testing.T) {
	p := NewPegging()
	p.Play(mustCard(t, "3h"))
	p.Play(mustCard(t, "9c"))
	if pts := p.Play(mustCard(t, "3c")); pts != 2 {
		// 3-9-3 has no pair, but 3+9+3 = 15.
		t.Errorf("expected only the fifteen (2), got %d", pts)
	}
}

// TestPeggingRunTail: a tail run scores its length, in any order.
func TestPeggingRunTail(t *testing.T) {
	p := NewPegging()
	p.Play(mustCard(t, "4h"))
	p.Play(mustCard(t, "6c"))
	if pts := p.Play(mustCard(t, "5d")); pts != 5 {
		// 4+6+5 = 15 (2) plus the 4-5-6 run (3).
		t.Errorf("expected 5 points, got %d", pts)
	}
}

// TestPeggingThirtyOne: reaching exactly 31 scores two.
func TestPeggingThirtyOne(t *testing.T) {
	p := NewPegging()
	p.Play(mustCard(t, "kh"))
	p.Play(mustCard(t, "qc"))
	p.Play(mustCard(t, "6d"))
	if pts := p.Play(mustCard(t, "5s")); pts != 2 {
		t.Errorf("expected 2 points for 31, got %d", pts)
	}
	if p.Count != MaxCount {
		t.Errorf("expected count %d, got %d", MaxCount, p.Count)
	}
	p.Reset()
	if p.Count != 0 || p.Seq.Len() != 0 {
		t.Errorf("expected idle sequence after reset, got count=%d len=%d", p.Count, p.Seq.Len())
	}
}

// TestPeggingCanTake guards the 31 ceiling.
func TestPeggingCanTake(t *testing.T) {
	p := NewPegging()
	p.Count = 25
	if !p.CanTake(mustCard(t, "6h")) {
		t.Error("expected 25+6 to be legal")
	}
	if p.CanTake(mustCard(t, "7h")) {
		t.Error("expected 25+7 to be illegal")
	}
}
