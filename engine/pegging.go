package engine

// MaxCount is the ceiling of the running count during the play phase.
const MaxCount = 31

// Pegging is the running-count mini state machine nested inside a round:
// the ordered cards played face-up since the last reset, plus the count.
// The count never exceeds MaxCount after a legal play.
type Pegging struct {
	Seq   *List[Card]
	Count int
}

// NewPegging returns an idle sequence (count zero, no cards).
func NewPegging() Pegging {
	return Pegging{Seq: NewList[Card]()}
}

// CanTake reports whether playing c would keep the count legal.
func (p *Pegging) CanTake(c Card) bool {
	return p.Count+c.Value() <= MaxCount
}

// Play appends c to the sequence, adds its value to the count, and returns
// the points formed by the new tail: fifteens, thirty-one, pairs, and runs.
// The caller must have checked CanTake.
func (p *Pegging) Play(c Card) int {
	points := peggingScore(p.Seq.Items(), c, p.Count)
	p.Seq.Append(c)
	p.Count += c.Value()
	return points
}

// Reset returns the sequence to idle: cards cleared, count zero.
func (p *Pegging) Reset() {
	p.Seq.RemoveAll()
	p.Count = 0
}

// peggingScore computes the points earned by playing next onto seq with the
// given running count. seq is oldest-to-newest and does not include next.
func peggingScore(seq []Card, next Card, count int) int {
	points := 0
	newCount := count + next.Value()

	if newCount == 15 {
		points += 2
	}
	if newCount == MaxCount {
		points += 2
	}

	// Pairs: consecutive same-rank cards ending with the new card.
	same := 1
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i].Rank() != next.Rank() {
			break
		}
		same++
	}
	switch same {
	case 2:
		points += 2
	case 3:
		points += 6
	case 4:
		points += 12
	}

	// Runs: the longest tail window (length ≥3) whose ranks are consecutive
	// in some order scores its length.
	tail := append(append([]Card{}, seq...), next)
	maxWindow := len(tail)
	if maxWindow > 7 {
		maxWindow = 7
	}
	for n := maxWindow; n >= 3; n-- {
		if isTailRun(tail[len(tail)-n:]) {
			points += n
			break
		}
	}

	return points
}

// isTailRun reports whether the cards form a set of consecutive distinct
// ranks, in any order.
func isTailRun(cards []Card) bool {
	seen := make(map[int]bool, len(cards))
	lo, hi := int(RankKing)+1, 0
	for _, c := range cards {
		r := int(c.Rank())
		if seen[r] {
			return false
		}
		seen[r] = true
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return hi-lo+1 == len(cards)
}
