package engine

import "sort"

// ScoreBreakdown itemizes the points awarded to a hand plus cut card.
type ScoreBreakdown struct {
	Fifteens  int
	Pairs     int
	Runs      int
	Flush     int
	RightJack int
	Total     int
}

// CountPoints computes the points for a 4-card hand plus the shared cut
// card. fiveCardFlush selects the crib rule: a flush only counts when all
// five cards (cut included) share a suit. The result is invariant under
// reordering of hand, and hand is never mutated.
func CountPoints(hand []Card, cut Card, fiveCardFlush bool) int {
	return ScoreHand(hand, cut, fiveCardFlush).Total
}

// ScoreHand is CountPoints with the full breakdown.
func ScoreHand(hand []Card, cut Card, fiveCardFlush bool) ScoreBreakdown {
	// Work on a private copy of hand ∪ cut.
	all := make([]Card, 0, len(hand)+1)
	all = append(all, hand...)
	all = append(all, cut)

	var b ScoreBreakdown
	b.Fifteens = scoreFifteens(all)
	b.Pairs = scorePairs(all)
	b.Runs = scoreRuns(all)
	b.Flush = scoreFlush(hand, cut, fiveCardFlush)
	b.RightJack = scoreRightJack(hand, cut)
	b.Total = b.Fifteens + b.Pairs + b.Runs + b.Flush + b.RightJack
	return b
}

// scoreFifteens counts every card combination summing to exactly 15,
// two points each, via an exhaustive recursive subset search. The
// recursion prunes a branch as soon as its subtotal exceeds 15.
func scoreFifteens(cards []Card) int {
	values := make([]int, len(cards))
	for i, c := range cards {
		values[i] = c.Value()
	}
	return fifteenSearch(values, 0, 0)
}

func fifteenSearch(values []int, start, subtotal int) int {
	points := 0
	for i := start; i < len(values); i++ {
		sum := subtotal + values[i]
		switch {
		case sum == 15:
			points += 2
		case sum < 15:
			points += fifteenSearch(values, i+1, sum)
		}
		// sum > 15: prune, no deeper subset can come back down.
	}
	return points
}

// scorePairs awards 2 for a pair, 6 for a triple, and 12 for four of a
// kind. Duplicate cards are isolated first, then regrouped by rank: a rank
// with m duplicates beyond its first card scores m*(m+1).
func scorePairs(cards []Card) int {
	points := 0
	for _, m := range duplicateRanks(cards) {
		switch m {
		case 1:
			points += 2
		case 2:
			points += 6
		case 3:
			points += 12
		}
	}
	return points
}

// duplicateRanks returns, per rank that repeats, how many cards beyond the
// first carry that rank.
func duplicateRanks(cards []Card) map[uint8]int {
	counts := make(map[uint8]int, len(cards))
	for _, c := range cards {
		counts[c.Rank()]++
	}
	dupes := make(map[uint8]int)
	for rank, n := range counts {
		if n > 1 {
			dupes[rank] = n - 1
		}
	}
	return dupes
}

// scoreRuns finds the longest ascending run of consecutive ranks (length
// ≥3) after dropping duplicate ranks, scanning every dropped-lowest-card
// subsequence. A run of length L scores L points multiplied by the number
// of ways duplicate cards substitute into it.
func scoreRuns(cards []Card) int {
	counts := make(map[int]int, len(cards))
	var ranks []int
	for _, c := range cards {
		r := int(c.Rank())
		if counts[r] == 0 {
			ranks = append(ranks, r)
		}
		counts[r]++
	}
	sort.Ints(ranks)

	bestLen, bestMult := 0, 0
	for start := 0; start < len(ranks); start++ {
		for end := start; end < len(ranks); end++ {
			length := end - start + 1
			if length < 3 {
				continue
			}
			if ranks[end]-ranks[start] != length-1 {
				continue
			}
			mult := 1
			for i := start; i <= end; i++ {
				mult *= counts[ranks[i]]
			}
			if length > bestLen {
				bestLen, bestMult = length, mult
			}
		}
	}

	// No run found awards zero. Kept as an explicit branch.
	if bestLen == 0 {
		return 0
	}
	return bestLen * bestMult
}

// scoreFlush awards the count of the uniform suit: 4 for a hand flush,
// 5 when the cut matches too. Under the crib rule (fiveCardFlush) only the
// full 5-card flush counts.
func scoreFlush(hand []Card, cut Card, fiveCardFlush bool) int {
	if len(hand) == 0 {
		return 0
	}
	suit := hand[0].Suit()
	count := 0
	for _, c := range hand {
		if c.Suit() == suit {
			count++
		}
	}
	if count != len(hand) {
		return 0
	}
	if cut.Suit() == suit {
		count++
	}
	if fiveCardFlush {
		if count == len(hand)+1 {
			return count
		}
		return 0
	}
	if count >= 4 {
		return count
	}
	return 0
}

// scoreRightJack awards one point when the hand holds the jack of the cut
// card's suit. The cut being a jack itself scores nothing here.
func scoreRightJack(hand []Card, cut Card) int {
	if cut.Rank() == RankJack {
		return 0
	}
	for _, c := range hand {
		if c.Rank() == RankJack && c.Suit() == cut.Suit() {
			return 1
		}
	}
	return 0
}
