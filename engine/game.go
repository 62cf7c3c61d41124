package engine

import "fmt"

// Phase identifies where a game sits in its lifecycle.
type Phase uint8

const (
	PhaseForming  Phase = iota // accepting joiners, no cards dealt
	PhaseCrib                  // hands dealt, awaiting discards
	PhasePegging               // crib sealed, cut drawn, play in progress
	PhaseGameOver              // a team's total exceeded 120
)

// String returns the phase name used in snapshots and messages.
func (p Phase) String() string {
	switch p {
	case PhaseForming:
		return "forming"
	case PhaseCrib:
		return "crib"
	case PhasePegging:
		return "pegging"
	case PhaseGameOver:
		return "game over"
	}
	return "unknown"
}

// WinningScore is the total a team must exceed to win. The win condition is
// deliberately framed as "total > 120" rather than ">= 121".
const WinningScore = 120

// Player is one seat in a game: a unique name, the cards currently held,
// and the running point total.
type Player struct {
	Name   string
	Hand   *List[Card]
	Points int
	Team   int
}

// Game is the round/game state machine. It owns the players in seating
// order, the dealer and next-player markers, teams, deck, crib, cut card,
// and the nested pegging sequence. Game is not safe for concurrent use;
// the session layer serializes access.
type Game struct {
	Players []*Player
	Teams   [][]int // seat indices per team
	Dealer  int     // -1 until the first deal
	Next    int
	Deck    *List[Card]
	Crib    *List[Card]
	Cut     Card
	HasCut  bool
	Pegging Pegging
	Phase   Phase
	Begun   bool

	kept      [][]Card // per-seat 4-card hands snapshotted when the crib seals
	discarded []bool
	inPlay    []bool // still holding cards this round
	goes      []bool // said "go" this sequence
	lastPlay  int    // seat of the last card played, -1 when none
	rng       uint64
}

// NewGame returns an empty game in the forming phase. seed drives the
// shuffle; zero is replaced because xorshift cannot start at zero.
func NewGame(seed uint64) *Game {
	if seed == 0 {
		seed = 1
	}
	return &Game{
		Dealer:   -1,
		Next:     -1,
		Deck:     NewList[Card](),
		Crib:     NewList[Card](),
		Pegging:  NewPegging(),
		lastPlay: -1,
		rng:      seed,
	}
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (g *Game) nextRand() uint64 {
	x := g.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.rng = x
	return x
}

// randN returns a random number in [0, n).
func (g *Game) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// ---------------------------------------------------------------------------
// Seating
// ---------------------------------------------------------------------------

// AddPlayer seats a new player. Names are unique within a game.
func (g *Game) AddPlayer(name string) error {
	if g.Begun {
		return ErrGameAlreadyBegun
	}
	if g.seatOf(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrPlayerAlreadyInGame, name)
	}
	g.Players = append(g.Players, &Player{Name: name, Hand: NewList[Card]()})
	return nil
}

// RemovePlayer unseats a player. Only legal while forming.
func (g *Game) RemovePlayer(name string) error {
	if g.Begun {
		return ErrGameAlreadyBegun
	}
	seat := g.seatOf(name)
	if seat < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	g.Players = append(g.Players[:seat], g.Players[seat+1:]...)
	return nil
}

// PlayerNames returns the seated names in order.
func (g *Game) PlayerNames() []string {
	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Name
	}
	return names
}

// HasPlayer reports whether name is seated.
func (g *Game) HasPlayer(name string) bool { return g.seatOf(name) >= 0 }

func (g *Game) seatOf(name string) int {
	for i, p := range g.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// PlayerByName returns the seated player, or nil.
func (g *Game) PlayerByName(name string) *Player {
	if seat := g.seatOf(name); seat >= 0 {
		return g.Players[seat]
	}
	return nil
}

// formTeams assigns seats to teams: alternating pairs for four players,
// one team per seat otherwise.
func (g *Game) formTeams() {
	n := len(g.Players)
	if n == 4 {
		g.Teams = [][]int{{0, 2}, {1, 3}}
	} else {
		g.Teams = make([][]int, n)
		for i := range g.Teams {
			g.Teams[i] = []int{i}
		}
	}
	for t, seats := range g.Teams {
		for _, s := range seats {
			g.Players[s].Team = t
		}
	}
}

// TeamTotal returns the aggregate score of team t.
func (g *Game) TeamTotal(t int) int {
	total := 0
	for _, s := range g.Teams[t] {
		total += g.Players[s].Points
	}
	return total
}

// ---------------------------------------------------------------------------
// Begin / Deal
// ---------------------------------------------------------------------------

// Begin locks the seating, forms teams, and deals the first round.
func (g *Game) Begin() error {
	if g.Begun {
		return ErrGameAlreadyBegun
	}
	if len(g.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	g.Begun = true
	g.formTeams()
	return g.Deal()
}

// Rehydrate marks a reconstructed game as begun with the given dealer,
// without dealing. Recreation follows with either ResumeRound or Deal.
func (g *Game) Rehydrate(dealer string) error {
	if len(g.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	seat := g.seatOf(dealer)
	if seat < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, dealer)
	}
	g.Begun = true
	g.formTeams()
	g.Dealer = seat
	return nil
}

// SetPoints overwrites a player's running total. Used by recreation only.
func (g *Game) SetPoints(name string, points int) error {
	p := g.PlayerByName(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	p.Points = points
	return nil
}

// handSize returns the per-player deal count: 6 for two players, 5 for more.
func (g *Game) handSize() int {
	if len(g.Players) == 2 {
		return 6
	}
	return 5
}

// discardCount returns the crib contribution per player.
func (g *Game) discardCount() int {
	if len(g.Players) == 2 {
		return 2
	}
	return 1
}

// CribTarget is the sealed crib size.
const CribTarget = 4

// Deal clears hands and crib, shuffles, and deals a fresh round. The dealer
// is chosen by a fair random cut on the first deal and rotates one seat on
// every later one.
func (g *Game) Deal() error {
	if !g.Begun {
		return ErrKittyNotReady
	}
	if g.Phase == PhaseGameOver {
		return ErrGameOver
	}
	n := len(g.Players)

	for _, p := range g.Players {
		p.Hand.RemoveAll()
	}
	g.Crib.RemoveAll()
	g.Pegging.Reset()
	g.HasCut = false
	g.Cut = NoCard
	g.kept = make([][]Card, n)
	g.discarded = make([]bool, n)
	g.inPlay = make([]bool, n)
	g.goes = make([]bool, n)
	g.lastPlay = -1

	g.freshDeck()

	if g.Dealer < 0 {
		g.Dealer = g.cutForDeal()
		g.freshDeck() // the cut consumed cards; rebuild before dealing
	} else {
		g.Dealer = (g.Dealer + 1) % n
	}

	for c := 0; c < g.handSize(); c++ {
		for off := 1; off <= n; off++ {
			seat := (g.Dealer + off) % n
			card, _ := g.Deck.Pop()
			g.Players[seat].Hand.Append(card)
		}
	}

	g.Phase = PhaseCrib
	g.Next = (g.Dealer + 1) % n
	return nil
}

// freshDeck rebuilds and shuffles the full deck.
func (g *Game) freshDeck() {
	g.Deck.RemoveAll()
	for suit := uint8(0); suit < 4; suit++ {
		for rank := RankAce; rank <= RankKing; rank++ {
			g.Deck.Append(NewCard(suit, rank))
		}
	}
	// Fisher-Yates shuffle.
	for i := g.Deck.Len() - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		g.Deck.Swap(i, j)
	}
}

// cutForDeal draws one card per seat from the shuffled deck; the lowest
// rank deals first. Ties go to the earlier seat.
func (g *Game) cutForDeal() int {
	best, bestRank := 0, int(RankKing)+1
	for seat := range g.Players {
		card, _ := g.Deck.Pop()
		if r := int(card.Rank()); r < bestRank {
			best, bestRank = seat, r
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Crib formation
// ---------------------------------------------------------------------------

// GiveToKitty moves the named player's discards into the crib. Once every
// player has contributed, the crib seals: in three-player games the deck
// supplies the fourth crib card, the kept hands are snapshotted for
// counting, and the cut card is drawn. Returns true when this call sealed
// the crib.
func (g *Game) GiveToKitty(name string, cards []Card) (bool, error) {
	if g.Phase == PhaseGameOver {
		return false, ErrGameOver
	}
	if g.Phase != PhaseCrib {
		return false, ErrKittyNotReady
	}
	seat := g.seatOf(name)
	if seat < 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	if g.discarded[seat] {
		return false, ErrAlreadyDiscarded
	}
	if len(cards) != g.discardCount() {
		return false, fmt.Errorf("%w: need %d", ErrWrongDiscardCount, g.discardCount())
	}

	// Validate against a copy so a bad discard leaves the hand untouched.
	hand := g.Players[seat].Hand.Clone()
	for _, c := range cards {
		if !hand.Remove(c) {
			return false, fmt.Errorf("%w: %s", ErrPlayerDoesNotHaveCard, c)
		}
	}

	g.Players[seat].Hand = hand
	for _, c := range cards {
		g.Crib.Append(c)
	}
	g.discarded[seat] = true

	for _, done := range g.discarded {
		if !done {
			return false, nil
		}
	}
	g.sealCrib()
	return true, nil
}

// sealCrib tops the crib up from the deck if needed, snapshots the kept
// hands, draws the cut card, and opens the pegging phase.
func (g *Game) sealCrib() {
	for g.Crib.Len() < CribTarget {
		card, _ := g.Deck.Pop()
		g.Crib.Append(card)
	}
	for seat, p := range g.Players {
		g.kept[seat] = p.Hand.Items()
		g.inPlay[seat] = p.Hand.Len() > 0
	}
	g.Cut, _ = g.Deck.Pop()
	g.HasCut = true
	g.Phase = PhasePegging
	g.Next = (g.Dealer + 1) % len(g.Players)
	g.lastPlay = -1
}

// ---------------------------------------------------------------------------
// Pegging verbs
// ---------------------------------------------------------------------------

// HandScore is one counted hand in a round summary.
type HandScore struct {
	Player    string
	Crib      bool
	Hand      []Card
	Breakdown ScoreBreakdown
}

// RoundSummary reports the counting that closed a round. Hands appear in
// counting order (pone hands, dealer hand, crib) and stop early when a
// team's win suppresses the rest.
type RoundSummary struct {
	Cut    Card
	Hands  []HandScore
	Totals map[string]int
}

// PlayResult reports the outcome of a pegging verb.
type PlayResult struct {
	Points        int    // points pegged by the acting play or go award
	GoPointTo     string // set when a go point was awarded
	SequenceReset bool
	RoundOver     bool
	GameOver      bool
	WinningTeam   int
	Round         *RoundSummary
}

// PlayCard plays one card from the acting player's hand onto the pegging
// sequence. Illegal plays fail with a typed error and change nothing.
func (g *Game) PlayCard(name string, card Card) (PlayResult, error) {
	var res PlayResult
	seat, err := g.peggingTurn(name)
	if err != nil {
		return res, err
	}
	player := g.Players[seat]
	if !player.Hand.Contains(card) {
		return res, fmt.Errorf("%w: %s", ErrPlayerDoesNotHaveCard, card)
	}
	if !g.Pegging.CanTake(card) {
		return res, fmt.Errorf("%w: count is %d", ErrExceedsThirtyOne, g.Pegging.Count)
	}

	player.Hand.Remove(card)
	res.Points = g.Pegging.Play(card)
	player.Points += res.Points
	g.lastPlay = seat
	g.clearGoes()

	if g.checkWin(player.Team, &res) {
		return res, nil
	}

	if player.Hand.Len() == 0 {
		g.inPlay[seat] = false
	}

	hitThirtyOne := g.Pegging.Count == MaxCount
	if hitThirtyOne {
		g.Pegging.Reset()
		res.SequenceReset = true
		g.lastPlay = -1
	}

	if g.allHandsEmpty() {
		// Last card scores one unless the round just closed on 31.
		if !hitThirtyOne && g.lastPlay >= 0 {
			g.Players[g.lastPlay].Points++
			res.Points++
			g.lastPlay = -1
			if g.checkWin(player.Team, &res) {
				return res, nil
			}
		}
		g.countRound(&res)
		return res, nil
	}

	g.Next = g.nextInPlayAfter(seat)
	return res, nil
}

// Go records that the acting player cannot play without exceeding 31. When
// every player still in play has said go consecutively, the last player to
// have played a card scores one point and the sequence resets.
func (g *Game) Go(name string) (PlayResult, error) {
	var res PlayResult
	seat, err := g.peggingTurn(name)
	if err != nil {
		return res, err
	}
	if g.canPlay(seat) {
		return res, ErrHasLegalPlay
	}

	g.goes[seat] = true

	if !g.allInPlayHaveGone() {
		g.Next = g.nextInPlayAfter(seat)
		return res, nil
	}

	if g.lastPlay >= 0 {
		last := g.Players[g.lastPlay]
		last.Points++
		res.Points = 1
		res.GoPointTo = last.Name
		if g.checkWin(last.Team, &res) {
			return res, nil
		}
		g.Next = g.nextInPlayAfter(g.lastPlay)
	} else {
		g.Next = g.nextInPlayAfter(seat)
	}
	g.lastPlay = -1
	g.Pegging.Reset()
	g.clearGoes()
	res.SequenceReset = true
	return res, nil
}

// peggingTurn validates phase and turn for a pegging verb, returning the
// acting seat.
func (g *Game) peggingTurn(name string) (int, error) {
	if g.Phase == PhaseGameOver {
		return -1, ErrGameOver
	}
	if g.Phase != PhasePegging {
		return -1, ErrNotPegging
	}
	seat := g.seatOf(name)
	if seat < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	if seat != g.Next {
		return -1, fmt.Errorf("%w: waiting on %s", ErrNotNextPlayer, g.Players[g.Next].Name)
	}
	return seat, nil
}

func (g *Game) canPlay(seat int) bool {
	for _, c := range g.Players[seat].Hand.Items() {
		if g.Pegging.CanTake(c) {
			return true
		}
	}
	return false
}

func (g *Game) clearGoes() {
	for i := range g.goes {
		g.goes[i] = false
	}
}

func (g *Game) allInPlayHaveGone() bool {
	for seat, in := range g.inPlay {
		if in && !g.goes[seat] {
			return false
		}
	}
	return true
}

func (g *Game) allHandsEmpty() bool {
	for _, in := range g.inPlay {
		if in {
			return false
		}
	}
	return true
}

// nextInPlayAfter returns the next seat still in play after seat, or -1.
func (g *Game) nextInPlayAfter(seat int) int {
	n := len(g.Players)
	for off := 1; off <= n; off++ {
		s := (seat + off) % n
		if g.inPlay[s] {
			return s
		}
	}
	return -1
}

// checkWin flips the game to over when team t's total exceeds WinningScore.
func (g *Game) checkWin(t int, res *PlayResult) bool {
	if g.TeamTotal(t) > WinningScore {
		g.Phase = PhaseGameOver
		res.GameOver = true
		res.WinningTeam = t
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Counting
// ---------------------------------------------------------------------------

// countRound scores the kept hands in counting order (pone hands in seating
// order, then the dealer's hand, then the crib for the dealer's team), with
// the shared cut included throughout. Scoring stops the instant a team's
// total exceeds the winning score; otherwise the dealer rotates and a fresh
// round is dealt.
func (g *Game) countRound(res *PlayResult) {
	n := len(g.Players)
	summary := &RoundSummary{Cut: g.Cut}
	res.Round = summary

	finish := func() {
		summary.Totals = make(map[string]int, n)
		for _, p := range g.Players {
			summary.Totals[p.Name] = p.Points
		}
	}

	for off := 1; off <= n; off++ {
		seat := (g.Dealer + off) % n
		p := g.Players[seat]
		b := ScoreHand(g.kept[seat], g.Cut, false)
		p.Points += b.Total
		summary.Hands = append(summary.Hands, HandScore{
			Player:    p.Name,
			Hand:      g.kept[seat],
			Breakdown: b,
		})
		if g.checkWin(p.Team, res) {
			finish()
			return
		}
	}

	dealer := g.Players[g.Dealer]
	cribCards := g.Crib.Items()
	b := ScoreHand(cribCards, g.Cut, true)
	dealer.Points += b.Total
	summary.Hands = append(summary.Hands, HandScore{
		Player:    dealer.Name,
		Crib:      true,
		Hand:      cribCards,
		Breakdown: b,
	})
	if g.checkWin(dealer.Team, res) {
		finish()
		return
	}

	finish()
	res.RoundOver = true
	_ = g.Deal() // rotates the dealer
}

// ---------------------------------------------------------------------------
// Recreation support
// ---------------------------------------------------------------------------

// ResumeRound restores an interrupted round at the start of pegging: the
// given post-discard hands, sealed crib, and cut card are installed and the
// corresponding cards are stripped from a fresh deck so no card exists
// twice. The game must have been Rehydrated first.
func (g *Game) ResumeRound(hands map[string][]Card, crib []Card, cut Card) error {
	if !g.Begun || g.Dealer < 0 {
		return ErrKittyNotReady
	}
	n := len(g.Players)
	g.freshDeck()
	g.kept = make([][]Card, n)
	g.discarded = make([]bool, n)
	g.inPlay = make([]bool, n)
	g.goes = make([]bool, n)

	for name, cards := range hands {
		seat := g.seatOf(name)
		if seat < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
		}
		p := g.Players[seat]
		p.Hand.RemoveAll()
		for _, c := range cards {
			p.Hand.Append(c)
			g.Deck.Remove(c)
		}
		g.kept[seat] = p.Hand.Items()
		g.discarded[seat] = true
		g.inPlay[seat] = p.Hand.Len() > 0
	}

	g.Crib.RemoveAll()
	for _, c := range crib {
		g.Crib.Append(c)
		g.Deck.Remove(c)
	}
	g.Deck.Remove(cut)
	g.Cut = cut
	g.HasCut = true
	g.Pegging.Reset()
	g.Phase = PhasePegging
	g.Next = (g.Dealer + 1) % n
	g.lastPlay = -1
	return nil
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// PlayerStatus is one player's line in a Description.
type PlayerStatus struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Team      int    `json:"team"`
	CardsHeld int    `json:"cardsHeld"`
}

// Description is a read-only snapshot of a game for status queries.
type Description struct {
	Begun      bool           `json:"begun"`
	Phase      string         `json:"phase"`
	Dealer     string         `json:"dealer,omitempty"`
	NextPlayer string         `json:"nextPlayer,omitempty"`
	Count      int            `json:"count"`
	CribSize   int            `json:"cribSize"`
	Cut        string         `json:"cut,omitempty"`
	Players    []PlayerStatus `json:"players"`
	TeamTotals []int          `json:"teamTotals,omitempty"`
}

// Describe returns the current snapshot. It never mutates state.
func (g *Game) Describe() Description {
	d := Description{
		Begun:    g.Begun,
		Phase:    g.Phase.String(),
		Count:    g.Pegging.Count,
		CribSize: g.Crib.Len(),
	}
	if g.Dealer >= 0 {
		d.Dealer = g.Players[g.Dealer].Name
	}
	if g.Next >= 0 && g.Phase != PhaseGameOver {
		d.NextPlayer = g.Players[g.Next].Name
	}
	if g.HasCut {
		d.Cut = g.Cut.String()
	}
	for _, p := range g.Players {
		d.Players = append(d.Players, PlayerStatus{
			Name:      p.Name,
			Points:    p.Points,
			Team:      p.Team,
			CardsHeld: p.Hand.Len(),
		})
	}
	for t := range g.Teams {
		d.TeamTotals = append(d.TeamTotals, g.TeamTotal(t))
	}
	return d
}
