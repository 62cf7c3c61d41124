package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegboard/cribbage/engine"
	"github.com/pegboard/cribbage/internal/models"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	r, err := NewRegistry(context.Background(), store, nil)
	require.NoError(t, err)
	// Deterministic deals for every game the registry creates from here on.
	r.seed = func() uint64 { return 7 }
	r.lobby = engine.NewGame(r.seed())
	return r, store
}

func seatOf(g *engine.Game, name string) int {
	for i, n := range g.PlayerNames() {
		if n == name {
			return i
		}
	}
	return -1
}

func TestJoinLobbyDuplicateRejected(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Join(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)

	_, err = r.Join(ctx, "alice", 0)
	require.ErrorIs(t, err, engine.ErrPlayerAlreadyInGame)
	assert.Empty(t, r.players, "failed join must not touch the session map")
	assert.Len(t, r.lobby.Players, 1)
}

func TestJoinRequiresName(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Join(context.Background(), "  ", 0)
	require.ErrorIs(t, err, ErrEmptyPlayerName)
}

func TestBeginRequiresLobbyMembership(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Begin(ctx, "mallory")
	require.ErrorIs(t, err, ErrNotInLobby)

	_, err = r.Join(ctx, "alice", 0)
	require.NoError(t, err)
	_, err = r.Begin(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrNotEnoughPlayers)
}

func TestBeginRegistersGameAndFreshLobby(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		_, err := r.Join(ctx, name, 0)
		require.NoError(t, err)
	}
	res, err := r.Begin(ctx, "alice")
	require.NoError(t, err)
	require.NotZero(t, res.GameHistoryID)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "crib", res.Snapshot.Phase)

	// Both players resolve to the new game and nowhere else.
	assert.Equal(t, res.GameHistoryID, r.players["alice"])
	assert.Equal(t, res.GameHistoryID, r.players["bob"])
	_, err = r.Join(ctx, "alice", 0)
	require.ErrorIs(t, err, ErrPlayerBusy)

	// The lobby was replaced and accepts new joiners.
	_, err = r.Join(ctx, "carol", 0)
	require.NoError(t, err)
}

func TestBeginPersistenceFailureLeavesLobby(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		_, err := r.Join(ctx, name, 0)
		require.NoError(t, err)
	}

	store.failCreateHistory = true
	_, err := r.Begin(ctx, "alice")
	require.Error(t, err)
	assert.Empty(t, r.games, "failed begin must register nothing")
	assert.Empty(t, r.players)

	store.failCreateHistory = false
	res, err := r.Begin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
}

// beginTwoPlayerGame joins alice and bob and begins; returns the history ID
// and the live association.
func beginTwoPlayerGame(t *testing.T, r *Registry) (int64, *Association) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"alice", "bob"} {
		_, err := r.Join(ctx, name, 0)
		require.NoError(t, err)
	}
	res, err := r.Begin(ctx, "alice")
	require.NoError(t, err)
	return res.GameHistoryID, r.games[res.GameHistoryID]
}

func TestThrowSealsCribAndPersistsRound(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID, assoc := beginTwoPlayerGame(t, r)

	for _, name := range []string{"alice", "bob"} {
		discard := models.EncodeHand(assoc.Game.PlayerByName(name).Hand.Items()[:2])
		res, err := r.Throw(ctx, name, discard)
		require.NoError(t, err)
		assert.Equal(t, StatusOK, res.Status)
	}

	assert.Equal(t, "pegging", assoc.Game.Phase.String())
	// One row per kept hand plus the crib, written asynchronously.
	require.Eventually(t, func() bool { return store.handCount(ghID) == 3 },
		time.Second, 10*time.Millisecond)
}

func TestThrowWrongTurnStateRejected(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Throw(ctx, "alice", "2h-3h")
	require.ErrorIs(t, err, ErrPlayerNotInGame)
}

func TestPlayCardWinClosesGame(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID, assoc := beginTwoPlayerGame(t, r)

	// Rig a round where alice sits at 120 and can peg a triple.
	g := assoc.Game
	g.Dealer = seatOf(g, "bob") // alice leads
	hands := map[string][]engine.Card{
		"alice": mustEngineCards(t, "5h-5d"),
		"bob":   mustEngineCards(t, "5c-kd"),
	}
	require.NoError(t, g.ResumeRound(hands, mustEngineCards(t, "2c-3c-4c-9d"), mustEngineCards(t, "9c")[0]))
	require.NoError(t, g.SetPoints("alice", 120))

	_, err := r.PlayCard(ctx, "alice", "5h")
	require.NoError(t, err)
	_, err = r.PlayCard(ctx, "bob", "5c")
	require.NoError(t, err)
	res, err := r.PlayCard(ctx, "alice", "5d")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "wins")

	// The finished game leaves the registry synchronously.
	assert.Empty(t, r.players)
	assert.Empty(t, r.games)

	// History close and win/loss recording are best-effort async.
	require.Eventually(t, func() bool {
		return store.historyFinished(ghID) && store.winLossCount(ghID) == 2
	}, time.Second, 10*time.Millisecond)

	rec, err := store.GetWinLoss(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Wins)
	rec, err = store.GetWinLoss(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Losses)
}

func TestIllegalPlayReportedWithoutMutation(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, assoc := beginTwoPlayerGame(t, r)

	g := assoc.Game
	g.Dealer = seatOf(g, "alice") // bob leads
	hands := map[string][]engine.Card{
		"alice": mustEngineCards(t, "kh-6d"),
		"bob":   mustEngineCards(t, "qc-5s"),
	}
	require.NoError(t, g.ResumeRound(hands, mustEngineCards(t, "2c-3c-4c-9d"), mustEngineCards(t, "9c")[0]))

	_, err := r.PlayCard(ctx, "alice", "kh")
	require.ErrorIs(t, err, engine.ErrNotNextPlayer)
	assert.Equal(t, 0, g.Pegging.Count)

	_, err = r.PlayCard(ctx, "bob", "zz")
	require.ErrorIs(t, err, engine.ErrInvalidCardSyntax)
}

// seedInterruptedGame persists a two-player history with an unplayed round:
// kept hands, a crib owned by bob, and running totals.
func seedInterruptedGame(t *testing.T, r *Registry, store *fakeStore) int64 {
	t.Helper()
	ctx := context.Background()
	alice, err := store.CreatePlayer(ctx, "alice")
	require.NoError(t, err)
	bob, err := store.CreatePlayer(ctx, "bob")
	require.NoError(t, err)
	gh, err := store.CreateGameHistory(ctx, r.gameID)
	require.NoError(t, err)
	require.NoError(t, store.CreateAssociations(ctx, []int64{alice.ID, bob.ID}, gh.ID))
	require.NoError(t, store.BulkCreateHandHistories(ctx, []models.HandHistory{
		{PlayerID: alice.ID, GameHistoryID: gh.ID, Hand: "kh-6d-ac-2s", Cut: "9c", Points: 42},
		{PlayerID: bob.ID, GameHistoryID: gh.ID, Hand: "qc-5s-ad-3s", Cut: "9c", Points: 37},
		{PlayerID: bob.ID, GameHistoryID: gh.ID, Hand: "2c-3c-4c-9d", Cut: "9c", Crib: true, Points: 37},
	}))
	return gh.ID
}

func TestRecreationRestoresInterruptedRound(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID := seedInterruptedGame(t, r, store)

	assoc, err := r.resolveAssociation(ctx, ghID)
	require.NoError(t, err)
	snap := assoc.Game.Describe()

	assert.Equal(t, "bob", snap.Dealer)
	assert.Equal(t, "alice", snap.NextPlayer)
	assert.Equal(t, "pegging", snap.Phase)
	assert.Equal(t, "9c", snap.Cut)
	for _, p := range snap.Players {
		switch p.Name {
		case "alice":
			assert.Equal(t, 42, p.Points)
		case "bob":
			assert.Equal(t, 37, p.Points)
		}
	}
	// Restored cards never linger in the deck.
	assert.False(t, assoc.Game.Deck.Contains(mustEngineCards(t, "kh")[0]))
	assert.False(t, assoc.Game.Deck.Contains(mustEngineCards(t, "9c")[0]))
}

func TestRecreationIsIdempotent(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID := seedInterruptedGame(t, r, store)

	first, err := r.resolveAssociation(ctx, ghID)
	require.NoError(t, err)
	snapA := first.Game.Describe()

	r.mu.Lock()
	delete(r.games, ghID)
	r.mu.Unlock()

	second, err := r.resolveAssociation(ctx, ghID)
	require.NoError(t, err)
	snapB := second.Game.Describe()

	assert.Equal(t, snapA.Dealer, snapB.Dealer)
	assert.Equal(t, snapA.NextPlayer, snapB.NextPlayer)
	assert.Equal(t, snapA.Players, snapB.Players)
	assert.Equal(t, snapA.Cut, snapB.Cut)
}

func TestRecreationRotatesDealerAfterCountedRound(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	alice, err := store.CreatePlayer(ctx, "alice")
	require.NoError(t, err)
	bob, err := store.CreatePlayer(ctx, "bob")
	require.NoError(t, err)
	gh, err := store.CreateGameHistory(ctx, r.gameID)
	require.NoError(t, err)
	require.NoError(t, store.CreateAssociations(ctx, []int64{alice.ID, bob.ID}, gh.ID))
	// A fully counted round: alice dealt, everything marked played.
	require.NoError(t, store.BulkCreateHandHistories(ctx, []models.HandHistory{
		{PlayerID: alice.ID, GameHistoryID: gh.ID, Hand: "kh-6d-ac-2s", Cut: "9c", Played: true, Points: 8},
		{PlayerID: bob.ID, GameHistoryID: gh.ID, Hand: "qc-5s-ad-3s", Cut: "9c", Played: true, Points: 6},
		{PlayerID: alice.ID, GameHistoryID: gh.ID, Hand: "2c-3c-4c-9d", Cut: "9c", Crib: true, Played: true, Points: 8},
	}))

	assoc, err := r.resolveAssociation(ctx, gh.ID)
	require.NoError(t, err)
	snap := assoc.Game.Describe()
	assert.Equal(t, "bob", snap.Dealer, "dealer rotates off the last counted crib owner")
	assert.Equal(t, "crib", snap.Phase)
	for _, p := range snap.Players {
		assert.Equal(t, 6, p.CardsHeld)
	}
}

func TestRejoinChecksParticipationAndCompletion(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID := seedInterruptedGame(t, r, store)

	_, err := r.Join(ctx, "carol", ghID)
	require.ErrorIs(t, err, ErrNotAParticipant)

	res, err := r.Join(ctx, "alice", ghID)
	require.NoError(t, err)
	assert.Equal(t, ghID, res.GameHistoryID)
	assert.Equal(t, ghID, r.players["alice"])

	// One player, one game at a time.
	_, err = r.Join(ctx, "alice", 0)
	require.ErrorIs(t, err, ErrPlayerBusy)

	require.NoError(t, store.EndGameHistory(ctx, ghID))
	_, err = r.Join(ctx, "bob", ghID)
	require.ErrorIs(t, err, ErrGameFinished)
}

func TestUnfinishedGamesLists(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	ghID := seedInterruptedGame(t, r, store)

	res, err := r.UnfinishedGames(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "can rejoin")

	require.NoError(t, store.EndGameHistory(ctx, ghID))
	res, err = r.UnfinishedGames(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "no unfinished games")

	res, err = r.UnfinishedGames(ctx, "nobody")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "no games on record")
}

func TestLeaveGameUnmapsPlayer(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	ghID, _ := beginTwoPlayerGame(t, r)

	res, err := r.LeaveGame(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.NotContains(t, r.players, "alice")
	assert.Contains(t, r.games, ghID, "game stays live for the remaining player")

	_, err = r.LeaveGame(ctx, "bob")
	require.NoError(t, err)
	assert.NotContains(t, r.games, ghID, "last leaver evicts the live object")

	// Both can rejoin by number; the game recreates from history.
	_, err = r.Join(ctx, "alice", ghID)
	require.NoError(t, err)
}

func TestDescribeLobbyAndGame(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Describe(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	assert.False(t, res.Snapshot.Begun)

	ghID, _ := beginTwoPlayerGame(t, r)
	res, err = r.Describe(ctx, ghID)
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "crib", res.Snapshot.Phase)

	_, err = r.Describe(ctx, 99999)
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestShowHand(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, assoc := beginTwoPlayerGame(t, r)

	res, err := r.ShowHand(ctx, "alice")
	require.NoError(t, err)
	want := models.EncodeHand(assoc.Game.PlayerByName("alice").Hand.Items())
	assert.Contains(t, res.Message, want)

	_, err = r.ShowHand(ctx, "carol")
	require.ErrorIs(t, err, ErrPlayerNotInGame)
}

func TestResetDropsLiveGames(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	ghID, _ := beginTwoPlayerGame(t, r)

	res, err := r.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, r.games)
	assert.Empty(t, r.players)

	// History survives a reset; the game is still rejoinable.
	_, err = r.Join(ctx, "alice", ghID)
	require.NoError(t, err)
}

func mustEngineCards(t *testing.T, text string) []engine.Card {
	t.Helper()
	cards, err := engine.ParseCards(text)
	require.NoError(t, err)
	return cards
}
