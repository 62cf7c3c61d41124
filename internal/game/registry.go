package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegboard/cribbage/engine"
	"github.com/pegboard/cribbage/internal/cache"
	"github.com/pegboard/cribbage/internal/models"
)

// GameName is the game definition row every history hangs off.
const GameName = "cribbage"

// Session errors. Rule violations come from the engine; these cover the
// registry's own bookkeeping.
var (
	ErrPlayerNotInGame = errors.New("player is not in a game")
	ErrPlayerBusy      = errors.New("player is already in a game")
	ErrGameNotFound    = errors.New("game not found")
	ErrNotAParticipant = errors.New("player is not part of that game")
	ErrGameFinished    = errors.New("game is already finished")
	ErrNotInLobby      = errors.New("player is not in the lobby")
	ErrEmptyPlayerName = errors.New("player name must not be empty")
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result is what every command verb returns to the gateway: a status, a
// human-readable message, and, where relevant, the live game snapshot.
type Result struct {
	Status        string              `json:"status"`
	Message       string              `json:"message"`
	GameHistoryID int64               `json:"gameHistoryId,omitempty"`
	Snapshot      *engine.Description `json:"snapshot,omitempty"`
}

// NotifyFn delivers asynchronous follow-up messages for a game after the
// synchronous acknowledgment has gone out.
type NotifyFn func(gameHistoryID int64, message string, snapshot *engine.Description)

// Association binds a persisted game history to its live game object and
// roster. All mutation of the game goes through mu.
type Association struct {
	GameHistoryID int64
	Game          *engine.Game
	PlayerIDs     map[string]int64 // player name -> player row ID

	mu          sync.Mutex
	actionIndex int
}

// Registry is the session authority: player -> game-history resolution, the
// live association table, and the single shared lobby accepting joiners.
type Registry struct {
	store  Store
	gameID int64
	notify NotifyFn
	seed   func() uint64

	mu      sync.RWMutex
	players map[string]int64
	games   map[int64]*Association

	// lobbyMu serializes lobby membership and the begin-game transition.
	lobbyMu      sync.Mutex
	lobby        *engine.Game
	lobbyPlayers map[string]int64
}

// NewRegistry ensures the game definition row exists and opens an empty
// lobby.
func NewRegistry(ctx context.Context, store Store, notify NotifyFn) (*Registry, error) {
	r := &Registry{
		store:        store,
		notify:       notify,
		seed:         func() uint64 { return uint64(time.Now().UnixNano()) },
		players:      make(map[string]int64),
		games:        make(map[int64]*Association),
		lobbyPlayers: make(map[string]int64),
	}
	def, err := store.FindGameByName(ctx, GameName)
	if errors.Is(err, ErrNotFound) {
		def, err = store.CreateGame(ctx, GameName)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure game definition: %w", err)
	}
	r.gameID = def.ID
	r.lobby = engine.NewGame(r.seed())
	return r, nil
}

func fail(msg string, err error) (Result, error) {
	return Result{Status: StatusError, Message: msg}, err
}

// ---------------------------------------------------------------------------
// Command verbs
// ---------------------------------------------------------------------------

// Join seats a player. gameHistoryID 0 means the shared lobby; a nonzero ID
// rejoins a previously-unfinished game the player participated in,
// recreating it from history when it is not resident.
func (r *Registry) Join(ctx context.Context, player string, gameHistoryID int64) (Result, error) {
	if strings.TrimSpace(player) == "" {
		return fail("A player name is required.", ErrEmptyPlayerName)
	}

	r.mu.RLock()
	current, busy := r.players[player]
	r.mu.RUnlock()
	if busy {
		if current == gameHistoryID {
			return fail(fmt.Sprintf("%s is already in game %d.", player, current), ErrPlayerBusy)
		}
		return fail(fmt.Sprintf("%s is already in game %d. Leave it before joining another.", player, current), ErrPlayerBusy)
	}

	rec, err := r.ensurePlayer(ctx, player)
	if err != nil {
		return fail("Could not look up the player record.", err)
	}

	if gameHistoryID == 0 {
		return r.joinLobby(player, rec.ID)
	}
	return r.rejoin(ctx, player, rec.ID, gameHistoryID)
}

func (r *Registry) joinLobby(player string, playerID int64) (Result, error) {
	r.lobbyMu.Lock()
	defer r.lobbyMu.Unlock()
	if err := r.lobby.AddPlayer(player); err != nil {
		return fail(fmt.Sprintf("%s is already waiting in the lobby.", player), err)
	}
	r.lobbyPlayers[player] = playerID
	n := len(r.lobby.Players)
	msg := fmt.Sprintf("%s joined the lobby (%d waiting).", player, n)
	if n >= 2 {
		msg += " Any joined player may begin the game."
	}
	return Result{Status: StatusOK, Message: msg}, nil
}

func (r *Registry) rejoin(ctx context.Context, player string, playerID, gameHistoryID int64) (Result, error) {
	if _, err := r.store.FindAssociation(ctx, playerID, gameHistoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(fmt.Sprintf("%s never played in game %d.", player, gameHistoryID), ErrNotAParticipant)
		}
		return fail("Could not verify game participation.", err)
	}
	gh, err := r.store.FindGameHistory(ctx, gameHistoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(fmt.Sprintf("Game %d does not exist.", gameHistoryID), ErrGameNotFound)
		}
		return fail("Could not load the game record.", err)
	}
	if gh.Finished {
		return fail(fmt.Sprintf("Game %d is already finished.", gameHistoryID), ErrGameFinished)
	}

	assoc, err := r.resolveAssociation(ctx, gameHistoryID)
	if err != nil {
		return fail(fmt.Sprintf("Could not restore game %d: %v", gameHistoryID, err), err)
	}

	r.mu.Lock()
	if _, busy := r.players[player]; busy {
		r.mu.Unlock()
		return fail(fmt.Sprintf("%s is already in a game.", player), ErrPlayerBusy)
	}
	r.players[player] = gameHistoryID
	r.mu.Unlock()

	assoc.mu.Lock()
	snap := assoc.Game.Describe()
	r.logAction(assoc, player, "player_rejoin", nil)
	assoc.mu.Unlock()

	return Result{
		Status:        StatusOK,
		Message:       fmt.Sprintf("%s rejoined game %d. %s to act.", player, gameHistoryID, snap.NextPlayer),
		GameHistoryID: gameHistoryID,
		Snapshot:      &snap,
	}, nil
}

// Begin turns the lobby into a live game. The history row and the roster are
// persisted as a unit before the registry registers anything; a persistence
// failure leaves the lobby untouched and no partial association behind. Only
// one begin transition runs at a time.
func (r *Registry) Begin(ctx context.Context, player string) (Result, error) {
	r.lobbyMu.Lock()
	defer r.lobbyMu.Unlock()

	if !r.lobby.HasPlayer(player) {
		return fail(fmt.Sprintf("%s is not in the lobby. Join first, then begin.", player), ErrNotInLobby)
	}
	if len(r.lobby.Players) < 2 {
		return fail("At least two players are needed to begin.", engine.ErrNotEnoughPlayers)
	}

	gh, err := r.store.CreateGameHistory(ctx, r.gameID)
	if err != nil {
		return fail("Could not create the game record.", err)
	}
	names := r.lobby.PlayerNames()
	ids := make([]int64, len(names))
	for i, name := range names {
		ids[i] = r.lobbyPlayers[name]
	}
	if err := r.store.CreateAssociations(ctx, ids, gh.ID); err != nil {
		return fail("Could not record the players for the new game.", err)
	}

	if err := r.lobby.Begin(); err != nil {
		return fail("Could not deal the first round.", err)
	}

	assoc := &Association{
		GameHistoryID: gh.ID,
		Game:          r.lobby,
		PlayerIDs:     r.lobbyPlayers,
	}
	r.mu.Lock()
	r.games[gh.ID] = assoc
	for name := range assoc.PlayerIDs {
		r.players[name] = gh.ID
	}
	r.mu.Unlock()

	// Fresh lobby for the next table.
	r.lobby = engine.NewGame(r.seed())
	r.lobbyPlayers = make(map[string]int64)

	assoc.mu.Lock()
	snap := assoc.Game.Describe()
	r.logAction(assoc, player, "game_begin", map[string]interface{}{"players": names})
	assoc.mu.Unlock()

	msg := fmt.Sprintf("Game %d has begun. %s deals; everyone throw to %s's crib.", gh.ID, snap.Dealer, snap.Dealer)
	r.notifyAsync(gh.ID, msg, &snap)
	return Result{Status: StatusOK, Message: msg, GameHistoryID: gh.ID, Snapshot: &snap}, nil
}

// Throw moves a player's discards to the crib. When the contribution seals
// the crib, the round's kept hands and the crib are persisted (best effort)
// and the table is notified of the cut.
func (r *Registry) Throw(ctx context.Context, player, cardText string) (Result, error) {
	cards, err := engine.ParseCards(cardText)
	if err != nil {
		return fail(fmt.Sprintf("Could not read those cards: %v", err), err)
	}
	assoc, err := r.assocFor(player)
	if err != nil {
		return fail(sessionMessage(player, err), err)
	}

	assoc.mu.Lock()
	sealed, err := assoc.Game.GiveToKitty(player, cards)
	if err != nil {
		assoc.mu.Unlock()
		return fail(ruleMessage(player, err), err)
	}
	snap := assoc.Game.Describe()
	var rows []models.HandHistory
	if sealed {
		rows = r.roundRows(assoc)
	}
	r.logAction(assoc, player, "throw", map[string]interface{}{"count": len(cards), "sealed": sealed})
	assoc.mu.Unlock()

	if sealed {
		go r.persistRound(assoc.GameHistoryID, rows)
		r.notifyAsync(assoc.GameHistoryID,
			fmt.Sprintf("The crib is complete. The cut is %s; %s leads the pegging.", snap.Cut, snap.NextPlayer),
			&snap)
		return Result{
			Status:        StatusOK,
			Message:       fmt.Sprintf("%s threw %d to the crib, sealing it.", player, len(cards)),
			GameHistoryID: assoc.GameHistoryID,
			Snapshot:      &snap,
		}, nil
	}
	return Result{
		Status:        StatusOK,
		Message:       fmt.Sprintf("%s threw %d to the crib. Waiting on the rest of the table.", player, len(cards)),
		GameHistoryID: assoc.GameHistoryID,
		Snapshot:      &snap,
	}, nil
}

// roundRows snapshots the sealed round for persistence: one row per kept
// hand plus the crib row carrying the cut. Caller holds assoc.mu.
func (r *Registry) roundRows(assoc *Association) []models.HandHistory {
	g := assoc.Game
	cut := g.Cut.String()
	rows := make([]models.HandHistory, 0, len(g.Players)+1)
	for _, p := range g.Players {
		rows = append(rows, models.HandHistory{
			PlayerID:      assoc.PlayerIDs[p.Name],
			GameHistoryID: assoc.GameHistoryID,
			Hand:          models.EncodeHand(p.Hand.Items()),
			Cut:           cut,
			Points:        p.Points,
		})
	}
	dealer := g.Players[g.Dealer]
	rows = append(rows, models.HandHistory{
		PlayerID:      assoc.PlayerIDs[dealer.Name],
		GameHistoryID: assoc.GameHistoryID,
		Hand:          models.EncodeHand(g.Crib.Items()),
		Cut:           cut,
		Crib:          true,
		Points:        dealer.Points,
	})
	return rows
}

// PlayCard plays one card onto the pegging sequence and propagates round and
// game resolution: round counting marks the persisted round played, a win
// closes the history and records win/loss, both best effort after the ack.
func (r *Registry) PlayCard(ctx context.Context, player, cardText string) (Result, error) {
	card, err := engine.ParseCard(cardText)
	if err != nil {
		return fail(fmt.Sprintf("Could not read that card: %v", err), err)
	}
	assoc, err := r.assocFor(player)
	if err != nil {
		return fail(sessionMessage(player, err), err)
	}

	assoc.mu.Lock()
	pr, err := assoc.Game.PlayCard(player, card)
	if err != nil {
		assoc.mu.Unlock()
		return fail(ruleMessage(player, err), err)
	}
	snap := assoc.Game.Describe()
	r.logAction(assoc, player, "play_card", map[string]interface{}{
		"card": card.String(), "points": pr.Points, "count": snap.Count,
	})
	outcome := r.resolveOutcome(assoc, pr)
	assoc.mu.Unlock()

	msg := playMessage(player, card, pr, snap)
	r.afterMutation(assoc, outcome, msg, &snap)
	return Result{Status: StatusOK, Message: msg, GameHistoryID: assoc.GameHistoryID, Snapshot: &snap}, nil
}

// Go records that the player cannot stay under 31.
func (r *Registry) Go(ctx context.Context, player string) (Result, error) {
	assoc, err := r.assocFor(player)
	if err != nil {
		return fail(sessionMessage(player, err), err)
	}

	assoc.mu.Lock()
	pr, err := assoc.Game.Go(player)
	if err != nil {
		assoc.mu.Unlock()
		return fail(ruleMessage(player, err), err)
	}
	snap := assoc.Game.Describe()
	r.logAction(assoc, player, "go", map[string]interface{}{"goPointTo": pr.GoPointTo})
	outcome := r.resolveOutcome(assoc, pr)
	assoc.mu.Unlock()

	var msg string
	switch {
	case pr.GoPointTo != "":
		msg = fmt.Sprintf("%s says go. %s takes the go point; %s leads the next sequence.", player, pr.GoPointTo, snap.NextPlayer)
	default:
		msg = fmt.Sprintf("%s says go. Waiting on %s.", player, snap.NextPlayer)
	}
	if pr.GameOver {
		msg = fmt.Sprintf("%s says go. %s takes the go point and wins the game!", player, pr.GoPointTo)
	}
	r.afterMutation(assoc, outcome, msg, &snap)
	return Result{Status: StatusOK, Message: msg, GameHistoryID: assoc.GameHistoryID, Snapshot: &snap}, nil
}

// ShowHand reports the acting player's current hand.
func (r *Registry) ShowHand(ctx context.Context, player string) (Result, error) {
	assoc, err := r.assocFor(player)
	if err != nil {
		return fail(sessionMessage(player, err), err)
	}
	assoc.mu.Lock()
	defer assoc.mu.Unlock()
	p := assoc.Game.PlayerByName(player)
	if p == nil {
		return fail(fmt.Sprintf("%s is not seated in game %d.", player, assoc.GameHistoryID), engine.ErrUnknownPlayer)
	}
	hand := models.EncodeHand(p.Hand.Items())
	if hand == "" {
		hand = "(no cards)"
	}
	return Result{
		Status:        StatusOK,
		Message:       fmt.Sprintf("%s holds: %s", player, hand),
		GameHistoryID: assoc.GameHistoryID,
	}, nil
}

// Describe returns a read-only snapshot: the lobby when gameHistoryID is 0,
// otherwise the named game (recreated if needed). Never mutates game state.
func (r *Registry) Describe(ctx context.Context, gameHistoryID int64) (Result, error) {
	if gameHistoryID == 0 {
		r.lobbyMu.Lock()
		snap := r.lobby.Describe()
		r.lobbyMu.Unlock()
		return Result{
			Status:   StatusOK,
			Message:  fmt.Sprintf("Lobby: %d waiting.", len(snap.Players)),
			Snapshot: &snap,
		}, nil
	}
	assoc, err := r.resolveAssociation(ctx, gameHistoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(fmt.Sprintf("Game %d does not exist.", gameHistoryID), ErrGameNotFound)
		}
		return fail(fmt.Sprintf("Could not load game %d: %v", gameHistoryID, err), err)
	}
	assoc.mu.Lock()
	snap := assoc.Game.Describe()
	assoc.mu.Unlock()
	return Result{
		Status:        StatusOK,
		Message:       fmt.Sprintf("Game %d: %s phase, %s to act.", gameHistoryID, snap.Phase, snap.NextPlayer),
		GameHistoryID: gameHistoryID,
		Snapshot:      &snap,
	}, nil
}

// CurrentGame reports which game the player is in.
func (r *Registry) CurrentGame(ctx context.Context, player string) (Result, error) {
	assoc, err := r.assocFor(player)
	if err != nil {
		return fail(sessionMessage(player, err), err)
	}
	assoc.mu.Lock()
	snap := assoc.Game.Describe()
	assoc.mu.Unlock()
	return Result{
		Status:        StatusOK,
		Message:       fmt.Sprintf("%s is in game %d (%s phase).", player, assoc.GameHistoryID, snap.Phase),
		GameHistoryID: assoc.GameHistoryID,
		Snapshot:      &snap,
	}, nil
}

// UnfinishedGames lists the histories a player can rejoin.
func (r *Registry) UnfinishedGames(ctx context.Context, player string) (Result, error) {
	rec, err := r.store.FindPlayerByName(ctx, player)
	if errors.Is(err, ErrNotFound) {
		return Result{Status: StatusOK, Message: fmt.Sprintf("%s has no games on record.", player)}, nil
	}
	if err != nil {
		return fail("Could not look up the player record.", err)
	}
	ids, err := r.store.FindUnfinished(ctx, rec.ID)
	if err != nil {
		return fail("Could not load unfinished games.", err)
	}
	if len(ids) == 0 {
		return Result{Status: StatusOK, Message: fmt.Sprintf("%s has no unfinished games.", player)}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return Result{
		Status:  StatusOK,
		Message: fmt.Sprintf("%s can rejoin: %s.", player, strings.Join(parts, ", ")),
	}, nil
}

// Record reports a player's lifetime win/loss record.
func (r *Registry) Record(ctx context.Context, player string) (Result, error) {
	rec, err := r.store.GetWinLoss(ctx, player)
	if err != nil {
		return fail("Could not load the win/loss record.", err)
	}
	return Result{
		Status:  StatusOK,
		Message: fmt.Sprintf("%s: %d wins, %d losses.", player, rec.Wins, rec.Losses),
	}, nil
}

// LeaveGame detaches a player from the lobby or their live game. A live game
// survives for the remaining players and stays rejoinable by its number.
func (r *Registry) LeaveGame(ctx context.Context, player string) (Result, error) {
	r.lobbyMu.Lock()
	if r.lobby.HasPlayer(player) {
		_ = r.lobby.RemovePlayer(player)
		delete(r.lobbyPlayers, player)
		r.lobbyMu.Unlock()
		return Result{Status: StatusOK, Message: fmt.Sprintf("%s left the lobby.", player)}, nil
	}
	r.lobbyMu.Unlock()

	r.mu.Lock()
	ghID, in := r.players[player]
	if !in {
		r.mu.Unlock()
		return fail(sessionMessage(player, ErrPlayerNotInGame), ErrPlayerNotInGame)
	}
	delete(r.players, player)
	attached := 0
	for _, id := range r.players {
		if id == ghID {
			attached++
		}
	}
	if attached == 0 {
		// Nobody left attached; evict the live object. History remains.
		delete(r.games, ghID)
	}
	r.mu.Unlock()
	return Result{
		Status:  StatusOK,
		Message: fmt.Sprintf("%s left game %d. Rejoin it any time by number.", player, ghID),
	}, nil
}

// Reset drops every live association and opens a fresh lobby. The caller has
// already verified the admin secret. Persisted history is untouched, so
// unfinished games remain rejoinable.
func (r *Registry) Reset(ctx context.Context) (Result, error) {
	r.mu.Lock()
	n := len(r.games)
	r.players = make(map[string]int64)
	r.games = make(map[int64]*Association)
	r.mu.Unlock()

	r.lobbyMu.Lock()
	r.lobby = engine.NewGame(r.seed())
	r.lobbyPlayers = make(map[string]int64)
	r.lobbyMu.Unlock()

	logrus.WithField("dropped", n).Warn("registry: reset")
	return Result{Status: StatusOK, Message: fmt.Sprintf("Reset complete. %d live games dropped.", n)}, nil
}

// ---------------------------------------------------------------------------
// Resolution and persistence plumbing
// ---------------------------------------------------------------------------

func (r *Registry) ensurePlayer(ctx context.Context, name string) (models.Player, error) {
	p, err := r.store.FindPlayerByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return r.store.CreatePlayer(ctx, name)
	}
	return p, err
}

// assocFor resolves the acting player to their resident association.
func (r *Registry) assocFor(player string) (*Association, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ghID, in := r.players[player]
	if !in {
		return nil, ErrPlayerNotInGame
	}
	assoc, live := r.games[ghID]
	if !live {
		return nil, fmt.Errorf("game history %d: %w", ghID, ErrGameNotFound)
	}
	return assoc, nil
}

// outcome carries the post-command persistence work out of the lock.
type outcome struct {
	roundPoints map[int64]int // totals to stamp on the round rows
	winners     map[int64]bool
	playerIDs   []int64
	gameOver    bool
	roundOver   bool
	winnerNames []string
}

// resolveOutcome translates an engine PlayResult into persistence work.
// Caller holds assoc.mu.
func (r *Registry) resolveOutcome(assoc *Association, pr engine.PlayResult) outcome {
	var out outcome
	if !pr.RoundOver && !pr.GameOver {
		return out
	}
	out.roundOver = pr.RoundOver
	out.gameOver = pr.GameOver
	out.roundPoints = make(map[int64]int, len(assoc.Game.Players))
	for _, p := range assoc.Game.Players {
		out.roundPoints[assoc.PlayerIDs[p.Name]] = p.Points
	}
	if pr.GameOver {
		out.winners = make(map[int64]bool)
		for name, id := range assoc.PlayerIDs {
			out.playerIDs = append(out.playerIDs, id)
			p := assoc.Game.PlayerByName(name)
			if p != nil && p.Team == pr.WinningTeam {
				out.winners[id] = true
				out.winnerNames = append(out.winnerNames, name)
			}
		}
	}
	return out
}

// afterMutation runs the best-effort side of a command: action logging has
// already happened under the lock; here the round close, win recording, and
// follow-up notification go out without blocking the ack.
func (r *Registry) afterMutation(assoc *Association, out outcome, msg string, snap *engine.Description) {
	ghID := assoc.GameHistoryID
	if out.roundOver || out.gameOver {
		go r.closeRound(ghID, out.roundPoints)
	}
	if out.gameOver {
		go r.recordWin(ghID, out.playerIDs, out.winners)
		r.dropAssociation(ghID)
	}
	r.notifyAsync(ghID, msg, snap)
}

// closeRound marks the persisted round played and stamps final totals.
func (r *Registry) closeRound(ghID int64, points map[int64]int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.MarkRoundPlayed(ctx, ghID, points); err != nil {
		logrus.WithError(err).WithField("gameHistoryId", ghID).Error("registry: mark round played failed")
	}
}

// recordWin closes the history and records each player's result.
func (r *Registry) recordWin(ghID int64, playerIDs []int64, won map[int64]bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.EndGameHistory(ctx, ghID); err != nil {
		logrus.WithError(err).WithField("gameHistoryId", ghID).Error("registry: end game history failed")
	}
	if err := r.store.BulkCreateWinLoss(ctx, playerIDs, ghID, won); err != nil {
		logrus.WithError(err).WithField("gameHistoryId", ghID).Error("registry: win/loss recording failed")
	}
}

// persistRound writes the sealed round's hand rows.
func (r *Registry) persistRound(ghID int64, rows []models.HandHistory) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.BulkCreateHandHistories(ctx, rows); err != nil {
		logrus.WithError(err).WithField("gameHistoryId", ghID).Error("registry: hand history recording failed")
	}
}

// dropAssociation removes a finished game and unmaps its players.
func (r *Registry) dropAssociation(ghID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, ghID)
	for name, id := range r.players {
		if id == ghID {
			delete(r.players, name)
		}
	}
}

// logAction queues an audit record for the historian. Best effort: a missing
// Redis client or a publish failure never affects the command. Caller holds
// assoc.mu.
func (r *Registry) logAction(assoc *Association, player, actionType string, payload map[string]interface{}) {
	assoc.actionIndex++
	rec := cache.ActionRecord{
		GameHistoryID: assoc.GameHistoryID,
		ActionIndex:   assoc.actionIndex,
		PlayerName:    player,
		ActionType:    actionType,
		Payload:       payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishAction(ctx, rec); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"gameHistoryId": rec.GameHistoryID,
				"actionIndex":   rec.ActionIndex,
			}).Error("registry: action publish failed")
		}
	}()
}

func (r *Registry) notifyAsync(ghID int64, msg string, snap *engine.Description) {
	if r.notify == nil {
		return
	}
	go r.notify(ghID, msg, snap)
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func playMessage(player string, card engine.Card, pr engine.PlayResult, snap engine.Description) string {
	switch {
	case pr.GameOver:
		return fmt.Sprintf("%s plays %s for %d and wins the game!", player, card, pr.Points)
	case pr.RoundOver:
		return fmt.Sprintf("%s plays %s. The round is counted; %s deals the next one.", player, card, snap.Dealer)
	case pr.SequenceReset:
		return fmt.Sprintf("%s plays %s for %d. Thirty-one; the count resets and %s leads.", player, card, pr.Points, snap.NextPlayer)
	case pr.Points > 0:
		return fmt.Sprintf("%s plays %s for %d. Count is %d; %s to act.", player, card, pr.Points, snap.Count, snap.NextPlayer)
	default:
		return fmt.Sprintf("%s plays %s. Count is %d; %s to act.", player, card, snap.Count, snap.NextPlayer)
	}
}

func sessionMessage(player string, err error) string {
	switch {
	case errors.Is(err, ErrPlayerNotInGame):
		return fmt.Sprintf("%s is not in a game. Join the lobby first.", player)
	case errors.Is(err, ErrGameNotFound):
		return fmt.Sprintf("%s's game is no longer live. Rejoin it by number.", player)
	default:
		return err.Error()
	}
}

func ruleMessage(player string, err error) string {
	switch {
	case errors.Is(err, engine.ErrNotNextPlayer):
		return fmt.Sprintf("Hold on, %s: %v.", player, err)
	case errors.Is(err, engine.ErrPlayerDoesNotHaveCard):
		return fmt.Sprintf("%s does not hold that card.", player)
	case errors.Is(err, engine.ErrExceedsThirtyOne):
		return "That card would push the count past 31. Play another or say go."
	case errors.Is(err, engine.ErrHasLegalPlay):
		return fmt.Sprintf("%s can still play a card and may not say go.", player)
	case errors.Is(err, engine.ErrKittyNotReady):
		return "The crib is not taking cards right now."
	case errors.Is(err, engine.ErrAlreadyDiscarded):
		return fmt.Sprintf("%s already threw to the crib this round.", player)
	case errors.Is(err, engine.ErrWrongDiscardCount):
		return fmt.Sprintf("Wrong number of cards: %v.", err)
	case errors.Is(err, engine.ErrGameOver):
		return "The game is over."
	default:
		return err.Error()
	}
}
