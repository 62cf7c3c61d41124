// Package handlers exposes the gateway command surface over HTTP. Each
// command runs its in-memory mutation synchronously and returns a fast
// acknowledgment; persistence and table-wide notifications complete
// asynchronously over the websocket follow-up channel.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pegboard/cribbage/engine"
	"github.com/pegboard/cribbage/internal/game"
)

// maxBodyBytes bounds command request bodies; commands are tiny.
const maxBodyBytes = 4 << 10

// Commander is the slice of the session registry the HTTP layer drives.
type Commander interface {
	Join(ctx context.Context, player string, gameHistoryID int64) (game.Result, error)
	Begin(ctx context.Context, player string) (game.Result, error)
	Reset(ctx context.Context) (game.Result, error)
	Describe(ctx context.Context, gameHistoryID int64) (game.Result, error)
	ShowHand(ctx context.Context, player string) (game.Result, error)
	PlayCard(ctx context.Context, player, cardText string) (game.Result, error)
	Throw(ctx context.Context, player, cardText string) (game.Result, error)
	Go(ctx context.Context, player string) (game.Result, error)
	LeaveGame(ctx context.Context, player string) (game.Result, error)
	UnfinishedGames(ctx context.Context, player string) (game.Result, error)
	CurrentGame(ctx context.Context, player string) (game.Result, error)
	Record(ctx context.Context, player string) (game.Result, error)
}

// Server routes gateway commands to the registry and hosts the follow-up
// websocket hub.
type Server struct {
	commands  Commander
	hub       *Hub
	jwtSecret []byte
	resetHash []byte
}

// NewServer builds the HTTP layer. resetHash is the bcrypt hash the reset
// command compares against; empty disables reset.
func NewServer(commands Commander, hub *Hub, jwtSecret, resetHash []byte) *Server {
	return &Server{
		commands:  commands,
		hub:       hub,
		jwtSecret: jwtSecret,
		resetHash: resetHash,
	}
}

// Routes registers every command route on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /commands/join", s.handleJoin)
	mux.HandleFunc("POST /commands/begin", s.playerCommand(s.commands.Begin))
	mux.HandleFunc("POST /commands/throw", s.cardCommand(s.commands.Throw))
	mux.HandleFunc("POST /commands/play", s.cardCommand(s.commands.PlayCard))
	mux.HandleFunc("POST /commands/go", s.playerCommand(s.commands.Go))
	mux.HandleFunc("POST /commands/show-hand", s.playerCommand(s.commands.ShowHand))
	mux.HandleFunc("POST /commands/leave", s.playerCommand(s.commands.LeaveGame))
	mux.HandleFunc("POST /commands/unfinished", s.playerCommand(s.commands.UnfinishedGames))
	mux.HandleFunc("POST /commands/current", s.playerCommand(s.commands.CurrentGame))
	mux.HandleFunc("POST /commands/record", s.playerCommand(s.commands.Record))
	mux.HandleFunc("POST /commands/describe", s.handleDescribe)
	mux.HandleFunc("POST /commands/reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleSubscribe)
	return mux
}

// commandRequest is the shared request body for command routes.
type commandRequest struct {
	Player        string `json:"player"`
	GameHistoryID int64  `json:"gameHistoryId,omitempty"`
	Cards         string `json:"cards,omitempty"`
	Secret        string `json:"secret,omitempty"`
}

// ack is the fast synchronous acknowledgment every command returns. Results
// beyond it arrive on the follow-up channel.
type ack struct {
	CorrelationID string              `json:"correlationId"`
	Status        string              `json:"status"`
	Message       string              `json:"message"`
	GameHistoryID int64               `json:"gameHistoryId,omitempty"`
	Snapshot      *engine.Description `json:"snapshot,omitempty"`
	ChannelToken  string              `json:"channelToken,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, req *commandRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeAck(w, http.StatusBadRequest, ack{
			CorrelationID: uuid.NewString(),
			Status:        game.StatusError,
			Message:       "Could not read the command body.",
		})
		return false
	}
	return true
}

func writeAck(w http.ResponseWriter, code int, a ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(a); err != nil {
		logrus.WithError(err).Warn("handlers: ack encode failed")
	}
}

func ackFromResult(res game.Result, err error) (int, ack) {
	a := ack{
		CorrelationID: uuid.NewString(),
		Status:        res.Status,
		Message:       res.Message,
		GameHistoryID: res.GameHistoryID,
		Snapshot:      res.Snapshot,
	}
	if err != nil {
		// Command failures are values: the ack reports them with 200-level
		// semantics kept out of the way and the human message intact.
		return http.StatusUnprocessableEntity, a
	}
	return http.StatusOK, a
}

// playerCommand adapts the verbs that take only the acting player.
func (s *Server) playerCommand(verb func(context.Context, string) (game.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if !s.decode(w, r, &req) {
			return
		}
		res, err := verb(r.Context(), req.Player)
		code, a := ackFromResult(res, err)
		writeAck(w, code, a)
	}
}

// cardCommand adapts the verbs that take the player plus card text.
func (s *Server) cardCommand(verb func(context.Context, string, string) (game.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if !s.decode(w, r, &req) {
			return
		}
		res, err := verb(r.Context(), req.Player, req.Cards)
		code, a := ackFromResult(res, err)
		writeAck(w, code, a)
	}
}

// handleJoin runs the join and, on success, mints the follow-up channel
// token the player will subscribe with.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.commands.Join(r.Context(), req.Player, req.GameHistoryID)
	code, a := ackFromResult(res, err)
	if err == nil {
		token, terr := mintChannelToken(s.jwtSecret, req.Player)
		if terr != nil {
			logrus.WithError(terr).Error("handlers: channel token mint failed")
		} else {
			a.ChannelToken = token
		}
	}
	writeAck(w, code, a)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.commands.Describe(r.Context(), req.GameHistoryID)
	code, a := ackFromResult(res, err)
	writeAck(w, code, a)
}

// handleReset verifies the admin secret against the configured bcrypt hash
// before dropping live state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(s.resetHash) == 0 {
		writeAck(w, http.StatusForbidden, ack{
			CorrelationID: uuid.NewString(),
			Status:        game.StatusError,
			Message:       "Reset is not enabled.",
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword(s.resetHash, []byte(req.Secret)); err != nil {
		writeAck(w, http.StatusForbidden, ack{
			CorrelationID: uuid.NewString(),
			Status:        game.StatusError,
			Message:       "Reset secret rejected.",
		})
		return
	}
	res, err := s.commands.Reset(r.Context())
	code, a := ackFromResult(res, err)
	writeAck(w, code, a)
}

// handleSubscribe upgrades to a websocket and attaches the caller to a
// game's follow-up feed. The caller presents the channel token minted at
// join and must currently be in the requested game.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	player, err := verifyChannelToken(s.jwtSecret, r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid channel token", http.StatusUnauthorized)
		return
	}
	ghID, err := strconv.ParseInt(r.URL.Query().Get("game"), 10, 64)
	if err != nil || ghID <= 0 {
		http.Error(w, "a game number is required", http.StatusBadRequest)
		return
	}
	res, err := s.commands.CurrentGame(r.Context(), player)
	if err != nil || res.GameHistoryID != ghID {
		http.Error(w, "not in that game", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("handlers: websocket accept failed")
		return
	}
	s.hub.subscribe(ghID, conn)
	defer s.hub.unsubscribe(ghID, conn)

	// Hold the connection open; subscribers only listen.
	ctx := conn.CloseRead(context.Background())
	<-ctx.Done()
	conn.Close(websocket.StatusNormalClosure, "")
}
