// Package server puts the game loop behind a JSON HTTP API.
//
//	GET  /health
//	GET  /puzzles/{number}            number or "today"
//	POST /puzzles/{number}/check      {"guess"} -> feedback
//	POST /games                       {"number"} refereed, without a number the caller reports feedback
//	GET  /games/{id}
//	POST /games/{id}/guess            {"guess", "feedback"}
//	GET  /games/{id}/hint
//	POST /solve                       {"history": [{"guess", "feedback"}]} -> next guess
//	GET  /runs, GET /runs/{id}        saved batch runs, when a store is configured
package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/powellquiring/wordleplayer/gowordle"
	"github.com/powellquiring/wordleplayer/store"
	"github.com/powellquiring/wordleplayer/wordle"
)

type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxTurns       int
	MaxGames       int           // games kept in memory, 10000 when 0
	GameTTL        time.Duration // idle games are dropped after this, 24h when 0
	Runs           *store.Store  // optional
	Logger         zerolog.Logger
}

type Server struct {
	r        *chi.Mux
	solver   *wordle.Solver
	dict     *wordle.Dictionary
	games    gameStore
	runs     *store.Store
	maxTurns int
	logger   zerolog.Logger
	now      func() time.Time
}

func New(solver *wordle.Solver, opts Options) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		solver:   solver,
		dict:     solver.Dictionary(),
		games:    newMemoryStore(cmp.Or(opts.GameTTL, 24*time.Hour), cmp.Or(opts.MaxGames, 10000)),
		runs:     opts.Runs,
		maxTurns: opts.MaxTurns,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if s.maxTurns < 1 {
		s.maxTurns = wordle.DefaultMaxTurns
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(s.requestLogger)
	s.r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)

	s.r.Get("/health", s.handleHealth)
	s.r.Route("/puzzles/{number}", func(r chi.Router) {
		r.Get("/", s.handlePuzzle)
		r.Post("/check", s.handleCheck)
	})
	s.r.Post("/games", s.handleNewGame)
	s.r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Post("/guess", s.handleGuess)
		r.Get("/hint", s.handleHint)
	})
	s.r.Post("/solve", s.handleSolve)
	if s.runs != nil {
		s.r.Get("/runs", s.handleRuns)
		s.r.Get("/runs/{id}", s.handleRun)
	}
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorRes{Error: "not_found", Message: r.URL.Path})
	})
	return s
}

// Router exposes the router for tests and embedding.
func (s *Server) Router() chi.Router { return s.r }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ------------------------------ payloads -----------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type turnJSON struct {
	Guess     string `json:"guess"`
	Feedback  string `json:"feedback"`
	Remaining int    `json:"remaining,omitempty"`
}

type gameRes struct {
	ID         string     `json:"id"`
	Number     *int       `json:"number,omitempty"`
	State      string     `json:"state"`
	Turn       int        `json:"turn"`
	MaxTurns   int        `json:"maxTurns"`
	Candidates int        `json:"candidates"`
	History    []turnJSON `json:"history"`
	Target     string     `json:"target,omitempty"` // once the game is over
}

type puzzleRes struct {
	Number int    `json:"number"`
	Date   string `json:"date"`
}

type guessReq struct {
	Guess    string `json:"guess"`
	Feedback string `json:"feedback"`
}

type newGameReq struct {
	Number *int `json:"number"`
}

type hintRes struct {
	Guess      string   `json:"guess"`
	Candidates int      `json:"candidates"`
	Words      []string `json:"words"`
}

type solveReq struct {
	History []turnJSON `json:"history"`
}

type solveRes struct {
	Guess      string   `json:"guess,omitempty"`
	State      string   `json:"state"`
	Candidates int      `json:"candidates"`
	Words      []string `json:"words"`
}

const maxHintWords = 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the game errors to a status code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var inconsistency *wordle.InconsistencyError
	switch {
	case errors.Is(err, wordle.ErrInvalidGuess):
		status, code = http.StatusBadRequest, "invalid_guess"
	case errors.Is(err, wordle.ErrInvalidFeedback), errors.Is(err, gowordle.ErrBadFeedback):
		status, code = http.StatusBadRequest, "invalid_feedback"
	case errors.Is(err, errBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, wordle.ErrOutOfRange):
		status, code = http.StatusNotFound, "out_of_range"
	case errors.Is(err, errGameNotFound), errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, wordle.ErrWrongState):
		status, code = http.StatusConflict, "wrong_state"
	case errors.As(err, &inconsistency):
		code = "inconsistent"
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorRes{Error: code, Message: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func history(turns []wordle.Turn) []turnJSON {
	ret := make([]turnJSON, 0, len(turns))
	for _, turn := range turns {
		ret = append(ret, turnJSON{Guess: turn.Guess, Feedback: turn.Feedback.String(), Remaining: turn.Remaining})
	}
	return ret
}

// view must be called with the session locked
func (sess *session) view() gameRes {
	ret := gameRes{
		ID:         sess.id,
		State:      sess.game.State().String(),
		Turn:       sess.game.Turn(),
		MaxTurns:   sess.game.MaxTurns(),
		Candidates: sess.game.CandidateCount(),
		History:    history(sess.game.History()),
	}
	if sess.puzzle != nil {
		ret.Number = &sess.puzzle.Number
		if sess.game.State().Done() {
			ret.Target = sess.puzzle.Target
		}
	}
	return ret
}

// ------------------------------ handlers -----------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"solutions": s.dict.SolutionCount(),
		"guesses":   s.dict.Len(),
		"strategy":  s.solver.Strategy().Name(),
	})
}

func (s *Server) puzzle(r *http.Request) (*wordle.Puzzle, error) {
	param := chi.URLParam(r, "number")
	number := 0
	if param == "today" {
		number = wordle.NumberForDate(s.now())
	} else {
		var err error
		if number, err = strconv.Atoi(param); err != nil {
			return nil, errors.Join(errBadRequest, err)
		}
	}
	return s.dict.Puzzle(number)
}

func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	p, err := s.puzzle(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, puzzleRes{Number: p.Number, Date: p.Date().Format(time.DateOnly)})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	p, err := s.puzzle(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req guessReq
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	feedback, err := p.Check(req.Guess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnJSON{Guess: req.Guess, Feedback: feedback.String()})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// an empty body starts an assisted game
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, err)
		return
	}
	sess := &session{
		id:   uuid.NewString(),
		game: wordle.NewGame(s.solver, wordle.WithMaxTurns(s.maxTurns)),
	}
	if req.Number != nil {
		p, err := s.dict.Puzzle(*req.Number)
		if err != nil {
			s.writeError(w, err)
			return
		}
		sess.puzzle = p
	}
	if err := s.games.Save(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info().Str("game", sess.id).Bool("refereed", sess.puzzle != nil).Msg("new game")
	writeJSON(w, http.StatusCreated, sess.view())
}

func (s *Server) session(r *http.Request) (*session, error) {
	return s.games.Get(r.Context(), chi.URLParam(r, "id"))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sess.view())
}

// handleGuess plays a guess.  A refereed game computes the feedback, otherwise the
// feedback must be in the request.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req guessReq
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	var feedback gowordle.Feedback
	if sess.puzzle != nil {
		feedback, err = sess.puzzle.Check(req.Guess)
	} else {
		feedback, err = gowordle.ParseFeedback(req.Feedback)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := sess.game.Apply(req.Guess, feedback); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.view())
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	guess, err := sess.game.Suggest()
	if err != nil {
		s.writeError(w, err)
		return
	}
	words := sess.game.Candidates()
	writeJSON(w, http.StatusOK, hintRes{Guess: guess, Candidates: len(words), Words: words[:min(len(words), maxHintWords)]})
}

// handleSolve replays a history on a fresh game and suggests the next guess.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	game := wordle.NewGame(s.solver, wordle.WithMaxTurns(max(s.maxTurns, len(req.History)+1)))
	for _, turn := range req.History {
		feedback, err := gowordle.ParseFeedback(turn.Feedback)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if _, err := game.Apply(turn.Guess, feedback); err != nil {
			s.writeError(w, err)
			return
		}
	}
	words := game.Candidates()
	res := solveRes{State: game.State().String(), Candidates: len(words), Words: words[:min(len(words), maxHintWords)]}
	if game.State() == wordle.AwaitingGuess {
		guess, err := game.Suggest()
		if err != nil {
			s.writeError(w, err)
			return
		}
		res.Guess = guess
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.Runs(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.runs.Run(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	results, err := s.runs.Results(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "results": results})
}
