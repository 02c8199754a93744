package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/powellquiring/wordleplayer/batch"
	"github.com/powellquiring/wordleplayer/store"
	"github.com/powellquiring/wordleplayer/wordle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var corpus = []string{"cigar", "rebut", "sissy", "humph", "awake", "blush", "focal", "evade", "naval", "serve"}

func testServer(t *testing.T, runs *store.Store) *Server {
	t.Helper()
	d, err := wordle.NewDictionary(corpus, []string{"raise", "crane", "slate"})
	require.NoError(t, err)
	solver, err := wordle.NewSolver(d)
	require.NoError(t, err)
	return New(solver, Options{Runs: runs, Logger: zerolog.Nop()})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret), w.Body.String())
	return ret
}

func TestHealth(t *testing.T) {
	w := do(t, testServer(t, nil), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, float64(len(corpus)), body["solutions"])
	assert.Equal(t, "entropy", body["strategy"])
}

func TestPuzzle(t *testing.T) {
	s := testServer(t, nil)
	w := do(t, s, http.MethodGet, "/puzzles/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, puzzleRes{Number: 3, Date: "2021-06-22"}, decodeBody[puzzleRes](t, w))

	s.now = func() time.Time { return time.Date(2021, 6, 24, 15, 0, 0, 0, time.UTC) }
	w = do(t, s, http.MethodGet, "/puzzles/today", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decodeBody[puzzleRes](t, w).Number)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/puzzles/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/puzzles/soon", nil).Code)
}

func TestCheck(t *testing.T) {
	s := testServer(t, nil)
	w := do(t, s, http.MethodPost, "/puzzles/0/check", guessReq{Guess: "RAISE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "yyyrr", decodeBody[turnJSON](t, w).Feedback)

	w = do(t, s, http.MethodPost, "/puzzles/0/check", guessReq{Guess: "zzzzz"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_guess", decodeBody[errorRes](t, w).Error)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/puzzles/42/check", guessReq{Guess: "raise"}).Code)
}

func TestRefereedGame(t *testing.T) {
	s := testServer(t, nil)
	w := do(t, s, http.MethodPost, "/games", newGameReq{Number: new(int)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decodeBody[gameRes](t, w)
	require.NotEmpty(t, game.ID)
	assert.Equal(t, wordle.AwaitingGuess.String(), game.State)
	assert.Empty(t, game.Target, "target is hidden while playing")

	for !(game.State == wordle.Solved.String() || game.State == wordle.Failed.String()) {
		w = do(t, s, http.MethodGet, "/games/"+game.ID+"/hint", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		hint := decodeBody[hintRes](t, w)
		assert.LessOrEqual(t, len(hint.Words), maxHintWords)

		w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: hint.Guess})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		game = decodeBody[gameRes](t, w)
	}
	assert.Equal(t, wordle.Solved.String(), game.State)
	assert.Equal(t, "cigar", game.Target)
	assert.Equal(t, "ggggg", game.History[len(game.History)-1].Feedback)

	w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "raise"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "wrong_state", decodeBody[errorRes](t, w).Error)

	w = do(t, s, http.MethodGet, "/games/"+game.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game, decodeBody[gameRes](t, w))
}

func TestAssistedGame(t *testing.T) {
	s := testServer(t, nil)
	w := do(t, s, http.MethodPost, "/games", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decodeBody[gameRes](t, w)
	assert.Nil(t, game.Number)

	w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "raise"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "feedback is required without a puzzle")

	w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "raise", Feedback: "yyyrr"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	game = decodeBody[gameRes](t, w)
	assert.Equal(t, 1, game.Candidates)
	assert.Equal(t, []turnJSON{{Guess: "raise", Feedback: "yyyrr", Remaining: 1}}, game.History)

	w = do(t, s, http.MethodGet, "/games/"+game.ID+"/hint", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, hintRes{Guess: "cigar", Candidates: 1, Words: []string{"cigar"}}, decodeBody[hintRes](t, w))

	w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "cigar", Feedback: "ggggg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, wordle.Solved.String(), decodeBody[gameRes](t, w).State)
}

func TestAssistedGameRetryAfterInconsistentFeedback(t *testing.T) {
	s := testServer(t, nil)
	game := decodeBody[gameRes](t, do(t, s, http.MethodPost, "/games", nil))

	w := do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "raise", Feedback: "ggggr"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "inconsistent", decodeBody[errorRes](t, w).Error)

	w = do(t, s, http.MethodGet, "/games/"+game.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	game = decodeBody[gameRes](t, w)
	assert.Equal(t, wordle.AwaitingGuess.String(), game.State)
	assert.Equal(t, 0, game.Turn)
	assert.Empty(t, game.History)

	w = do(t, s, http.MethodPost, "/games/"+game.ID+"/guess", guessReq{Guess: "raise", Feedback: "yyyrr"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	game = decodeBody[gameRes](t, w)
	assert.Equal(t, 1, game.Turn)
	assert.Equal(t, []turnJSON{{Guess: "raise", Feedback: "yyyrr", Remaining: 1}}, game.History)
}

func TestUnknownGame(t *testing.T) {
	s := testServer(t, nil)
	for _, path := range []string{"/games/nope", "/games/nope/hint"} {
		w := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nothing/here", nil).Code)
}

func TestSolve(t *testing.T) {
	s := testServer(t, nil)
	w := do(t, s, http.MethodPost, "/solve", solveReq{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeBody[solveRes](t, w)
	assert.NotEmpty(t, first.Guess)
	assert.Equal(t, len(corpus), first.Candidates)

	w = do(t, s, http.MethodPost, "/solve", solveReq{History: []turnJSON{{Guess: "raise", Feedback: "yyyrr"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, solveRes{Guess: "cigar", State: wordle.AwaitingGuess.String(), Candidates: 1, Words: []string{"cigar"}}, decodeBody[solveRes](t, w))

	w = do(t, s, http.MethodPost, "/solve", solveReq{History: []turnJSON{{Guess: "raise", Feedback: "ggggr"}}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "inconsistent", decodeBody[errorRes](t, w).Error)

	w = do(t, s, http.MethodPost, "/solve", solveReq{History: []turnJSON{{Guess: "raise", Feedback: "xxxxx"}}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_feedback", decodeBody[errorRes](t, w).Error)

	w = do(t, s, http.MethodPost, "/solve", solveReq{History: []turnJSON{{Guess: "qqqqq", Feedback: "rrrrr"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuns(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, do(t, testServer(t, nil), http.MethodGet, "/runs", nil).Code)

	runs, err := store.Open(filepath.Join(t.TempDir(), "wdl.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })
	s := testServer(t, runs)

	report, err := batch.NewRunner(s.solver, zerolog.Nop()).Run(context.Background(), []int{0, 1, 2})
	require.NoError(t, err)
	id, err := runs.SaveRun(context.Background(), report)
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/runs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decodeBody[[]store.Run](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 3, list[0].Summary.Games)

	w = do(t, s, http.MethodGet, "/runs/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decodeBody[struct {
		Run     store.Run      `json:"run"`
		Results []batch.Result `json:"results"`
	}](t, w)
	assert.Equal(t, "entropy", detail.Run.Strategy)
	require.Len(t, detail.Results, 3)
	assert.Equal(t, "cigar", detail.Results[0].Target)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/runs/missing", nil).Code)
}
