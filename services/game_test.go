package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bughunt/config"
	"bughunt/models"

	"github.com/jonboulle/clockwork"
)

func testConfig() config.Config {
	return config.Config{
		FrontendURL:   "http://localhost:3000",
		MaxPages:      10,
		PointsPerPage: 10,
		BugQuota:      3,
	}
}

type gameFixture struct {
	game   *GameService
	rounds *RoundService
	store  *ProgressStore
	tokens *TokenService
	clock  *clockwork.FakeClock
	team   *models.Team
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()

	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	activity := NewActivityLogger(db)
	store := NewProgressStore(db, 10, activity)
	tokens := NewTokenService("test-secret")
	rounds := NewRoundService(db, clock)
	game := NewGameService(db, store, tokens, rounds, activity, clock, testConfig())

	if err := rounds.EnsureRounds(1, 60); err != nil {
		t.Fatalf("EnsureRounds: %v", err)
	}
	if _, err := rounds.OpenRound(1); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}

	team := createTeam(t, db, "Debuggers")
	return &gameFixture{game: game, rounds: rounds, store: store, tokens: tokens, clock: clock, team: team}
}

func (f *gameFixture) session(t *testing.T) *models.TeamRoundProgress {
	t.Helper()
	round, err := f.rounds.GetByNumber(1)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	var session models.TeamRoundProgress
	if err := f.game.db.Where("team_id = ? AND round_id = ?", f.team.ID, round.ID).First(&session).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	return &session
}

func (f *gameFixture) submit(t *testing.T, page int) (*ValidateResult, error) {
	t.Helper()
	return f.game.ValidatePage(ValidateRequest{
		Token:       f.tokens.Issue(f.team.ID, 1, page),
		TeamID:      f.team.ID,
		RoundNumber: 1,
		PageNumber:  page,
		BugsFixed:   []string{"bug1", "bug2", "bug3"},
	})
}

func TestStartRoundNew(t *testing.T) {
	f := newGameFixture(t)

	result, err := f.game.StartRound(f.team.ID, 1)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	if !result.IsNewStart {
		t.Fatal("fresh session not reported as new start")
	}
	if result.CurrentPage != 1 {
		t.Fatalf("current page = %d, want 1", result.CurrentPage)
	}
	if result.TimeRemaining != 3600 {
		t.Fatalf("time remaining = %d, want 3600", result.TimeRemaining)
	}
	if result.CurrentScore != 0 {
		t.Fatalf("score = %d, want 0", result.CurrentScore)
	}
	if !f.tokens.Verify(result.Token, f.team.ID, 1, 1) {
		t.Fatal("start returned an invalid page token")
	}
	if !strings.Contains(result.PageURL, "round1/page1.html") {
		t.Fatalf("page URL = %q", result.PageURL)
	}
	if !strings.Contains(result.PageURL, "token="+result.Token) {
		t.Fatalf("page URL missing token: %q", result.PageURL)
	}

	session := f.session(t)
	if session.Status != models.StatusInProgress {
		t.Fatalf("session status = %s, want in_progress", session.Status)
	}
	if session.EndTime == nil {
		t.Fatal("deadline not set")
	}
}

func TestStartRoundClosed(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.rounds.CloseRound(1); err != nil {
		t.Fatalf("CloseRound: %v", err)
	}

	if _, err := f.game.StartRound(f.team.ID, 1); !errors.Is(err, ErrRoundClosed) {
		t.Fatalf("expected ErrRoundClosed, got %v", err)
	}
}

func TestStartRoundResumeKeepsTimer(t *testing.T) {
	f := newGameFixture(t)

	first, err := f.game.StartRound(f.team.ID, 1)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	if _, err := f.submit(t, 1); err != nil {
		t.Fatalf("ValidatePage: %v", err)
	}

	f.clock.Advance(10 * time.Minute)

	second, err := f.game.StartRound(f.team.ID, 1)
	if err != nil {
		t.Fatalf("resume StartRound: %v", err)
	}
	if second.IsNewStart {
		t.Fatal("resume reported as new start")
	}
	if second.CurrentPage != 2 {
		t.Fatalf("resumed at page %d, want 2", second.CurrentPage)
	}
	if second.CurrentScore != 10 {
		t.Fatalf("resumed score = %d, want 10", second.CurrentScore)
	}
	if want := first.TimeRemaining - 600; second.TimeRemaining != want {
		t.Fatalf("time remaining = %d, want %d (timer must not reset)", second.TimeRemaining, want)
	}
}

func TestValidatePageCreditsScore(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	result, err := f.submit(t, 1)
	if err != nil {
		t.Fatalf("ValidatePage: %v", err)
	}
	if result.RoundCompleted {
		t.Fatal("page 1 reported round completed")
	}
	if result.CurrentScore != 10 {
		t.Fatalf("score = %d, want 10", result.CurrentScore)
	}
	if result.PagesCompleted != 1 || result.TotalPages != 10 {
		t.Fatalf("progress = %d/%d, want 1/10", result.PagesCompleted, result.TotalPages)
	}
	if !strings.Contains(result.NextPageURL, "round1/page2.html") {
		t.Fatalf("next page URL = %q", result.NextPageURL)
	}

	nextToken := f.tokens.Issue(f.team.ID, 1, 2)
	if !strings.Contains(result.NextPageURL, "token="+nextToken) {
		t.Fatal("next page URL does not carry the page 2 token")
	}

	session := f.session(t)
	if session.CurrentPage != 2 {
		t.Fatalf("current page = %d, want 2", session.CurrentPage)
	}
}

func TestValidatePageIdempotent(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	if _, err := f.submit(t, 1); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	result, err := f.submit(t, 1)
	if err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}

	if result.CurrentScore != 10 {
		t.Fatalf("duplicate submit score = %d, want 10 (no double credit)", result.CurrentScore)
	}
	if !strings.Contains(result.NextPageURL, "round1/page2.html") {
		t.Fatal("duplicate submit did not return the next step")
	}

	count, err := f.store.CompletedPageCount(f.session(t).ID)
	if err != nil {
		t.Fatalf("CompletedPageCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("completed pages = %d, want 1", count)
	}
}

func TestValidatePageBadToken(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	_, err := f.game.ValidatePage(ValidateRequest{
		Token:       f.tokens.Issue(f.team.ID, 1, 5), // token for a different page
		TeamID:      f.team.ID,
		RoundNumber: 1,
		PageNumber:  1,
		BugsFixed:   []string{"bug1", "bug2", "bug3"},
	})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidatePageInsufficientBugs(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	_, err := f.game.ValidatePage(ValidateRequest{
		Token:       f.tokens.Issue(f.team.ID, 1, 1),
		TeamID:      f.team.ID,
		RoundNumber: 1,
		PageNumber:  1,
		BugsFixed:   []string{"bug1", "bug2"},
	})
	if !errors.Is(err, ErrInsufficientBugs) {
		t.Fatalf("expected ErrInsufficientBugs, got %v", err)
	}

	if score := f.session(t).Score; score != 0 {
		t.Fatalf("score credited despite quota failure: %d", score)
	}
}

func TestValidatePageAfterDeadline(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	f.clock.Advance(61 * time.Minute)

	if _, err := f.submit(t, 1); !errors.Is(err, ErrTimeExpired) {
		t.Fatalf("expected ErrTimeExpired, got %v", err)
	}

	session := f.session(t)
	if session.Status != models.StatusTimeOver {
		t.Fatalf("session status = %s, want time_over", session.Status)
	}
	if session.IsActive {
		t.Fatal("expired session still active")
	}
}

func TestCompleteFinalPage(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	for page := 1; page <= 9; page++ {
		f.clock.Advance(time.Minute)
		if _, err := f.submit(t, page); err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
	}

	f.clock.Advance(time.Minute)
	result, err := f.submit(t, 10)
	if err != nil {
		t.Fatalf("final page: %v", err)
	}

	if !result.RoundCompleted {
		t.Fatal("final page did not complete the round")
	}
	if result.FinalScore != 100 {
		t.Fatalf("final score = %d, want 100", result.FinalScore)
	}
	if result.Message != "Round 1 Completed!" {
		t.Fatalf("message = %q", result.Message)
	}

	session := f.session(t)
	if session.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.IsActive {
		t.Fatal("completed session still active")
	}
	if session.CurrentPage != 10 {
		t.Fatalf("current page = %d, want 10", session.CurrentPage)
	}
	if session.DurationSeconds != 600 {
		t.Fatalf("duration = %ds, want 600", session.DurationSeconds)
	}
}

func TestCompleteFinalPageIdempotent(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	for page := 1; page <= 9; page++ {
		if _, err := f.submit(t, page); err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
	}

	f.clock.Advance(10 * time.Minute)
	if _, err := f.submit(t, 10); err != nil {
		t.Fatalf("final page: %v", err)
	}
	durationAfterFirst := f.session(t).DurationSeconds

	f.clock.Advance(5 * time.Minute)
	result, err := f.submit(t, 10)
	if err != nil {
		t.Fatalf("duplicate final page: %v", err)
	}

	if !result.RoundCompleted || result.FinalScore != 100 {
		t.Fatalf("duplicate submit result = %+v", result)
	}

	session := f.session(t)
	if session.Score != 100 {
		t.Fatalf("score after duplicate = %d, want 100", session.Score)
	}
	if session.DurationSeconds != durationAfterFirst {
		t.Fatalf("duplicate submit re-stamped duration: %d -> %d",
			durationAfterFirst, session.DurationSeconds)
	}

	var completions int64
	f.game.db.Model(&models.GameActivity{}).
		Where("team_id = ? AND activity_type = ?", f.team.ID, models.ActivityRoundCompleted).
		Count(&completions)
	if completions != 1 {
		t.Fatalf("round_completed activities = %d, want 1", completions)
	}
}

func TestGameStateReconciles(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	for page := 1; page <= 3; page++ {
		if _, err := f.submit(t, page); err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
	}

	// Simulate an admin deleting the page 2 record behind the game's back.
	session := f.session(t)
	if err := f.game.db.Where("team_round_id = ? AND page_number = ?", session.ID, 2).
		Delete(&models.PageProgress{}).Error; err != nil {
		t.Fatalf("delete page record: %v", err)
	}

	state, err := f.game.GameState(f.team.ID, 1)
	if err != nil {
		t.Fatalf("GameState: %v", err)
	}
	if state.Score != 20 {
		t.Fatalf("reconciled score = %d, want 20", state.Score)
	}
	if state.TeamName != "Debuggers" {
		t.Fatalf("team name = %q", state.TeamName)
	}
	if len(state.Pages) != 2 {
		t.Fatalf("pages in snapshot = %d, want 2", len(state.Pages))
	}
	for _, p := range state.Pages {
		if string(p.BugsFixed) == "" {
			t.Fatalf("page %d has empty bugs payload", p.PageNumber)
		}
	}
}

func TestGameStateNotFound(t *testing.T) {
	f := newGameFixture(t)

	if _, err := f.game.GameState(f.team.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before start, got %v", err)
	}
	if _, err := f.game.GameState(999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}
}

func TestConcurrentDuplicateSubmits(t *testing.T) {
	f := newGameFixture(t)
	if _, err := f.game.StartRound(f.team.ID, 1); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := f.game.ValidatePage(ValidateRequest{
				Token:       f.tokens.Issue(f.team.ID, 1, 1),
				TeamID:      f.team.ID,
				RoundNumber: 1,
				PageNumber:  1,
				BugsFixed:   []string{"bug1", "bug2", "bug3"},
			})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}

	if score := f.session(t).Score; score != 10 {
		t.Fatalf("score after %d concurrent submits = %d, want 10", workers, score)
	}
}

func TestTokensDifferAcrossTeams(t *testing.T) {
	f := newGameFixture(t)
	other := createTeam(t, f.game.db, "Rivals")

	mine := f.tokens.Issue(f.team.ID, 1, 1)
	theirs := f.tokens.Issue(other.ID, 1, 1)
	if mine == theirs {
		t.Fatal("two teams share a page token")
	}

	// A team cannot replay another team's token.
	_, err := f.game.ValidatePage(ValidateRequest{
		Token:       theirs,
		TeamID:      f.team.ID,
		RoundNumber: 1,
		PageNumber:  1,
		BugsFixed:   []string{"bug1", "bug2", "bug3"},
	})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPageURLShape(t *testing.T) {
	f := newGameFixture(t)

	result, err := f.game.StartRound(f.team.ID, 1)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	want := fmt.Sprintf("http://localhost:3000/round1/page1.html?token=%s&team=%d&round=1&page=1",
		result.Token, f.team.ID)
	if result.PageURL != want {
		t.Fatalf("page URL = %q, want %q", result.PageURL, want)
	}
}
