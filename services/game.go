// services/game.go - Round start and page completion protocol
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bughunt/config"
	"bughunt/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameService implements the timed round/page progression: starting or
// resuming a session, validating page completions and deciding the next
// step. All deadline checks are lazy reads of the session's end_time
// against the injected clock; no background timer is required.
type GameService struct {
	db       *gorm.DB
	store    *ProgressStore
	tokens   *TokenService
	rounds   *RoundService
	activity *ActivityLogger
	clock    clockwork.Clock

	frontendURL   string
	maxPages      int
	pointsPerPage int
	bugQuota      int

	locks keyedLocks
}

func NewGameService(db *gorm.DB, store *ProgressStore, tokens *TokenService, rounds *RoundService,
	activity *ActivityLogger, clock clockwork.Clock, cfg config.Config) *GameService {
	return &GameService{
		db:            db,
		store:         store,
		tokens:        tokens,
		rounds:        rounds,
		activity:      activity,
		clock:         clock,
		frontendURL:   cfg.FrontendURL,
		maxPages:      cfg.MaxPages,
		pointsPerPage: cfg.PointsPerPage,
		bugQuota:      cfg.BugQuota,
	}
}

// BugQuota returns the number of fixed bugs a page requires.
func (gs *GameService) BugQuota() int {
	return gs.bugQuota
}

// StartResult is the response to a round-start request.
type StartResult struct {
	PageURL       string `json:"page_url"`
	TeamID        uint   `json:"team_id"`
	RoundNumber   int    `json:"round_number"`
	CurrentPage   int    `json:"current_page"`
	Token         string `json:"token"`
	IsNewStart    bool   `json:"is_new_start"`
	TimeRemaining int    `json:"time_remaining"`
	CurrentScore  int    `json:"current_score"`
}

// ValidateRequest carries a page-completion submission.
type ValidateRequest struct {
	Token       string   `json:"token"`
	TeamID      uint     `json:"team_id"`
	RoundNumber int      `json:"round_number"`
	PageNumber  int      `json:"page_number"`
	BugsFixed   []string `json:"bugs_fixed"`
}

// ValidateResult is the response to a page-completion submission: either a
// next-page reference or the round-completed terminal state.
type ValidateResult struct {
	NextPageURL    string `json:"next_page_url,omitempty"`
	CurrentScore   int    `json:"current_score"`
	PagesCompleted int    `json:"pages_completed,omitempty"`
	TotalPages     int    `json:"total_pages,omitempty"`
	RoundCompleted bool   `json:"round_completed,omitempty"`
	FinalScore     int    `json:"final_score,omitempty"`
	Message        string `json:"message,omitempty"`
}

// StartRound starts or resumes a team's session for the given round. A new
// or not_started session is initialized with a fresh deadline; an
// in_progress session resumes at its stored page with timestamps untouched,
// so a page refresh never resets the timer.
func (gs *GameService) StartRound(teamID uint, roundNumber int) (*StartResult, error) {
	round, err := gs.rounds.GetByNumber(roundNumber)
	if err != nil {
		return nil, err
	}
	if !round.IsOpen {
		return nil, ErrRoundClosed
	}

	lock := gs.locks.acquire(teamID, roundNumber)
	lock.Lock()
	defer lock.Unlock()

	session, created, err := gs.store.GetOrCreateSession(teamID, round.ID)
	if err != nil {
		return nil, err
	}

	now := gs.clock.Now()
	isNewStart := created || session.Status == models.StatusNotStarted
	currentPage := 1

	if isNewStart {
		end := now.Add(time.Duration(round.DurationMinutes) * time.Minute)
		session.Status = models.StatusInProgress
		session.IsActive = true
		session.StartTime = &now
		session.EndTime = &end
		session.CurrentPage = 1
		session.Score = 0
		if err := gs.db.Save(session).Error; err != nil {
			return nil, err
		}
		gs.activity.Log(teamID, models.ActivityRoundStarted,
			fmt.Sprintf("Started Round %d", roundNumber), nil)
	} else if session.Status == models.StatusInProgress {
		if session.CurrentPage > 0 {
			currentPage = session.CurrentPage
		}
	}

	token := gs.tokens.Issue(teamID, roundNumber, currentPage)

	timeRemaining := 0
	if session.EndTime != nil {
		if remaining := int(session.EndTime.Sub(now).Seconds()); remaining > 0 {
			timeRemaining = remaining
		}
	}

	return &StartResult{
		PageURL:       gs.pageURL(teamID, roundNumber, currentPage, token),
		TeamID:        teamID,
		RoundNumber:   roundNumber,
		CurrentPage:   currentPage,
		Token:         token,
		IsNewStart:    isNewStart,
		TimeRemaining: timeRemaining,
		CurrentScore:  session.Score,
	}, nil
}

// ValidatePage checks a page-completion submission and advances the
// session. Validation order: token, lookups, deadline, bug quota. The
// completion itself is idempotent: a duplicate submit never credits score
// twice but still yields the next-step response.
func (gs *GameService) ValidatePage(req ValidateRequest) (*ValidateResult, error) {
	if !gs.tokens.Verify(req.Token, req.TeamID, req.RoundNumber, req.PageNumber) {
		return nil, ErrInvalidToken
	}

	var team models.Team
	if err := gs.db.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("team %d: %w", req.TeamID, ErrNotFound)
		}
		return nil, err
	}

	round, err := gs.rounds.GetByNumber(req.RoundNumber)
	if err != nil {
		return nil, err
	}

	// Serialize completion per (team, round): concurrent duplicate submits
	// for the same page must not double-credit.
	lock := gs.locks.acquire(req.TeamID, req.RoundNumber)
	lock.Lock()
	defer lock.Unlock()

	var session models.TeamRoundProgress
	if err := gs.db.Where("team_id = ? AND round_id = ?", req.TeamID, round.ID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("round progress: %w", ErrNotFound)
		}
		return nil, err
	}

	now := gs.clock.Now()
	if session.EndTime != nil && now.After(*session.EndTime) {
		session.Status = models.StatusTimeOver
		session.IsActive = false
		if err := gs.db.Save(&session).Error; err != nil {
			return nil, err
		}
		gs.activity.Log(req.TeamID, models.ActivityTimeOver,
			fmt.Sprintf("Time over in Round %d", req.RoundNumber), nil)
		return nil, ErrTimeExpired
	}

	if len(req.BugsFixed) < gs.bugQuota {
		return nil, ErrInsufficientBugs
	}

	var page models.PageProgress
	err = gs.db.Where("team_round_id = ? AND page_number = ?", session.ID, req.PageNumber).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		page = models.PageProgress{
			TeamRoundID: session.ID,
			PageNumber:  req.PageNumber,
			StartedAt:   now,
		}
		if err := gs.db.Create(&page).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	justCompleted := false
	if !page.Completed {
		justCompleted = true
		bugs, err := json.Marshal(req.BugsFixed)
		if err != nil {
			return nil, err
		}
		page.Completed = true
		page.CompletedAt = &now
		page.BugsFixed = datatypes.JSON(bugs)
		page.TimeTakenSeconds = int(now.Sub(page.StartedAt).Seconds())
		if err := gs.db.Save(&page).Error; err != nil {
			return nil, err
		}

		session.Score += gs.pointsPerPage
		if req.PageNumber < gs.maxPages {
			session.CurrentPage = req.PageNumber + 1
		} else {
			session.CurrentPage = gs.maxPages
		}
		if err := gs.db.Save(&session).Error; err != nil {
			return nil, err
		}

		gs.activity.Log(req.TeamID, models.ActivityPageCompleted,
			fmt.Sprintf("Completed Round %d Page %d", req.RoundNumber, req.PageNumber), nil)
	}

	if req.PageNumber < gs.maxPages {
		nextPage := req.PageNumber + 1
		nextToken := gs.tokens.Issue(req.TeamID, req.RoundNumber, nextPage)
		return &ValidateResult{
			NextPageURL:    gs.pageURL(req.TeamID, req.RoundNumber, nextPage, nextToken),
			CurrentScore:   session.Score,
			PagesCompleted: req.PageNumber,
			TotalPages:     gs.maxPages,
		}, nil
	}

	// Last page: the round is done for this team. A duplicate submit must
	// not re-stamp the end time, inflate duration_seconds or append a
	// second completion activity.
	if justCompleted {
		session.Status = models.StatusCompleted
		session.IsActive = false
		session.EndTime = &now
		if session.StartTime != nil {
			session.DurationSeconds = int(now.Sub(*session.StartTime).Seconds())
		}
		if err := gs.db.Save(&session).Error; err != nil {
			return nil, err
		}

		gs.activity.Log(req.TeamID, models.ActivityRoundCompleted,
			fmt.Sprintf("Completed Round %d", req.RoundNumber),
			map[string]interface{}{"score": session.Score})
	}

	return &ValidateResult{
		RoundCompleted: true,
		FinalScore:     session.Score,
		CurrentScore:   session.Score,
		Message:        fmt.Sprintf("Round %d Completed!", req.RoundNumber),
	}, nil
}

// PageState is one page's slice of a game-state snapshot.
type PageState struct {
	PageNumber int             `json:"page_number"`
	Completed  bool            `json:"completed"`
	BugsFixed  json.RawMessage `json:"bugs_fixed"`
}

// GameState is the authoritative snapshot pushed to team members.
type GameState struct {
	TeamName      string      `json:"team_name"`
	RoundNumber   int         `json:"round_number"`
	CurrentPage   int         `json:"current_page"`
	Score         int         `json:"score"`
	Status        string      `json:"status"`
	TimeRemaining int         `json:"time_remaining"`
	Pages         []PageState `json:"pages"`
}

// GameState builds a reconciled snapshot for (team, round). The score is
// re-derived from page records first, so the snapshot never reflects stale
// values after an administrative deletion.
func (gs *GameService) GameState(teamID uint, roundNumber int) (*GameState, error) {
	var team models.Team
	if err := gs.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
		}
		return nil, err
	}

	round, err := gs.rounds.GetByNumber(roundNumber)
	if err != nil {
		return nil, err
	}

	var session models.TeamRoundProgress
	if err := gs.db.Where("team_id = ? AND round_id = ?", teamID, round.ID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("round progress: %w", ErrNotFound)
		}
		return nil, err
	}

	if err := gs.store.ReconcileScore(&session); err != nil {
		return nil, err
	}

	pages, err := gs.store.SessionPages(session.ID)
	if err != nil {
		return nil, err
	}

	states := make([]PageState, 0, len(pages))
	for _, p := range pages {
		bugs := json.RawMessage(p.BugsFixed)
		if len(bugs) == 0 {
			bugs = json.RawMessage("[]")
		}
		states = append(states, PageState{
			PageNumber: p.PageNumber,
			Completed:  p.Completed,
			BugsFixed:  bugs,
		})
	}

	timeRemaining := 0
	if session.EndTime != nil {
		if remaining := int(session.EndTime.Sub(gs.clock.Now()).Seconds()); remaining > 0 {
			timeRemaining = remaining
		}
	}

	return &GameState{
		TeamName:      team.Name,
		RoundNumber:   roundNumber,
		CurrentPage:   session.CurrentPage,
		Score:         session.Score,
		Status:        session.Status,
		TimeRemaining: timeRemaining,
		Pages:         states,
	}, nil
}

func (gs *GameService) pageURL(teamID uint, roundNumber, pageNumber int, token string) string {
	return fmt.Sprintf("%s/round%d/page%d.html?token=%s&team=%d&round=%d&page=%d",
		gs.frontendURL, roundNumber, pageNumber, token, teamID, roundNumber, pageNumber)
}

// keyedLocks hands out one mutex per (team, round) session key.
type keyedLocks struct {
	mu sync.Mutex
	m  map[sessionKey]*sync.Mutex
}

type sessionKey struct {
	teamID      uint
	roundNumber int
}

func (k *keyedLocks) acquire(teamID uint, roundNumber int) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.m == nil {
		k.m = make(map[sessionKey]*sync.Mutex)
	}
	key := sessionKey{teamID: teamID, roundNumber: roundNumber}
	lock, ok := k.m[key]
	if !ok {
		lock = &sync.Mutex{}
		k.m[key] = lock
	}
	return lock
}
