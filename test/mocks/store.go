// Package mocks provides in-memory stores for service tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/repository"
)

// Store is an in-memory implementation of every repository the services consume.
// It is safe for concurrent use. Fail* fields inject errors per row or user.
type Store struct {
	mu sync.Mutex

	users       map[uint]*models.User
	events      map[uint]*models.Event
	results     map[uint]*models.RaceResult // by event ID
	predictions map[uint]*models.RacePrediction
	questions   map[uint]*models.BonusQuestion
	responses   map[uint]*models.BonusResponse
	badges      map[uint]*models.Badge
	grants      []models.UserBadge
	nextID      uint

	FailUpdateScore    map[uint]error // by prediction ID
	FailUpdatePoints   map[uint]error // by response ID
	FailSetTotal       map[uint]error // by user ID
	FailListByUser     map[uint]error // by user ID
	FailInsertGrant    error
	FailClear          error
	FailUpsertResult   error
	UpdateScoreCalls   int
	UpdatePointsCalls  int
	SetTotalCalls      int
	ClearedPredictions []uint
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:            make(map[uint]*models.User),
		events:           make(map[uint]*models.Event),
		results:          make(map[uint]*models.RaceResult),
		predictions:      make(map[uint]*models.RacePrediction),
		questions:        make(map[uint]*models.BonusQuestion),
		responses:        make(map[uint]*models.BonusResponse),
		badges:           make(map[uint]*models.Badge),
		FailUpdateScore:  make(map[uint]error),
		FailUpdatePoints: make(map[uint]error),
		FailSetTotal:     make(map[uint]error),
		FailListByUser:   make(map[uint]error),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// Seeding helpers. IDs are assigned when zero; timestamps are kept as given.

// AddUser stores a user and returns its ID.
func (s *Store) AddUser(u models.User) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = &u
	return u.ID
}

// AddEvent stores an event and returns its ID.
func (s *Store) AddEvent(e models.Event) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	s.events[e.ID] = &e
	return e.ID
}

// AddPrediction stores a prediction row and returns its ID.
func (s *Store) AddPrediction(p models.RacePrediction) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.predictions[p.ID] = &p
	return p.ID
}

// AddQuestion stores a question, assigning option IDs, and returns it.
func (s *Store) AddQuestion(q models.BonusQuestion) models.BonusQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == 0 {
		q.ID = s.id()
	}
	for i := range q.Options {
		if q.Options[i].ID == 0 {
			q.Options[i].ID = s.id()
		}
		q.Options[i].QuestionID = q.ID
	}
	s.questions[q.ID] = &q
	return q
}

// AddResponse stores a bonus response and returns its ID.
func (s *Store) AddResponse(r models.BonusResponse) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.responses[r.ID] = &r
	return r.ID
}

// AddBadges stores badge definitions.
func (s *Store) AddBadges(badges ...models.Badge) {
	for i := range badges {
		_ = s.UpsertBadge(context.Background(), &badges[i])
	}
}

// Inspection helpers.

// Prediction returns a copy of a stored prediction.
func (s *Store) Prediction(id uint) models.RacePrediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.predictions[id]
}

// Response returns a copy of a stored response.
func (s *Store) Response(id uint) models.BonusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.responses[id]
}

// User returns a copy of a stored user.
func (s *Store) User(id uint) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

// Event returns a copy of a stored event.
func (s *Store) Event(id uint) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[id]
}

// GrantCount returns how many grants exist for the triple.
func (s *Store) GrantCount(userID uint, badgeName string, eventID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.grants {
		if g.UserID == userID && g.EventID == eventID && s.badges[g.BadgeID].Name == badgeName {
			n++
		}
	}
	return n
}

// GrantedBadges returns the names of every badge granted to a user for an event.
func (s *Store) GrantedBadges(userID, eventID uint) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, g := range s.grants {
		if g.UserID == userID && g.EventID == eventID {
			names = append(names, s.badges[g.BadgeID].Name)
		}
	}
	sort.Strings(names)
	return names
}

// TotalGrants returns the number of stored grants.
func (s *Store) TotalGrants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

// Events.

// GetEvent returns an event or ErrNotFound.
func (s *Store) GetEvent(_ context.Context, id uint) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %d", models.ErrNotFound, id)
	}
	cp := *e
	return &cp, nil
}

// ListEvents filters events like the SQL repository.
func (s *Store) ListEvents(_ context.Context, f models.EventFilter) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for _, e := range s.events {
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Season != 0 && e.Season != f.Season {
			continue
		}
		if f.LockedBefore != nil && e.LockAt.After(*f.LockedBefore) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertEvent stores an event.
func (s *Store) UpsertEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

// SetStatus overrides an event status.
func (s *Store) SetStatus(_ context.Context, id uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%w: event %d", models.ErrNotFound, id)
	}
	e.Status = status
	if status == models.EventStatusScored {
		now := time.Now()
		e.ScoredAt = &now
	}
	return nil
}

// LockDue locks open events whose lock time passed.
func (s *Store) LockDue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.events {
		if e.Status == models.EventStatusOpen && !e.LockAt.After(now) {
			e.Status = models.EventStatusLocked
			n++
		}
	}
	return n, nil
}

// Results.

// GetResult returns the result of an event or ErrNotFound.
func (s *Store) GetResult(_ context.Context, eventID uint) (*models.RaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: result for event %d", models.ErrNotFound, eventID)
	}
	cp := *r
	return &cp, nil
}

// UpsertResult stores the result of an event, last write wins.
func (s *Store) UpsertResult(_ context.Context, r *models.RaceResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpsertResult != nil {
		return s.FailUpsertResult
	}
	if existing, ok := s.results[r.EventID]; ok {
		r.ID = existing.ID
	} else {
		r.ID = s.id()
	}
	cp := *r
	s.results[r.EventID] = &cp
	return nil
}

// Predictions.

func (s *Store) predictionsWhere(match func(*models.RacePrediction) bool) []models.RacePrediction {
	var out []models.RacePrediction
	for _, p := range s.predictions {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListPredictions returns all rows of an event.
func (s *Store) ListPredictions(_ context.Context, eventID uint) ([]models.RacePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predictionsWhere(func(p *models.RacePrediction) bool { return p.EventID == eventID }), nil
}

// ListPredictionsByUser returns all rows of a user.
func (s *Store) ListPredictionsByUser(_ context.Context, userID uint) ([]models.RacePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailListByUser[userID]; err != nil {
		return nil, err
	}
	return s.predictionsWhere(func(p *models.RacePrediction) bool { return p.UserID != nil && *p.UserID == userID }), nil
}

// UpdateScore writes a score without touching UpdatedAt.
func (s *Store) UpdateScore(_ context.Context, id uint, score models.PredictionScore, scoredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateScoreCalls++
	if err := s.FailUpdateScore[id]; err != nil {
		return err
	}
	p, ok := s.predictions[id]
	if !ok {
		return fmt.Errorf("%w: prediction %d", models.ErrNotFound, id)
	}
	base, wildcard, total := score.Base, score.Wildcard, score.Total()
	at := scoredAt
	p.BaseScore, p.WildcardScore, p.Score, p.ScoredAt = &base, &wildcard, &total, &at
	return nil
}

// ClearScore removes scores from rows.
func (s *Store) ClearScore(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailClear != nil {
		return s.FailClear
	}
	for _, id := range ids {
		if p, ok := s.predictions[id]; ok {
			p.BaseScore, p.WildcardScore, p.Score, p.ScoredAt = nil, nil, nil, nil
			s.ClearedPredictions = append(s.ClearedPredictions, id)
		}
	}
	return nil
}

// LatestPredictionForUser returns the newest row of a user for an event.
func (s *Store) LatestPredictionForUser(_ context.Context, userID, eventID uint) (*models.RacePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.RacePrediction
	for _, p := range s.predictions {
		if p.UserID == nil || *p.UserID != userID || p.EventID != eventID {
			continue
		}
		if latest == nil || p.LastTouched().After(latest.LastTouched()) ||
			(p.LastTouched().Equal(latest.LastTouched()) && p.ID > latest.ID) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: prediction for event %d", models.ErrNotFound, eventID)
	}
	cp := *latest
	return &cp, nil
}

// CreatePrediction inserts a row.
func (s *Store) CreatePrediction(_ context.Context, p *models.RacePrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.predictions[p.ID] = &cp
	return nil
}

// SavePrediction overwrites a row and bumps UpdatedAt.
func (s *Store) SavePrediction(_ context.Context, p *models.RacePrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now()
	cp := *p
	s.predictions[p.ID] = &cp
	return nil
}

// Bonus.

// ListQuestions returns the questions of an event ordered by position.
func (s *Store) ListQuestions(_ context.Context, eventID uint) ([]models.BonusQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BonusQuestion
	for _, q := range s.questions {
		if q.EventID == eventID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetQuestion returns a question or ErrNotFound.
func (s *Store) GetQuestion(_ context.Context, id uint) (*models.BonusQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: question %d", models.ErrNotFound, id)
	}
	cp := *q
	return &cp, nil
}

// SetCorrectOptions configures the answer of a question.
func (s *Store) SetCorrectOptions(_ context.Context, questionID uint, optionIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[questionID]
	if !ok {
		return fmt.Errorf("%w: question %d", models.ErrNotFound, questionID)
	}
	q.CorrectOptionIDs = append([]uint(nil), optionIDs...)
	return nil
}

func (s *Store) responsesWhere(match func(*models.BonusResponse) bool) []models.BonusResponse {
	var out []models.BonusResponse
	for _, r := range s.responses {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListResponses returns all responses of an event.
func (s *Store) ListResponses(_ context.Context, eventID uint) ([]models.BonusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responsesWhere(func(r *models.BonusResponse) bool { return r.EventID == eventID }), nil
}

// ListResponsesByUser returns all responses of a user.
func (s *Store) ListResponsesByUser(_ context.Context, userID uint) ([]models.BonusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailListByUser[userID]; err != nil {
		return nil, err
	}
	return s.responsesWhere(func(r *models.BonusResponse) bool { return r.UserID != nil && *r.UserID == userID }), nil
}

// UpdateResponsePoints writes points without touching UpdatedAt.
func (s *Store) UpdateResponsePoints(_ context.Context, id uint, points int, scoredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatePointsCalls++
	if err := s.FailUpdatePoints[id]; err != nil {
		return err
	}
	r, ok := s.responses[id]
	if !ok {
		return fmt.Errorf("%w: response %d", models.ErrNotFound, id)
	}
	pts, at := points, scoredAt
	r.PointsAwarded, r.ScoredAt = &pts, &at
	return nil
}

// ClearResponsePoints removes points from responses.
func (s *Store) ClearResponsePoints(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailClear != nil {
		return s.FailClear
	}
	for _, id := range ids {
		if r, ok := s.responses[id]; ok {
			r.PointsAwarded, r.ScoredAt = nil, nil
		}
	}
	return nil
}

// LatestResponseForUser returns the newest response of a user to a question.
func (s *Store) LatestResponseForUser(_ context.Context, userID, questionID uint) (*models.BonusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.BonusResponse
	for _, r := range s.responses {
		if r.UserID == nil || *r.UserID != userID || r.QuestionID != questionID {
			continue
		}
		if latest == nil || r.LastTouched().After(latest.LastTouched()) ||
			(r.LastTouched().Equal(latest.LastTouched()) && r.ID > latest.ID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: response to question %d", models.ErrNotFound, questionID)
	}
	cp := *latest
	return &cp, nil
}

// CreateResponse inserts a response.
func (s *Store) CreateResponse(_ context.Context, r *models.BonusResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	s.responses[r.ID] = &cp
	return nil
}

// SaveResponse overwrites a response and bumps UpdatedAt.
func (s *Store) SaveResponse(_ context.Context, r *models.BonusResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now()
	cp := *r
	s.responses[r.ID] = &cp
	return nil
}

// Badges.

// UpsertBadge creates or refreshes a badge by name.
func (s *Store) UpsertBadge(_ context.Context, b *models.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.badges {
		if existing.Name == b.Name {
			existing.Description, existing.Icon = b.Description, b.Icon
			b.ID = existing.ID
			return nil
		}
	}
	b.ID = s.id()
	cp := *b
	s.badges[b.ID] = &cp
	return nil
}

// FindBadgeByName returns nil, nil for unknown names.
func (s *Store) FindBadgeByName(_ context.Context, name string) (*models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.badges {
		if b.Name == name {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

// GetAll returns every badge ordered by ID.
func (s *Store) GetAll(_ context.Context) ([]models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InsertGrant enforces the (user, badge, event) unique key.
func (s *Store) InsertGrant(_ context.Context, g *models.UserBadge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsertGrant != nil {
		return s.FailInsertGrant
	}
	for _, existing := range s.grants {
		if existing.UserID == g.UserID && existing.BadgeID == g.BadgeID && existing.EventID == g.EventID {
			return repository.ErrDuplicateGrant
		}
	}
	g.ID = s.id()
	s.grants = append(s.grants, *g)
	return nil
}

// GetUserBadges returns the grants of a user with badges attached.
func (s *Store) GetUserBadges(_ context.Context, userID uint) ([]models.UserBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserBadge
	for _, g := range s.grants {
		if g.UserID == userID {
			g.Badge = *s.badges[g.BadgeID]
			out = append(out, g)
		}
	}
	return out, nil
}

// GetBadgeHoldersCount counts distinct holders of a badge.
func (s *Store) GetBadgeHoldersCount(_ context.Context, badgeID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holders := make(map[uint]struct{})
	for _, g := range s.grants {
		if g.BadgeID == badgeID {
			holders[g.UserID] = struct{}{}
		}
	}
	return int64(len(holders)), nil
}

// Users.

// GetUser returns a user or ErrNotFound.
func (s *Store) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

// UpsertByUsername creates or refreshes a user by username.
func (s *Store) UpsertByUsername(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			existing.DisplayName = u.DisplayName
			u.ID = existing.ID
			return nil
		}
	}
	u.ID = s.id()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// SetTotalPoints overwrites a user's total.
func (s *Store) SetTotalPoints(_ context.Context, id uint, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetTotalCalls++
	if err := s.FailSetTotal[id]; err != nil {
		return err
	}
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	u.TotalPoints = total
	return nil
}

// AdjustBonusPoints adds delta to a user's ledger.
func (s *Store) AdjustBonusPoints(_ context.Context, id uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	u.BonusPoints += delta
	return nil
}

// ListIDs returns every user ID ascending.
func (s *Store) ListIDs(_ context.Context) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// TopByTotal orders users by total descending, ID ascending.
func (s *Store) TopByTotal(_ context.Context, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountAbove counts users with a strictly higher total.
func (s *Store) CountAbove(_ context.Context, total int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.TotalPoints > total {
			n++
		}
	}
	return n, nil
}
