// Package seed loads a season calendar (events, bonus questions, users and
// badges) from YAML into the stores.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/pkg/logger"
)

var validate = validator.New()

// File is the seed document.
type File struct {
	Users  []User               `yaml:"users" validate:"dive"`
	Events []Event              `yaml:"events" validate:"dive"`
	Badges []config.BadgeConfig `yaml:"badges"`
}

// User is a seeded player.
type User struct {
	Username    string `yaml:"username" validate:"required,max=255"`
	DisplayName string `yaml:"display_name"`
}

// Event is a seeded event. ID keeps reseeding idempotent.
type Event struct {
	ID        uint       `yaml:"id" validate:"required"`
	Name      string     `yaml:"name" validate:"required,max=255"`
	Kind      string     `yaml:"kind" validate:"required,oneof=race bonus"`
	Season    int        `yaml:"season"`
	Round     int        `yaml:"round"`
	Status    string     `yaml:"status" validate:"omitempty,oneof=upcoming open locked scored archived"`
	LockAt    time.Time  `yaml:"lock_at" validate:"required"`
	Questions []Question `yaml:"questions" validate:"dive"`
}

// Question is a seeded bonus question. Options and Correct are labels.
type Question struct {
	Prompt        string   `yaml:"prompt" validate:"required"`
	Kind          string   `yaml:"kind" validate:"required,oneof=single multi"`
	MaxSelections int      `yaml:"max_selections" validate:"gte=0"`
	Points        int      `yaml:"points" validate:"gte=0"`
	Options       []string `yaml:"options" validate:"min=2,unique,dive,required"`
	Correct       []string `yaml:"correct" validate:"unique"`
}

// Load decodes and validates a seed document. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field constraints and cross references.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: invalid seed file: %s", models.ErrValidation, err)
	}
	ids := make(map[uint]struct{}, len(f.Events))
	for _, e := range f.Events {
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("%w: event id %d listed twice", models.ErrValidation, e.ID)
		}
		ids[e.ID] = struct{}{}
		if e.Kind == models.EventKindRace && len(e.Questions) > 0 {
			return fmt.Errorf("%w: race event %d cannot carry bonus questions", models.ErrValidation, e.ID)
		}
		for _, q := range e.Questions {
			for _, c := range q.Correct {
				if !contains(q.Options, c) {
					return fmt.Errorf("%w: event %d: correct answer %q is not an option of %q",
						models.ErrValidation, e.ID, c, q.Prompt)
				}
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// EventStore interface for seeding events.
type EventStore interface {
	UpsertEvent(ctx context.Context, event *models.Event) error
}

// QuestionStore interface for seeding bonus questions.
type QuestionStore interface {
	ListQuestions(ctx context.Context, eventID uint) ([]models.BonusQuestion, error)
	CreateQuestion(ctx context.Context, q *models.BonusQuestion) error
	SetCorrectOptions(ctx context.Context, questionID uint, optionIDs []uint) error
}

// UserStore interface for seeding users.
type UserStore interface {
	UpsertByUsername(ctx context.Context, user *models.User) error
}

// CatalogStore provisions badge definitions.
type CatalogStore interface {
	EnsureCatalog(ctx context.Context, catalog []models.Badge) error
}

// Report counts what a seeding run wrote.
type Report struct {
	Users            int `json:"users"`
	Events           int `json:"events"`
	Questions        int `json:"questions"`
	SkippedQuestions int `json:"skipped_questions"`
	Badges           int `json:"badges"`
}

// Seeder writes seed documents.
type Seeder struct {
	events    EventStore
	questions QuestionStore
	users     UserStore
	catalog   CatalogStore
	log       *logger.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(events EventStore, questions QuestionStore, users UserStore, catalog CatalogStore, log *logger.Logger) *Seeder {
	return &Seeder{events: events, questions: questions, users: users, catalog: catalog, log: log}
}

// Apply writes f. Events and users are upserted; questions of an event are
// only created when the event has none yet, so reseeding never duplicates them.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Report, error) {
	report := &Report{}

	catalog := badges.CatalogFromConfig(f.Badges)
	if err := s.catalog.EnsureCatalog(ctx, catalog); err != nil {
		return report, fmt.Errorf("failed to provision badges: %w", err)
	}
	report.Badges = len(catalog)

	for _, u := range f.Users {
		user := &models.User{Username: u.Username, DisplayName: u.DisplayName}
		if err := s.users.UpsertByUsername(ctx, user); err != nil {
			return report, err
		}
		report.Users++
	}

	for _, e := range f.Events {
		status := e.Status
		if status == "" {
			status = models.EventStatusUpcoming
		}
		event := &models.Event{
			ID:     e.ID,
			Name:   e.Name,
			Kind:   e.Kind,
			Season: e.Season,
			Round:  e.Round,
			Status: status,
			LockAt: e.LockAt.UTC(),
		}
		if err := s.events.UpsertEvent(ctx, event); err != nil {
			return report, err
		}
		report.Events++

		if err := s.seedQuestions(ctx, e, report); err != nil {
			return report, err
		}
	}

	s.log.Info().
		Int("users", report.Users).
		Int("events", report.Events).
		Int("questions", report.Questions).
		Int("skipped_questions", report.SkippedQuestions).
		Int("badges", report.Badges).
		Msg("Seed applied")

	return report, nil
}

func (s *Seeder) seedQuestions(ctx context.Context, e Event, report *Report) error {
	if len(e.Questions) == 0 {
		return nil
	}
	existing, err := s.questions.ListQuestions(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("failed to list questions of event %d: %w", e.ID, err)
	}
	if len(existing) > 0 {
		report.SkippedQuestions += len(e.Questions)
		return nil
	}

	for i, q := range e.Questions {
		question := &models.BonusQuestion{
			EventID:       e.ID,
			Position:      i + 1,
			Prompt:        q.Prompt,
			Kind:          q.Kind,
			MaxSelections: q.MaxSelections,
			Points:        q.Points,
		}
		if question.MaxSelections == 0 {
			question.MaxSelections = 1
			if q.Kind == models.QuestionKindMulti {
				question.MaxSelections = len(q.Options)
			}
		}
		for _, label := range q.Options {
			question.Options = append(question.Options, models.BonusOption{Label: label})
		}
		if err := s.questions.CreateQuestion(ctx, question); err != nil {
			return fmt.Errorf("failed to create question %q: %w", q.Prompt, err)
		}
		report.Questions++

		if len(q.Correct) == 0 {
			continue
		}
		var correct []uint
		for _, o := range question.Options {
			if contains(q.Correct, o.Label) {
				correct = append(correct, o.ID)
			}
		}
		if err := s.questions.SetCorrectOptions(ctx, question.ID, correct); err != nil {
			return fmt.Errorf("failed to configure answer of %q: %w", q.Prompt, err)
		}
	}
	return nil
}
