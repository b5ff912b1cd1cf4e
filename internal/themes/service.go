package themes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/opinian/opinian/internal/activity"
	"github.com/opinian/opinian/internal/themes/export"
)

// Service wraps theme CRUD with input validation and activity recording.
// Activation is not handled here; the resolver owns the active flag.
type Service struct {
	store    Store
	recorder Recorder
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, recorder: recorder, validate: validator.New(), logger: logger}
}

// CreateInput carries theme creation fields.
type CreateInput struct {
	GroupID     *int64
	Name        string `validate:"required,min=2,max=120"`
	Description string `validate:"max=500"`
	Kind        Kind   `validate:"required"`
	StyleVars   map[string]string
	Document    []byte
	Prompt      string
	CreatedBy   int64
}

// Create stores a new inactive theme. Visual and generated themes must
// carry a component document that lifts cleanly; manual themes carry only
// the style-variable map.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Theme, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("themes: create: %w", err)
	}
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("themes: invalid kind %q", input.Kind)
	}
	if input.Kind != KindManual {
		if _, err := export.Decode(input.Document); err != nil {
			return nil, err
		}
	}
	theme, err := s.store.Create(ctx, CreateParams{
		GroupID:     input.GroupID,
		Name:        input.Name,
		Description: input.Description,
		Kind:        input.Kind,
		StyleVars:   input.StyleVars,
		Document:    input.Document,
		Prompt:      input.Prompt,
		CreatedBy:   input.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, input.CreatedBy, "create_theme", theme.ID, theme.GroupID, nil)
	return theme, nil
}

// Get fetches a theme by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Theme, error) {
	return s.store.Get(ctx, id)
}

// ListForGroup returns the group's themes, newest first.
func (s *Service) ListForGroup(ctx context.Context, groupID int64) ([]Theme, error) {
	return s.store.ListForGroup(ctx, groupID)
}

// Delete removes a theme. The live theme of a group cannot be deleted; a
// replacement must be applied first.
func (s *Service) Delete(ctx context.Context, actorID int64, id int64) error {
	theme, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.store.Delete(ctx, id)
	s.record(ctx, actorID, "delete_theme", id, theme.GroupID, err)
	return err
}

func (s *Service) record(ctx context.Context, actorID int64, action string, themeID int64, groupID *int64, opErr error) {
	if s.recorder == nil {
		return
	}
	outcome := activity.OutcomeOK
	reason := ""
	if opErr != nil {
		outcome = activity.OutcomeError
		reason = opErr.Error()
	}
	rec := activity.Record{
		ActorID:    actorID,
		Action:     action,
		Resource:   "theme",
		ResourceID: strconv.FormatInt(themeID, 10),
		GroupID:    groupID,
		Outcome:    outcome,
		Reason:     reason,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error("record theme mutation", slog.String("action", action), slog.Any("error", err))
	}
}
