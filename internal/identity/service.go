package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) (*User, error)
	UpdateUserRole(ctx context.Context, id int64, role Role) error
	UpdateUserGroup(ctx context.Context, id int64, groupID *int64) error
	SetBanned(ctx context.Context, id int64, banned bool) error
	DeactivateUser(ctx context.Context, id int64) error
	ListUsersForGroup(ctx context.Context, groupID int64) ([]User, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	CreateGroup(ctx context.Context, group Group) (*Group, error)
	DeactivateGroup(ctx context.Context, id int64) error
}

// Service wraps account and tenant business rules. Authorization is not
// enforced here; callers consult the access control engine first.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// RegisterInput carries self-registration fields.
type RegisterInput struct {
	Username string `validate:"required,min=3,max=80"`
	Email    string `validate:"required,email,max=120"`
	Password string `validate:"required,min=8,max=128"`
}

// Register creates a self-service account. New registrations always start at
// the lowest rank with no tenant membership.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("identity: register: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	return s.store.CreateUser(ctx, User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Role:         RoleUser,
	})
}

// CreateUserInput carries fields for an administratively created account.
type CreateUserInput struct {
	Username string `validate:"required,min=3,max=80"`
	Email    string `validate:"required,email,max=120"`
	Password string `validate:"required,min=8,max=128"`
	Role     Role   `validate:"required"`
	GroupID  *int64
}

// CreateUser creates an account on behalf of an already-authorized actor.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("identity: invalid role %d", int(input.Role))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	return s.store.CreateUser(ctx, User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Role:         input.Role,
		GroupID:      input.GroupID,
	})
}

// Authenticate validates email/password credentials. Every failure mode
// collapses into ErrInvalidCredentials so callers cannot probe accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || user.IsBanned {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get fetches an account by ID.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

// AssignRole reassigns a user's rank.
func (s *Service) AssignRole(ctx context.Context, userID int64, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("identity: invalid role %d", int(role))
	}
	return s.store.UpdateUserRole(ctx, userID, role)
}

// AssignGroup moves a user into a group, or out of any group with nil.
func (s *Service) AssignGroup(ctx context.Context, userID int64, groupID *int64) error {
	if groupID != nil {
		if _, err := s.store.GetGroup(ctx, *groupID); err != nil {
			return err
		}
	}
	return s.store.UpdateUserGroup(ctx, userID, groupID)
}

// Ban flips the banned flag on an account.
func (s *Service) Ban(ctx context.Context, userID int64, banned bool) error {
	return s.store.SetBanned(ctx, userID, banned)
}

// Deactivate soft-deletes an account.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	return s.store.DeactivateUser(ctx, userID)
}

// CreateGroupInput carries tenant creation fields.
type CreateGroupInput struct {
	Name    string `validate:"required,min=2,max=120"`
	OwnerID *int64
}

// CreateGroup creates a tenant. When the creating actor is an Admin the
// caller passes it as owner and should follow up with AssignGroup to make it
// a member.
func (s *Service) CreateGroup(ctx context.Context, input CreateGroupInput) (*Group, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("identity: create group: %w", err)
	}
	name := strings.TrimSpace(input.Name)
	return s.store.CreateGroup(ctx, Group{
		Name:    name,
		Slug:    Slugify(name),
		OwnerID: input.OwnerID,
	})
}

// Members lists the accounts of a group, newest first.
func (s *Service) Members(ctx context.Context, groupID int64) ([]User, error) {
	return s.store.ListUsersForGroup(ctx, groupID)
}

var slugLower = cases.Lower(language.Und)

// Slugify folds a display name into a URL-safe tenant slug.
func Slugify(name string) string {
	lowered := slugLower.String(strings.TrimSpace(name))
	var b strings.Builder
	prevDash := true
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
