package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// UserService implements account lifecycle and login. Every mutation
// invalidates the identity cache entry before returning, so a permission
// change can never be authorized against a stale snapshot.
type UserService struct {
	repo      ports.UserRepository
	cache     ports.IdentityCache
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, cache ports.IdentityCache, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{repo: repo, cache: cache, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

func (s *UserService) Register(ctx context.Context, input ports.RegisterUserInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:              input.Name,
		Email:             domain.NormalizeEmail(input.Email),
		PasswordHash:      string(hash),
		Role:              input.Role,
		Flags:             input.Flags,
		AssignedClientIDs: input.AssignedClientIDs,
		// Admin-created accounts start with a temporary password.
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, current, updated string) error {
	if updated == "" {
		return domain.ErrValidation
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, user.Email)
	return nil
}

// UpdateUser applies a whitelist-filtered patch. Unlisted fields are dropped
// before they reach the record; the drop is logged so the silent-drop
// contract can be audited.
func (s *UserService) UpdateUser(ctx context.Context, userID string, fields map[string]any) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept, dropped := domain.WhitelistFor(domain.ActionAdminUserManagement).Filter(fields)
	if len(dropped) > 0 {
		s.logger.Debug().Strs("fields", dropped).Str("user_id", userID).Msg("dropped unwhitelisted fields")
	}

	if err := applyUserPatch(user, kept); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, user.Email)

	s.logger.Info().Str("user_id", userID).Msg("user updated")
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func applyUserPatch(user *domain.User, fields map[string]any) error {
	for k, v := range fields {
		switch k {
		case "name":
			if name, ok := v.(string); ok {
				user.Name = name
			}
		case "role":
			role, ok := v.(string)
			if !ok || !domain.ValidRole(domain.Role(role)) {
				return domain.ErrValidation
			}
			user.Role = domain.Role(role)
		case "flags":
			raw, ok := v.(map[string]any)
			if !ok {
				return domain.ErrValidation
			}
			flags := make(map[domain.Capability]bool, len(raw))
			for name, val := range raw {
				b, ok := val.(bool)
				if !ok {
					return domain.ErrValidation
				}
				flags[domain.Capability(name)] = b
			}
			user.Flags = flags
		case "assigned_client_ids":
			raw, ok := v.([]any)
			if !ok {
				return domain.ErrValidation
			}
			ids := make([]string, 0, len(raw))
			for _, val := range raw {
				id, ok := val.(string)
				if !ok {
					return domain.ErrValidation
				}
				ids = append(ids, id)
			}
			user.AssignedClientIDs = ids
		case "must_change_password":
			if b, ok := v.(bool); ok {
				user.MustChangePassword = b
			}
		}
	}
	return nil
}

func (s *UserService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
