package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ecotrack/internal/cache"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type authService struct {
	baseService
	tokens      *TokenIssuer
	oauth       *oauth2.Config
	userInfoURL string
}

// NewAuthService creates the account service
func NewAuthService(deps *Dependencies) AuthService {
	return &authService{
		baseService: newBaseService(deps, "auth"),
		tokens:      deps.Tokens,
		oauth:       deps.OAuth,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, wrapInternal("Failed to secure password", err)
	}

	user := &models.User{Email: req.Email, PasswordHash: &hash}
	err = s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		if err := tx.User.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return NewConflictError("An account with this email already exists", CodeEmailTaken)
			}
			return err
		}
		return s.provisionAccount(ctx, tx, user.ID, req.Name, utils.OptionalString(req.City), models.RoleCitizen)
	})
	if err != nil {
		return nil, txError("Failed to create account", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return s.issue(ctx, user.ID)
}

// provisionAccount creates the role, profile and streak rows a new account needs
func (s *authService) provisionAccount(ctx context.Context, tx *repositories.Collection, userID, name string, city *string, role models.Role) error {
	if err := tx.Role.SetRole(ctx, userID, role); err != nil {
		return err
	}
	if err := tx.Profile.Create(ctx, &models.Profile{UserID: userID, Name: name, City: city}); err != nil {
		return err
	}
	return tx.Gamification.SaveStreak(ctx, &models.UserStreak{UserID: userID})
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate(req); err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, wrapInternal("Failed to sign in", err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, NewUnauthorizedError("Invalid email or password")
	}
	if err := utils.CheckPassword(*user.PasswordHash, req.Password); err != nil {
		s.logger.Debug("Password mismatch", zap.String("user_id", user.ID))
		return nil, NewUnauthorizedError("Invalid email or password")
	}
	if user.IsBanned(s.now()) {
		return nil, AccountSuspendedError()
	}

	return s.issue(ctx, user.ID)
}

// AccountSuspendedError is returned to banned or suspended accounts
func AccountSuspendedError() *ServiceError {
	err := NewForbiddenError("This account has been suspended")
	err.Code = CodeAccountSuspended
	return err
}

func (s *authService) issue(ctx context.Context, userID string) (*AuthResponse, error) {
	me, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(userID, me.Role, s.now())
	if err != nil {
		return nil, wrapInternal("Failed to issue token", err)
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        me,
	}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load account", err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}

	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load profile", err)
	}
	role, err := s.roleOf(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}

	return &MeResponse{UserID: user.ID, Email: user.Email, Role: role, Profile: profile}, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load profile", err)
	}
	if profile == nil {
		return nil, EntityNotFoundError("profile", userID)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, InvalidInputError("name", "cannot be blank")
		}
		profile.Name = name
	}
	if req.City != nil {
		profile.City = utils.OptionalString(*req.City)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = utils.OptionalString(*req.AvatarURL)
	}

	if err := s.repos.Profile.Update(ctx, profile); err != nil {
		return nil, wrapInternal("Failed to update profile", err)
	}
	return profile, nil
}

func (s *authService) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, InvalidInputError("role", "unknown role")
	}
	current, err := s.roleOf(ctx, s.repos, userID)
	if err != nil {
		return false, err
	}
	return current == role, nil
}

func (s *authService) ValidateToken(token string) (*TokenClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, NewUnauthorizedError("Invalid or expired token")
	}
	return claims, nil
}

func (s *authService) AccountState(ctx context.Context, userID string) (*AccountState, error) {
	load := func() (*AccountState, error) {
		user, err := s.repos.User.GetByID(ctx, userID)
		if err != nil {
			return nil, wrapInternal("Failed to load account", err)
		}
		if user == nil {
			return nil, NewUnauthorizedError("Account no longer exists")
		}
		role, err := s.roleOf(ctx, s.repos, userID)
		if err != nil {
			return nil, err
		}

		state := &AccountState{
			UserID:      user.ID,
			Email:       user.Email,
			Role:        role,
			Status:      models.AccountActive,
			BannedUntil: user.BannedUntil,
		}
		profile, err := s.repos.Profile.GetByUserID(ctx, userID)
		if err != nil {
			return nil, wrapInternal("Failed to load profile", err)
		}
		if profile != nil {
			state.Status = profile.AccountStatus
		}
		return state, nil
	}

	if s.cache == nil {
		return load()
	}
	return cache.Remember(ctx, s.cache, s.logger, accountKeyPrefix+userID, accountStateTTL, load)
}

func (s *authService) SeedAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return NewValidationError("ADMIN_EMAIL and ADMIN_PASSWORD must be configured", nil)
	}

	var userID string
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		user, err := tx.User.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			user = &models.User{Email: email, PasswordHash: &hash}
			if err := tx.User.Create(ctx, user); err != nil {
				return err
			}
		}
		userID = user.ID

		if err := tx.Role.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return err
		}

		profile, err := tx.Profile.GetByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if profile == nil {
			if err := tx.Profile.Create(ctx, &models.Profile{UserID: user.ID, Name: "Administrator"}); err != nil {
				return err
			}
		}

		streak, err := tx.Gamification.GetStreak(ctx, user.ID)
		if err != nil {
			return err
		}
		if streak == nil {
			return tx.Gamification.SaveStreak(ctx, &models.UserStreak{UserID: user.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.invalidate(ctx, accountKeyPrefix+userID)
	s.logger.Info("Admin account ensured", zap.String("user_id", userID))
	return nil
}

// ===============================
// GOOGLE OAUTH
// ===============================

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *authService) GoogleEnabled() bool {
	return s.oauth != nil
}

func (s *authService) GoogleLoginURL(state string) (string, error) {
	if s.oauth == nil {
		return "", NewServiceUnavailableError("Google sign-in is not configured")
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	if s.oauth == nil {
		return nil, NewServiceUnavailableError("Google sign-in is not configured")
	}
	if code == "" {
		return nil, InvalidInputError("code", "is required")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("Google code exchange failed", zap.Error(err))
		return nil, NewUnauthorizedError("Google sign-in failed")
	}

	info, err := s.fetchGoogleUser(ctx, token)
	if err != nil {
		s.logger.Warn("Google user info failed", zap.Error(err))
		return nil, NewServiceUnavailableError("Google sign-in is temporarily unavailable")
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return nil, NewUnauthorizedError("Google account has no email address")
	}

	var userID string
	err = s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		user, err := tx.User.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user != nil {
			userID = user.ID
			return nil
		}

		user = &models.User{Email: email}
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		userID = user.ID

		name := strings.TrimSpace(info.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		if err := s.provisionAccount(ctx, tx, user.ID, name, nil, models.RoleCitizen); err != nil {
			return err
		}
		if info.Picture != "" {
			profile, err := tx.Profile.GetByUserID(ctx, user.ID)
			if err != nil || profile == nil {
				return err
			}
			profile.AvatarURL = &info.Picture
			return tx.Profile.Update(ctx, profile)
		}
		return nil
	})
	if err != nil {
		return nil, txError("Failed to complete Google sign-in", err)
	}

	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load account", err)
	}
	if user != nil && user.IsBanned(s.now()) {
		return nil, AccountSuspendedError()
	}
	return s.issue(ctx, userID)
}

func (s *authService) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &info, nil
}
