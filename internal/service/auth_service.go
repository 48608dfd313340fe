package service

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
	"github.com/yourorg/dataplane/internal/security/auth"
)

// AuthService handles authentication and user management
type AuthService struct {
	userRepo     domain.UserRepository
	tokenManager *auth.TokenManager
	policy       *security.Policy
	audit        *audit.Logger
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokenManager *auth.TokenManager,
	policy *security.Policy,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		policy:       policy,
		audit:        auditLog,
		logger:       logger,
	}
}

// LoginResult represents a successful login
type LoginResult struct {
	Token string
	User  *domain.User
}

// Login authenticates a user and issues a session token. Unknown emails and
// wrong passwords share one generic message; disabled accounts fail with a
// distinct reason before the hash is ever checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperror.BadRequest("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		s.audit.LogLogin(ctx, "", "failed", "unknown email")
		return nil, apperror.Auth("invalid credentials")
	}

	if user.Status == domain.StatusDisabled {
		s.audit.LogLogin(ctx, user.ID, "failed", "account disabled")
		return nil, apperror.Auth("account disabled by administration")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		s.audit.LogLogin(ctx, user.ID, "failed", "wrong password")
		return nil, apperror.Auth("invalid credentials")
	}

	token, err := s.tokenManager.Issue(principalOf(user), auth.DefaultTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	s.audit.LogLogin(ctx, user.ID, "succeeded", "")

	return &LoginResult{Token: token, User: user}, nil
}

// CreateUserParams describes the requested account
type CreateUserParams struct {
	Email       string
	Password    string
	Role        domain.Role
	TenantID    *string
	Status      string
	AccessLevel string
}

// CreateUser creates an account on behalf of an authenticated principal.
// Root may create any role in any tenant; a company admin may not create
// root accounts and has the target tenant forced to its own.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Principal, params CreateUserParams) (*domain.User, error) {
	if err := s.policy.Authorize(actor, security.ActionCreateUser); err != nil {
		s.audit.LogDenied(ctx, tenantOrEmpty(actor.TenantID), actor.ID, "create_user")
		return nil, err
	}
	if params.Email == "" || params.Password == "" {
		return nil, apperror.BadRequest("email and password are required")
	}
	if !params.Role.Valid() {
		return nil, apperror.BadRequest("unknown role")
	}

	tenantID, err := s.policy.ForceUserTenant(actor, params.Role, params.TenantID)
	if err != nil {
		s.audit.LogDenied(ctx, tenantOrEmpty(actor.TenantID), actor.ID, "create_user")
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = domain.StatusActive
	}
	accessLevel := params.AccessLevel
	if accessLevel == "" {
		accessLevel = domain.AccessReadWrite
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &domain.User{
		TenantID:     tenantID,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         params.Role,
		Status:       status,
		AccessLevel:  accessLevel,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperror.Storage(err)
	}

	s.audit.LogUserCreated(ctx, tenantOrEmpty(tenantID), actor.ID, user.ID)
	return user, nil
}

// ListUsers returns the users visible to the principal: a capped global
// listing for root, the own tenant for a company admin.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Principal) ([]*domain.User, error) {
	if err := s.policy.Authorize(actor, security.ActionListUsers); err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleRoot {
		users, err := s.userRepo.ListRecent(50)
		if err != nil {
			return nil, apperror.Storage(err)
		}
		return users, nil
	}

	if actor.TenantID == nil {
		return nil, apperror.Forbidden("admin has no tenant affiliation")
	}
	users, err := s.userRepo.ListByTenant(*actor.TenantID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return users, nil
}

// EnsureRootUser seeds the root account at startup when it does not exist.
func (s *AuthService) EnsureRootUser(email, password string) error {
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleRoot,
		Status:       domain.StatusActive,
		AccessLevel:  domain.AccessReadWrite,
	}
	if err := s.userRepo.Create(user); err != nil {
		return err
	}
	s.logger.Info("root user created", slog.String("email", email))
	return nil
}

func principalOf(user *domain.User) domain.Principal {
	return domain.Principal{
		ID:          user.ID,
		Role:        user.Role,
		TenantID:    user.TenantID,
		AccessLevel: user.AccessLevel,
	}
}

func tenantOrEmpty(tenantID *string) string {
	if tenantID == nil {
		return ""
	}
	return *tenantID
}
