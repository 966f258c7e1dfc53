// Package service implements the auth orchestration: registration, OTP-gated
// login, per-platform token refresh, logout, and password reset.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	intentdomain "github.com/rahul-biziquick/BiziQuick/internal/authintent/domain"
	intentrepo "github.com/rahul-biziquick/BiziQuick/internal/authintent/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/devotp"
	"github.com/rahul-biziquick/BiziQuick/internal/mailer"
	"github.com/rahul-biziquick/BiziQuick/internal/otp"
	otpdomain "github.com/rahul-biziquick/BiziQuick/internal/otp/domain"
	otprepo "github.com/rahul-biziquick/BiziQuick/internal/otp/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	sessiondomain "github.com/rahul-biziquick/BiziQuick/internal/session/domain"
	tenantdomain "github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
	userdomain "github.com/rahul-biziquick/BiziQuick/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	// ErrInvalidInput wraps field validation failures.
	ErrInvalidInput = errors.New("invalid input")

	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidRole            = errors.New("role is not allowed")
	ErrUnknownTenant          = errors.New("tenant does not exist")
	ErrInvalidPlatform        = errors.New("platform must be WEB or MOBILE")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrNotVerified            = errors.New("account is not verified")
	ErrInvalidOTP             = errors.New("invalid or expired OTP")
	ErrNoPendingLogin         = errors.New("no matching pending login")
	ErrRefreshInvalid         = errors.New("refresh token expired or invalid")
	ErrUserNotFound           = errors.New("user not found")
	ErrNotLoggedIn            = errors.New("no active session for platform")
	ErrResetTokenInvalid      = errors.New("invalid or expired reset token")
)

// ResetTokenTTL is the password-reset token validity window.
const ResetTokenTTL = 15 * time.Minute

// AuthResult holds issued tokens after a successful OTP verification.
type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	UserID           string
	Role             string
	TenantID         string
	SessionVersion   int64
}

// LoginResult holds the pending-login handle returned before OTP verification.
type LoginResult struct {
	PendingToken string
	Platform     sessiondomain.Platform
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByResetToken(ctx context.Context, token string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
}

// TenantRepo is the minimal tenant repository needed by the auth service.
type TenantRepo interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByUserAndPlatform(ctx context.Context, userID string, platform sessiondomain.Platform) (*sessiondomain.Session, error)
	BumpVersion(ctx context.Context, id, userID string, platform sessiondomain.Platform, sessionID string) (*sessiondomain.Session, error)
	SetRefreshToken(ctx context.Context, userID string, platform sessiondomain.Platform, tokenHash string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, userID string, platform sessiondomain.Platform) error
}

// IntentRepo is the minimal pending-login repository needed by the auth service.
type IntentRepo interface {
	Replace(ctx context.Context, i *intentdomain.Intent) error
	GetByUserID(ctx context.Context, userID string) (*intentdomain.Intent, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// OTPRepo is the minimal OTP code repository needed by the auth service.
type OTPRepo interface {
	Upsert(ctx context.Context, c *otpdomain.Code) error
	GetByEmail(ctx context.Context, email string) (*otpdomain.Code, error)
	Delete(ctx context.Context, email string) error
}

// AuditLogger records auth events best-effort.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID, action, resource, metadata string)
}

// AuthService coordinates registration, login, OTP verification, refresh,
// logout, and password reset against the repositories and token provider.
type AuthService struct {
	userRepo    UserRepo
	tenantRepo  TenantRepo
	sessionRepo SessionRepo
	intentRepo  IntentRepo
	otpRepo     OTPRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	sender      mailer.Sender
	devOTP      devotp.Store // nil unless dev OTP mode is enabled
	audit       AuditLogger  // nil disables audit logging
	otpTTL      time.Duration
	refreshTTL  time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// devOTP is nil in production; when set, OTPs are stored there instead of emailed.
func NewAuthService(
	userRepo UserRepo,
	tenantRepo TenantRepo,
	sessionRepo SessionRepo,
	intentRepo IntentRepo,
	otpRepo OTPRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	sender mailer.Sender,
	devOTP devotp.Store,
	audit AuditLogger,
	otpTTL, refreshTTL time.Duration,
) *AuthService {
	if otpTTL <= 0 {
		otpTTL = otprepo.DefaultCodeTTL
	}
	return &AuthService{
		userRepo:    userRepo,
		tenantRepo:  tenantRepo,
		sessionRepo: sessionRepo,
		intentRepo:  intentRepo,
		otpRepo:     otpRepo,
		hasher:      hasher,
		tokens:      tokens,
		sender:      sender,
		devOTP:      devOTP,
		audit:       audit,
		otpTTL:      otpTTL,
		refreshTTL:  refreshTTL,
	}
}

// Register creates an unverified user, stores an OTP for the email, and
// delivers it. Fails Conflict on duplicate email, InvalidInput on bad role or
// unknown tenant. Returns the new user's id.
func (s *AuthService) Register(ctx context.Context, name, email, password, role, tenantID string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if !userdomain.RoleAllowed(role) {
		return "", ErrInvalidRole
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID != "" {
		t, err := s.tenantRepo.GetByID(ctx, tenantID)
		if err != nil {
			return "", err
		}
		if t == nil {
			return "", ErrUnknownTenant
		}
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}
	if err := s.issueOTP(ctx, email); err != nil {
		return "", err
	}
	s.logEvent(ctx, tenantID, user.ID, "register", "user", email)
	return user.ID, nil
}

// VerifyRegisterOTP checks the emailed code and marks the user verified.
// The code is single-use: it is deleted on success.
func (s *AuthService) VerifyRegisterOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.consumeOTP(ctx, email, code); err != nil {
		return err
	}
	if err := s.userRepo.SetVerified(ctx, user.ID); err != nil {
		return err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "verify_register_otp", "user", email)
	return nil
}

// Login checks credentials and opens a pending login: an intent row replaces
// any prior one and an OTP is delivered. No tokens are issued yet.
func (s *AuthService) Login(ctx context.Context, email, password string, platform sessiondomain.Platform) (*LoginResult, error) {
	if !sessiondomain.PlatformValid(platform) {
		return nil, ErrInvalidPlatform
	}
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logEvent(ctx, "", "", "login_failure", "session", email)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.TenantID, user.ID, "login_failure", "session", email)
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	now := time.Now().UTC()
	intent := &intentdomain.Intent{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     email,
		Platform:  string(platform),
		ExpiresAt: now.Add(intentrepo.DefaultIntentTTL),
		CreatedAt: now,
	}
	if err := s.intentRepo.Replace(ctx, intent); err != nil {
		return nil, err
	}
	if err := s.issueOTP(ctx, email); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "login_pending", "session", string(platform))
	return &LoginResult{PendingToken: intent.ID, Platform: platform}, nil
}

// VerifyLoginOTP completes a pending login: it consumes the OTP and intent,
// advances the session version for the platform, and issues tokens. Refresh
// tokens issued under earlier versions become invalid.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, code string, platform sessiondomain.Platform) (*AuthResult, error) {
	if !sessiondomain.PlatformValid(platform) {
		return nil, ErrInvalidPlatform
	}
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.consumeOTP(ctx, email, code); err != nil {
		return nil, err
	}
	intent, err := s.intentRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if intent == nil || intent.Platform != string(platform) || !intent.ExpiresAt.After(now) {
		return nil, ErrNoPendingLogin
	}
	if err := s.intentRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	sess, err := s.sessionRepo.BumpVersion(ctx, uuid.New().String(), user.ID, platform, sessionID)
	if err != nil {
		return nil, err
	}
	id := security.Identity{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		TenantID:       user.TenantID,
		Platform:       string(platform),
		SessionID:      sessionID,
		SessionVersion: sess.SessionVersion,
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refreshToken, _, refreshExp, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.SetRefreshToken(ctx, user.ID, platform, security.HashRefreshToken(refreshToken), refreshExp); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "login", "session", string(platform))
	return &AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		UserID:           user.ID,
		Role:             user.Role,
		TenantID:         user.TenantID,
		SessionVersion:   sess.SessionVersion,
	}, nil
}

// Refresh issues a new access token for a valid refresh token. The stored
// refresh token must match exactly, be unexpired, and carry the current
// session version. Every failure is normalized to ErrRefreshInvalid so the
// caller cannot learn which check failed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, platform sessiondomain.Platform) (accessToken string, expiresAt time.Time, err error) {
	if !sessiondomain.PlatformValid(platform) {
		return "", time.Time{}, ErrInvalidPlatform
	}
	if refreshToken == "" {
		return "", time.Time{}, ErrRefreshInvalid
	}
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrRefreshInvalid
	}
	if claims.Platform != string(platform) {
		return "", time.Time{}, ErrRefreshInvalid
	}
	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil || user.Role != claims.Role {
		return "", time.Time{}, ErrRefreshInvalid
	}
	sess, err := s.sessionRepo.GetByUserAndPlatform(ctx, user.ID, platform)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	if sess == nil || sess.RefreshTokenHash == "" {
		return "", time.Time{}, ErrRefreshInvalid
	}
	if !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return "", time.Time{}, ErrRefreshInvalid
	}
	if sess.RefreshExpiresAt == nil || !sess.RefreshExpiresAt.After(now) {
		return "", time.Time{}, ErrRefreshInvalid
	}
	if claims.SessionVersion != sess.SessionVersion {
		return "", time.Time{}, ErrRefreshInvalid
	}
	id := security.Identity{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		TenantID:       user.TenantID,
		Platform:       string(platform),
		SessionID:      sess.SessionID,
		SessionVersion: sess.SessionVersion,
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(id)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, accessExp, nil
}

// Logout clears the platform's refresh token and session id. It fails
// InvalidInput when no session is stored rather than silently succeeding.
// SessionVersion is intentionally left unchanged.
func (s *AuthService) Logout(ctx context.Context, email string, platform sessiondomain.Platform) error {
	if !sessiondomain.PlatformValid(platform) {
		return ErrInvalidPlatform
	}
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	sess, err := s.sessionRepo.GetByUserAndPlatform(ctx, user.ID, platform)
	if err != nil {
		return err
	}
	if sess == nil || sess.RefreshTokenHash == "" {
		return ErrNotLoggedIn
	}
	if err := s.sessionRepo.ClearRefreshToken(ctx, user.ID, platform); err != nil {
		return err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "logout", "session", string(platform))
	return nil
}

// ForgotPassword stores a single-use reset token on the user and emails it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	token := uuid.New().String()
	expiresAt := time.Now().UTC().Add(ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}
	if err := s.sender.SendPasswordReset(ctx, email, token); err != nil {
		return err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "forgot_password", "user", email)
	return nil
}

// ResetPassword sets a new password for the user holding the unexpired reset
// token and clears the token. Session state is untouched.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil || user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(time.Now().UTC()) {
		return ErrResetTokenInvalid
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hashed); err != nil {
		return err
	}
	if err := s.userRepo.ClearResetToken(ctx, user.ID); err != nil {
		return err
	}
	s.logEvent(ctx, user.TenantID, user.ID, "reset_password", "user", user.Email)
	return nil
}

// issueOTP generates a code, stores its hash with expiry, and delivers it.
// In dev OTP mode the plain code goes to the in-memory store instead of email.
func (s *AuthService) issueOTP(ctx context.Context, email string) error {
	code, err := otp.GenerateOTP()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.otpTTL)
	if err := s.otpRepo.Upsert(ctx, &otpdomain.Code{
		Email:     email,
		CodeHash:  otp.HashOTP(code),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	if s.devOTP != nil {
		s.devOTP.Put(ctx, email, code, expiresAt)
		return nil
	}
	return s.sender.SendOTP(ctx, email, code)
}

// consumeOTP validates and deletes the stored code for email.
func (s *AuthService) consumeOTP(ctx context.Context, email, code string) error {
	stored, err := s.otpRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if stored == nil || !stored.ExpiresAt.After(time.Now().UTC()) {
		return ErrInvalidOTP
	}
	if !otp.OTPEqual(code, stored.CodeHash) {
		return ErrInvalidOTP
	}
	return s.otpRepo.Delete(ctx, email)
}

func (s *AuthService) logEvent(ctx context.Context, tenantID, userID, action, resource, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, tenantID, userID, action, resource, metadata)
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return fmt.Errorf("%w: password must contain letters and numbers", ErrInvalidInput)
	}
	return nil
}
