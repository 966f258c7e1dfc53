package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	intentdomain "github.com/rahul-biziquick/BiziQuick/internal/authintent/domain"
	otpdomain "github.com/rahul-biziquick/BiziQuick/internal/otp/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	sessiondomain "github.com/rahul-biziquick/BiziQuick/internal/session/domain"
	tenantdomain "github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
	userdomain "github.com/rahul-biziquick/BiziQuick/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) GetByResetToken(ctx context.Context, token string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ResetToken == token && token != "" {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.byID[u.ID] = &u2
	r.byEmail[u.Email] = &u2
	return nil
}

func (r *memUserRepo) SetVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.Verified = true
	}
	return nil
}

func (r *memUserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (r *memUserRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.ResetToken = token
		t := expiresAt
		u.ResetTokenExpiresAt = &t
	}
	return nil
}

func (r *memUserRepo) ClearResetToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.ResetToken = ""
		u.ResetTokenExpiresAt = nil
	}
	return nil
}

type memTenantRepo struct {
	mu sync.Mutex
	m  map[string]*tenantdomain.Tenant
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func sessionKey(userID string, platform sessiondomain.Platform) string {
	return userID + "/" + string(platform)
}

func (r *memSessionRepo) GetByUserAndPlatform(ctx context.Context, userID string, platform sessiondomain.Platform) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[sessionKey(userID, platform)]
	if !ok {
		return nil, nil
	}
	s2 := *s
	return &s2, nil
}

func (r *memSessionRepo) BumpVersion(ctx context.Context, id, userID string, platform sessiondomain.Platform, sessionID string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey(userID, platform)
	s, ok := r.m[key]
	if !ok {
		s = &sessiondomain.Session{ID: id, UserID: userID, Platform: platform, CreatedAt: time.Now().UTC()}
		r.m[key] = s
	}
	s.SessionVersion++
	s.SessionID = sessionID
	s.UpdatedAt = time.Now().UTC()
	s2 := *s
	return &s2, nil
}

func (r *memSessionRepo) SetRefreshToken(ctx context.Context, userID string, platform sessiondomain.Platform, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[sessionKey(userID, platform)]; ok {
		s.RefreshTokenHash = tokenHash
		t := expiresAt
		s.RefreshExpiresAt = &t
	}
	return nil
}

func (r *memSessionRepo) ClearRefreshToken(ctx context.Context, userID string, platform sessiondomain.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[sessionKey(userID, platform)]; ok {
		s.RefreshTokenHash = ""
		s.RefreshExpiresAt = nil
		s.SessionID = ""
	}
	return nil
}

type memIntentRepo struct {
	mu sync.Mutex
	m  map[string]*intentdomain.Intent
}

func (r *memIntentRepo) Replace(ctx context.Context, i *intentdomain.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i2 := *i
	r.m[i.UserID] = &i2
	return nil
}

func (r *memIntentRepo) GetByUserID(ctx context.Context, userID string) (*intentdomain.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[userID], nil
}

func (r *memIntentRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, userID)
	return nil
}

type memOTPRepo struct {
	mu sync.Mutex
	m  map[string]*otpdomain.Code
}

func (r *memOTPRepo) Upsert(ctx context.Context, c *otpdomain.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c2 := *c
	r.m[c.Email] = &c2
	return nil
}

func (r *memOTPRepo) GetByEmail(ctx context.Context, email string) (*otpdomain.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[email], nil
}

func (r *memOTPRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, email)
	return nil
}

type memSender struct {
	mu        sync.Mutex
	lastOTP   string
	lastReset string
	fail      bool
}

func (s *memSender) SendOTP(ctx context.Context, email, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("send failed")
	}
	s.lastOTP = otp
	return nil
}

func (s *memSender) SendPasswordReset(ctx context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("send failed")
	}
	s.lastReset = token
	return nil
}

func (s *memSender) takeOTP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOTP
}

type testEnv struct {
	svc      *AuthService
	users    *memUserRepo
	tenants  *memTenantRepo
	sessions *memSessionRepo
	intents  *memIntentRepo
	otps     *memOTPRepo
	sender   *memSender
}

func newTestAuthService(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    &memUserRepo{byID: make(map[string]*userdomain.User), byEmail: make(map[string]*userdomain.User)},
		tenants:  &memTenantRepo{m: make(map[string]*tenantdomain.Tenant)},
		sessions: &memSessionRepo{m: make(map[string]*sessiondomain.Session)},
		intents:  &memIntentRepo{m: make(map[string]*intentdomain.Intent)},
		otps:     &memOTPRepo{m: make(map[string]*otpdomain.Code)},
		sender:   &memSender{},
	}
	env.tenants.m["tenant-a"] = &tenantdomain.Tenant{ID: "tenant-a", Name: "Tenant A", Plan: tenantdomain.PlanFree, Status: tenantdomain.StatusActive}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	env.svc = NewAuthService(
		env.users, env.tenants, env.sessions, env.intents, env.otps,
		security.NewHasher(4), tokens, env.sender,
		nil, // devOTP
		nil, // audit
		5*time.Minute, 168*time.Hour,
	)
	return env
}

func registerVerified(t *testing.T, env *testEnv, email, role string) string {
	t.Helper()
	ctx := context.Background()
	userID, err := env.svc.Register(ctx, "Jane", email, "Passw0rd!", role, "tenant-a")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := env.svc.VerifyRegisterOTP(ctx, email, env.sender.takeOTP()); err != nil {
		t.Fatalf("VerifyRegisterOTP: %v", err)
	}
	return userID
}

func loginVerified(t *testing.T, env *testEnv, email string, platform sessiondomain.Platform) *AuthResult {
	t.Helper()
	ctx := context.Background()
	if _, err := env.svc.Login(ctx, email, "Passw0rd!", platform); err != nil {
		t.Fatalf("Login: %v", err)
	}
	res, err := env.svc.VerifyLoginOTP(ctx, email, env.sender.takeOTP(), platform)
	if err != nil {
		t.Fatalf("VerifyLoginOTP: %v", err)
	}
	return res
}

func TestAuthService_Register(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()

	userID, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if userID == "" {
		t.Fatal("Register returned empty user id")
	}
	u, _ := env.users.GetByEmail(ctx, "jane@x.com")
	if u == nil {
		t.Fatal("user not persisted")
	}
	if u.Verified {
		t.Error("new user should be unverified")
	}
	if u.PasswordHash == "Passw0rd!" || u.PasswordHash == "" {
		t.Error("password should be stored hashed")
	}
	if env.sender.takeOTP() == "" {
		t.Error("registration should deliver an OTP")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := env.svc.Register(ctx, "Other", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate register: want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "Jane", "not-an-email", "Passw0rd!", userdomain.RoleManager, "tenant-a"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad email: want ErrInvalidInput, got %v", err)
	}
	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "short1", userdomain.RoleManager, "tenant-a"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("short password: want ErrInvalidInput, got %v", err)
	}
	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", "INTERN", "tenant-a"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role: want ErrInvalidRole, got %v", err)
	}
	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "no-such-tenant"); !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("unknown tenant: want ErrUnknownTenant, got %v", err)
	}
}

func TestAuthService_RegisterMailFailureAborts(t *testing.T) {
	env := newTestAuthService(t)
	env.sender.fail = true

	_, err := env.svc.Register(context.Background(), "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a")
	if err == nil {
		t.Fatal("Register should fail when OTP delivery fails")
	}
}

func TestAuthService_VerifyRegisterOTP(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := env.sender.takeOTP()

	if err := env.svc.VerifyRegisterOTP(ctx, "jane@x.com", "000000"); !errors.Is(err, ErrInvalidOTP) && code != "000000" {
		t.Errorf("wrong code: want ErrInvalidOTP, got %v", err)
	}
	if err := env.svc.VerifyRegisterOTP(ctx, "jane@x.com", code); err != nil {
		t.Fatalf("VerifyRegisterOTP: %v", err)
	}
	u, _ := env.users.GetByEmail(ctx, "jane@x.com")
	if !u.Verified {
		t.Error("user should be verified after OTP")
	}
	// single use
	if err := env.svc.VerifyRegisterOTP(ctx, "jane@x.com", code); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("reused code: want ErrInvalidOTP, got %v", err)
	}
}

func TestAuthService_LoginUnverified(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "Jane", "jane@x.com", "Passw0rd!", userdomain.RoleManager, "tenant-a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := env.svc.Login(ctx, "jane@x.com", "Passw0rd!", sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrNotVerified) {
		t.Errorf("unverified login: want ErrNotVerified, got %v", err)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)

	_, err := env.svc.Login(context.Background(), "jane@x.com", "wrong-pass1", sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LoginInvalidPlatform(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)

	_, err := env.svc.Login(context.Background(), "jane@x.com", "Passw0rd!", "DESKTOP")
	if !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("bad platform: want ErrInvalidPlatform, got %v", err)
	}
}

func TestAuthService_LoginReturnsPendingToken(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)

	res, err := env.svc.Login(context.Background(), "jane@x.com", "Passw0rd!", sessiondomain.PlatformWeb)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.PendingToken == "" {
		t.Error("Login should return a pending token")
	}
	if res.Platform != sessiondomain.PlatformWeb {
		t.Errorf("Platform = %q, want WEB", res.Platform)
	}
}

func TestAuthService_VerifyLoginOTP_SessionVersionIncrements(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)

	first := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	if first.SessionVersion != 1 {
		t.Errorf("first SessionVersion = %d, want 1", first.SessionVersion)
	}
	if first.AccessToken == "" || first.RefreshToken == "" {
		t.Fatal("tokens missing")
	}

	second := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	if second.SessionVersion != 2 {
		t.Errorf("second SessionVersion = %d, want 2", second.SessionVersion)
	}

	// refresh token captured before the second verification is dead
	_, _, err := env.svc.Refresh(context.Background(), first.RefreshToken, sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("stale refresh: want ErrRefreshInvalid, got %v", err)
	}
	// the current one works
	access, _, err := env.svc.Refresh(context.Background(), second.RefreshToken, sessiondomain.PlatformWeb)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Error("Refresh should return a new access token")
	}
}

func TestAuthService_PlatformsAreIndependent(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)

	web := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	mobile := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformMobile)

	if web.SessionVersion != 1 || mobile.SessionVersion != 1 {
		t.Errorf("versions = web %d, mobile %d; want independent counters at 1", web.SessionVersion, mobile.SessionVersion)
	}
	// mobile token cannot refresh on web
	if _, _, err := env.svc.Refresh(context.Background(), mobile.RefreshToken, sessiondomain.PlatformWeb); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("cross-platform refresh: want ErrRefreshInvalid, got %v", err)
	}
	// both remain valid on their own platform
	if _, _, err := env.svc.Refresh(context.Background(), web.RefreshToken, sessiondomain.PlatformWeb); err != nil {
		t.Errorf("web refresh: %v", err)
	}
	if _, _, err := env.svc.Refresh(context.Background(), mobile.RefreshToken, sessiondomain.PlatformMobile); err != nil {
		t.Errorf("mobile refresh: %v", err)
	}
}

func TestAuthService_VerifyLoginOTP_WrongPlatform(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	ctx := context.Background()

	if _, err := env.svc.Login(ctx, "jane@x.com", "Passw0rd!", sessiondomain.PlatformWeb); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, err := env.svc.VerifyLoginOTP(ctx, "jane@x.com", env.sender.takeOTP(), sessiondomain.PlatformMobile)
	if !errors.Is(err, ErrNoPendingLogin) {
		t.Errorf("platform mismatch: want ErrNoPendingLogin, got %v", err)
	}
}

func TestAuthService_VerifyLoginOTP_NoPendingLogin(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	ctx := context.Background()

	// store an OTP without a login
	if err := env.svc.issueOTP(ctx, "jane@x.com"); err != nil {
		t.Fatalf("issueOTP: %v", err)
	}
	_, err := env.svc.VerifyLoginOTP(ctx, "jane@x.com", env.sender.takeOTP(), sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrNoPendingLogin) {
		t.Errorf("no intent: want ErrNoPendingLogin, got %v", err)
	}
}

func TestAuthService_Refresh_TamperedToken(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	res := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)

	_, _, err := env.svc.Refresh(context.Background(), res.RefreshToken+"x", sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("tampered token: want ErrRefreshInvalid, got %v", err)
	}
}

func TestAuthService_Refresh_EmptyToken(t *testing.T) {
	env := newTestAuthService(t)
	_, _, err := env.svc.Refresh(context.Background(), "", sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("empty token: want ErrRefreshInvalid, got %v", err)
	}
}

func TestAuthService_Refresh_StoredExpiry(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	res := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	ctx := context.Background()

	// force the stored expiry into the past; the signed token is still valid
	u, _ := env.users.GetByEmail(ctx, "jane@x.com")
	_ = env.sessions.SetRefreshToken(ctx, u.ID, sessiondomain.PlatformWeb, security.HashRefreshToken(res.RefreshToken), time.Now().Add(-time.Minute))

	_, _, err := env.svc.Refresh(ctx, res.RefreshToken, sessiondomain.PlatformWeb)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("expired stored token: want ErrRefreshInvalid, got %v", err)
	}
}

func TestAuthService_LogoutThenRefresh(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	res := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	ctx := context.Background()

	if err := env.svc.Logout(ctx, "jane@x.com", sessiondomain.PlatformWeb); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := env.svc.Refresh(ctx, res.RefreshToken, sessiondomain.PlatformWeb); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("refresh after logout: want ErrRefreshInvalid, got %v", err)
	}
}

func TestAuthService_LogoutErrors(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	ctx := context.Background()

	if err := env.svc.Logout(ctx, "nobody@x.com", sessiondomain.PlatformWeb); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: want ErrUserNotFound, got %v", err)
	}
	if err := env.svc.Logout(ctx, "jane@x.com", sessiondomain.PlatformWeb); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("no session: want ErrNotLoggedIn, got %v", err)
	}
	if err := env.svc.Logout(ctx, "jane@x.com", "DESKTOP"); !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("bad platform: want ErrInvalidPlatform, got %v", err)
	}
}

func TestAuthService_LogoutPreservesSessionVersion(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	ctx := context.Background()

	if err := env.svc.Logout(ctx, "jane@x.com", sessiondomain.PlatformWeb); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	u, _ := env.users.GetByEmail(ctx, "jane@x.com")
	sess, _ := env.sessions.GetByUserAndPlatform(ctx, u.ID, sessiondomain.PlatformWeb)
	if sess.SessionVersion != 1 {
		t.Errorf("SessionVersion after logout = %d, want 1 (unchanged)", sess.SessionVersion)
	}
	// next login continues the counter
	res := loginVerified(t, env, "jane@x.com", sessiondomain.PlatformWeb)
	if res.SessionVersion != 2 {
		t.Errorf("SessionVersion after re-login = %d, want 2", res.SessionVersion)
	}
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	env := newTestAuthService(t)
	registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	ctx := context.Background()

	if err := env.svc.ForgotPassword(ctx, "jane@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	token := env.sender.lastReset
	if token == "" {
		t.Fatal("reset token not delivered")
	}
	if err := env.svc.ResetPassword(ctx, token, "NewPassw0rd"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	// old password no longer works, new one does
	if _, err := env.svc.Login(ctx, "jane@x.com", "Passw0rd!", sessiondomain.PlatformWeb); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password after reset: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.svc.Login(ctx, "jane@x.com", "NewPassw0rd", sessiondomain.PlatformWeb); err != nil {
		t.Errorf("new password: %v", err)
	}
	// token is single use
	if err := env.svc.ResetPassword(ctx, token, "AnotherPass1"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("reused reset token: want ErrResetTokenInvalid, got %v", err)
	}
}

func TestAuthService_ResetPasswordExpiredToken(t *testing.T) {
	env := newTestAuthService(t)
	userID := registerVerified(t, env, "jane@x.com", userdomain.RoleManager)
	ctx := context.Background()

	_ = env.users.SetResetToken(ctx, userID, "expired-token", time.Now().Add(-time.Minute))
	if err := env.svc.ResetPassword(ctx, "expired-token", "NewPassw0rd"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("expired reset token: want ErrResetTokenInvalid, got %v", err)
	}
}

func TestAuthService_ForgotPasswordUnknownUser(t *testing.T) {
	env := newTestAuthService(t)
	if err := env.svc.ForgotPassword(context.Background(), "nobody@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: want ErrUserNotFound, got %v", err)
	}
}
