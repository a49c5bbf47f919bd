package auth

import (
	"context"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/mail"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage/memory"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type fixture struct {
	svc    *AuthService
	repos  *repo.Repositories
	mailer *mail.ConsoleSender
	jwt    *JWTManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repo.New(memory.New(), nil)
	mailer := mail.NewConsoleSender(logger.Discard(), "")
	manager := NewJWTManager("secret", "zuluskills", 15*time.Minute, 24*time.Hour)
	svc := NewAuthService(logger.Discard(), manager, repos.Users, repos.Students, memory.NewTokenStore(nil), mailer, LinkOptions{
		TTL:         15 * time.Minute,
		RedirectURL: "https://admin.example.com/login?next=%2Fadmin",
	})
	return &fixture{svc: svc, repos: repos, mailer: mailer, jwt: manager}
}

type recorder struct {
	mu     sync.Mutex
	events []EventType
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e.Type)
	r.mu.Unlock()
}

func TestSignUpAndSignInWithPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &recorder{}
	f.svc.OnAuthStateChange(rec.record)

	user, err := f.svc.SignUp(ctx, " Ann@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)

	profile, err := f.repos.Students.FetchByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)

	_, err = f.svc.SignUp(ctx, "ann@example.com", "hunter22")
	assert.ErrorIs(t, err, app_errors.ErrUserExists)

	_, err = f.svc.SignInWithPassword(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, app_errors.ErrIncorrectPassword)

	session, err := f.svc.SignInWithPassword(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, models.StudentRole, session.User.Role)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	current, err := f.svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.True(t, current.ID.Equal(user.ID))
	assert.Equal(t, "ann@example.com", current.Email)

	assert.Equal(t, []EventType{SignedIn}, rec.events)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SignUp(context.Background(), "not an email", "hunter22")
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)

	_, err = f.svc.SignUp(context.Background(), "a@b.c", "123")
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)
}

var tokenParam = regexp.MustCompile(`https://\S+`)

func linkToken(t *testing.T, msg mail.Message) string {
	t.Helper()
	raw := tokenParam.FindString(msg.Text)
	require.NotEmpty(t, raw)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/admin", u.Query().Get("next"))
	return u.Query().Get("token")
}

func TestEmailLink_CreatesUserOnFirstSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendEmailLink(ctx, "new@example.com"))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "new@example.com", sent[0].To.Address)
	token := linkToken(t, sent[0])

	session, err := f.svc.SignInWithEmailLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", session.User.Email)

	profile, err := f.repos.Students.FetchByID(ctx, session.User.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "new@example.com", profile.Email)

	_, err = f.svc.SignInWithEmailLink(ctx, token)
	assert.ErrorIs(t, err, app_errors.ErrLinkExpired)

	require.NoError(t, f.svc.SendEmailLink(ctx, "new@example.com"))
	again, err := f.svc.SignInWithEmailLink(ctx, linkToken(t, f.mailer.Sent()[1]))
	require.NoError(t, err)
	assert.True(t, again.User.ID.Equal(session.User.ID))
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &recorder{}
	unsubscribe := f.svc.OnAuthStateChange(rec.record)

	_, err := f.svc.SignUp(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	session, err := f.svc.SignInWithPassword(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, app_errors.ErrTokenNotFound)

	_, err = f.svc.Refresh(ctx, next.AccessToken)
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)

	require.NoError(t, f.svc.SignOut(ctx, next.User))
	_, err = f.svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, app_errors.ErrTokenNotFound)

	unsubscribe()
	unsubscribe()
	_, err = f.svc.SignInWithPassword(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, []EventType{SignedIn, TokenRefreshed, SignedOut}, rec.events)
}

func TestAuthenticate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)

	other := NewJWTManager("other-secret", "zuluskills", time.Minute, time.Minute)
	pair, err := other.GenerateTokenPair(models.User{ID: "u1"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, pair.AccessToken.Raw)
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)

	expired := NewJWTManager("secret", "zuluskills", time.Minute, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err = expired.GenerateTokenPair(models.User{ID: "u1"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, pair.AccessToken.Raw)
	assert.ErrorIs(t, err, app_errors.ErrTokenExpired)
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)

	ctx := WithCurrentUser(context.Background(), models.CurrentUser{ID: "u1", Role: models.AdminRole})
	user, err := CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AdminRole, user.Role)
}
