package auth

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/mail"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type AuthRepo interface {
	CreateUser(ctx context.Context, email string, passwordHash *string, role string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id models.ID) (*models.User, error)
}

type profileRepo interface {
	Create(ctx context.Context, id models.ID, email string) (*models.Profile, error)
}

type tokenRepo interface {
	SaveRefresh(ctx context.Context, userID models.ID, token string, ttl time.Duration) error
	RefreshOwner(ctx context.Context, token string) (models.ID, error)
	DeleteUserTokens(ctx context.Context, userID models.ID) error
	SaveLink(ctx context.Context, token, email string, ttl time.Duration) error
	ConsumeLink(ctx context.Context, token string) (string, error)
}

type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
)

type Event struct {
	Type EventType
	User models.CurrentUser
}

type LinkOptions struct {
	TTL         time.Duration
	RedirectURL string
}

type AuthService struct {
	log        logger.Log
	jwtManager *JWTManager
	authRepo   AuthRepo
	profiles   profileRepo
	tokenRepo  tokenRepo
	mailer     mail.Sender
	link       LinkOptions

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func(Event)
}

func NewAuthService(l logger.Log, manager *JWTManager, aRepo AuthRepo, profiles profileRepo, tRepo tokenRepo, mailer mail.Sender, link LinkOptions) *AuthService {
	return &AuthService{
		log:        l,
		jwtManager: manager,
		authRepo:   aRepo,
		profiles:   profiles,
		tokenRepo:  tRepo,
		mailer:     mailer,
		link:       link,
		listeners:  make(map[int]func(Event)),
	}
}

// OnAuthStateChange registers fn for sign-in, sign-out and refresh events.
// The returned func removes it.
func (u *AuthService) OnAuthStateChange(fn func(Event)) (unsubscribe func()) {
	u.mu.Lock()
	id := u.nextSub
	u.nextSub++
	u.listeners[id] = fn
	u.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			u.mu.Lock()
			delete(u.listeners, id)
			u.mu.Unlock()
		})
	}
}

func (u *AuthService) emit(t EventType, user models.CurrentUser) {
	u.mu.Lock()
	fns := make([]func(Event), 0, len(u.listeners))
	for _, fn := range u.listeners {
		fns = append(fns, fn)
	}
	u.mu.Unlock()

	for _, fn := range fns {
		fn(Event{Type: t, User: user})
	}
}

func currentUser(user models.User) models.CurrentUser {
	role := user.Role
	if role == "" {
		role = models.StudentRole
	}
	return models.CurrentUser{ID: user.ID, Email: user.Email, Role: role}
}

// issue creates a token pair, replacing every refresh token the user held.
func (u *AuthService) issue(ctx context.Context, user models.User) (*models.Session, error) {
	tokenPair, err := u.jwtManager.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := u.tokenRepo.DeleteUserTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := u.tokenRepo.SaveRefresh(ctx, user.ID, tokenPair.RefreshToken.Raw, u.jwtManager.RefreshTTL()); err != nil {
		return nil, err
	}

	session := &models.Session{
		AccessToken:  tokenPair.AccessToken.Raw,
		RefreshToken: tokenPair.RefreshToken.Raw,
		User:         currentUser(user),
	}
	if exp, err := tokenPair.AccessToken.Claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

func (u *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := u.authRepo.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil || !checkPasswordHash(password, *user.PasswordHash) {
		return nil, app_errors.ErrIncorrectPassword
	}

	session, err := u.issue(ctx, *user)
	if err != nil {
		return nil, err
	}
	u.log.Info("user signed in", "user_id", user.ID.String(), "method", "password")
	u.emit(SignedIn, session.User)
	return session, nil
}

// SignUp creates a password account and its profile.
func (u *AuthService) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return nil, err
	}
	if len(password) > 72 || len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be 6 to 72 characters", app_errors.ErrInvalidInput)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := u.authRepo.CreateUser(ctx, email, &hash, models.StudentRole)
	if err != nil {
		return nil, err
	}
	if _, err := u.profiles.Create(ctx, user.ID, user.Email); err != nil {
		return nil, err
	}
	return user, nil
}

// SendEmailLink mails a single-use sign-in link to email.
func (u *AuthService) SendEmailLink(ctx context.Context, email string) error {
	email, err := normalizeAddress(email)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := u.tokenRepo.SaveLink(ctx, token, email, u.link.TTL); err != nil {
		return err
	}

	link, err := u.linkURL(token)
	if err != nil {
		return err
	}
	err = u.mailer.Send(ctx, mail.Message{
		To:      netmail.Address{Address: email},
		Subject: "Your sign-in link",
		Text:    fmt.Sprintf("Sign in: %s\nThe link expires in %s.", link, u.link.TTL),
		HTML:    fmt.Sprintf(`<p><a href="%s">Sign in</a></p><p>The link expires in %s.</p>`, link, u.link.TTL),
	})
	if err != nil {
		return err
	}
	u.log.Info("sign-in link sent", "email", email)
	return nil
}

func (u *AuthService) linkURL(token string) (string, error) {
	base, err := url.Parse(u.link.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}
	q := base.Query()
	q.Set("token", token)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// SignInWithEmailLink consumes a link token. The first sign-in of an
// address creates the user and its profile.
func (u *AuthService) SignInWithEmailLink(ctx context.Context, token string) (*models.Session, error) {
	email, err := u.tokenRepo.ConsumeLink(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	user, err := u.authRepo.UserByEmail(ctx, email)
	if errors.Is(err, app_errors.ErrUserNotFound) {
		user, err = u.authRepo.CreateUser(ctx, email, nil, models.StudentRole)
		if err != nil {
			return nil, err
		}
		if _, err := u.profiles.Create(ctx, user.ID, user.Email); err != nil {
			return nil, err
		}
		u.log.Info("user created from sign-in link", "user_id", user.ID.String())
	} else if err != nil {
		return nil, err
	}

	session, err := u.issue(ctx, *user)
	if err != nil {
		return nil, err
	}
	u.log.Info("user signed in", "user_id", user.ID.String(), "method", "link")
	u.emit(SignedIn, session.User)
	return session, nil
}

func (u *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	claims, err := u.jwtManager.RefreshClaims(refreshToken)
	if err != nil {
		return nil, err
	}
	owner, err := u.tokenRepo.RefreshOwner(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !owner.Equal(claims.UserID) {
		return nil, app_errors.ErrTokenNotFound
	}
	user, err := u.authRepo.UserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	session, err := u.issue(ctx, *user)
	if err != nil {
		return nil, err
	}
	u.emit(TokenRefreshed, session.User)
	return session, nil
}

func (u *AuthService) SignOut(ctx context.Context, user models.CurrentUser) error {
	if err := u.tokenRepo.DeleteUserTokens(ctx, user.ID); err != nil {
		return err
	}
	u.log.Info("user signed out", "user_id", user.ID.String())
	u.emit(SignedOut, user)
	return nil
}

// Authenticate resolves an access token to the user it was issued for.
func (u *AuthService) Authenticate(_ context.Context, accessToken string) (*models.CurrentUser, error) {
	claims, err := u.jwtManager.AccessClaims(accessToken)
	if err != nil {
		return nil, err
	}
	role := models.StudentRole
	if len(claims.Roles) > 0 {
		role = claims.Roles[0]
	}
	return &models.CurrentUser{ID: claims.UserID, Email: claims.Email, Role: role}, nil
}

func (u *AuthService) User(ctx context.Context, id models.ID) (*models.User, error) {
	return u.authRepo.UserByID(ctx, id)
}

type ctxKey struct{}

func WithCurrentUser(ctx context.Context, user models.CurrentUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// CurrentUser returns the signed-in user carried by ctx or
// app_errors.ErrNotAuthenticated.
func CurrentUser(ctx context.Context) (models.CurrentUser, error) {
	user, ok := ctx.Value(ctxKey{}).(models.CurrentUser)
	if !ok || user.ID.IsZero() {
		return models.CurrentUser{}, app_errors.ErrNotAuthenticated
	}
	return user, nil
}

func normalizeAddress(email string) (string, error) {
	addr, err := netmail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("%w: %v", app_errors.ErrInvalidInput, err)
	}
	return strings.ToLower(addr.Address), nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
