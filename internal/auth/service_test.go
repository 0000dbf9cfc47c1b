package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookly/bookly-api/internal/models"
)

type testEnv struct {
	svc         *Service
	users       *fakeUsers
	revocations *fakeRevocations
	mailer      *recordingMailer
	tokens      *TokenCodec
	links       *LinkCodec
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	tokens, err := NewTokenCodec("test-secret", "HS256", time.Hour, 2*time.Hour)
	require.NoError(t, err)
	links, err := NewLinkCodec("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		users:       newFakeUsers(),
		revocations: newFakeRevocations(),
		mailer:      &recordingMailer{},
		tokens:      tokens,
		links:       links,
	}
	env.svc = NewService(Options{
		Users:         env.users,
		Revocations:   env.revocations,
		Mailer:        env.mailer,
		Tokens:        tokens,
		Links:         links,
		Hasher:        NewHasher(bcrypt.MinCost),
		RevocationTTL: 2 * time.Hour,
		PublicBaseURL: "http://bookly.test/",
		Policy:        policy,
	})
	return env
}

func (e *testEnv) signup(t *testing.T, email, password string) *models.User {
	t.Helper()
	user, err := e.svc.Signup(context.Background(), SignupInput{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	res, err := e.svc.Login(context.Background(), email, password)
	require.NoError(t, err)
	return res
}

func bearer(token string) Credentials {
	return Credentials{Scheme: "Bearer", Token: token}
}

var linkToken = regexp.MustCompile(`/api/v1/auth/(?:verify|password-reset-confirm)/([A-Za-z0-9_\-.]+)`)

func (e *testEnv) lastLinkToken(t *testing.T) string {
	t.Helper()
	msg, ok := e.mailer.last()
	require.True(t, ok, "no mail dispatched")
	m := linkToken.FindStringSubmatch(msg.HTMLBody)
	require.Len(t, m, 2, "no link in %q", msg.HTMLBody)
	return m[1]
}

func TestSignupCreatesUnverifiedUser(t *testing.T) {
	env := newTestEnv(t, Policy{})
	user := env.signup(t, "  Ada@Example.com ", "secret1")

	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.Verified)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	msg, ok := env.mailer.last()
	require.True(t, ok)
	assert.Equal(t, []string{"ada@example.com"}, msg.Recipients)
	assert.Contains(t, msg.HTMLBody, "http://bookly.test/api/v1/auth/verify/")
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")

	_, err := env.svc.Signup(context.Background(), SignupInput{Email: "ADA@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestSignupShortPassword(t *testing.T) {
	env := newTestEnv(t, Policy{})
	_, err := env.svc.Signup(context.Background(), SignupInput{Email: "ada@example.com", Password: "12345"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSignupLongPassword(t *testing.T) {
	env := newTestEnv(t, Policy{})
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, SignupInput{Email: "ada@example.com", Password: strings.Repeat("a", MaxPasswordLength+1)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 40 runes, 80 bytes
	_, err = env.svc.Signup(ctx, SignupInput{Email: "ada@example.com", Password: strings.Repeat("é", 40)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	user, err := env.svc.Signup(ctx, SignupInput{Email: "ada@example.com", Password: strings.Repeat("a", MaxPasswordLength)})
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestSignupSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.mailer.err = errors.New("queue down")

	user := env.signup(t, "ada@example.com", "secret1")
	assert.NotNil(t, user)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	env := newTestEnv(t, Policy{})
	user := env.signup(t, "ada@example.com", "secret1")

	res := env.login(t, "ada@example.com", "secret1")
	assert.Equal(t, user.ID, res.User.ID)

	access, err := env.tokens.Decode(res.AccessToken)
	require.NoError(t, err)
	assert.False(t, access.Refresh)
	assert.Equal(t, user.ID.String(), access.User.UID)
	assert.Equal(t, "user", access.User.Role)

	refresh, err := env.tokens.Decode(res.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.Refresh)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")

	_, err := env.svc.Login(context.Background(), "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginVerificationPolicy(t *testing.T) {
	env := newTestEnv(t, Policy{LoginRequiresVerified: true})
	env.signup(t, "ada@example.com", "secret1")

	_, err := env.svc.Login(context.Background(), "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountNotVerified)

	_, err = env.svc.VerifyEmail(context.Background(), env.lastLinkToken(t))
	require.NoError(t, err)

	env.login(t, "ada@example.com", "secret1")
}

func TestVerifyStateMachine(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")
	ctx := context.Background()

	t.Run("access token accepted", func(t *testing.T) {
		claims, err := env.svc.Verify(ctx, bearer(res.AccessToken), KindAccess)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", claims.User.Email)
	})
	t.Run("scheme is case insensitive", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, Credentials{Scheme: "bearer", Token: res.AccessToken}, KindAccess)
		assert.NoError(t, err)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, Credentials{Scheme: "Basic", Token: res.AccessToken}, KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("empty token", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, bearer(""), KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage token", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, bearer("not.a.token"), KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("refresh where access required", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, bearer(res.RefreshToken), KindAccess)
		assert.ErrorIs(t, err, ErrAccessTokenRequired)
	})
	t.Run("access where refresh required", func(t *testing.T) {
		_, err := env.svc.Verify(ctx, bearer(res.AccessToken), KindRefresh)
		assert.ErrorIs(t, err, ErrRefreshTokenRequired)
	})
}

func TestVerifyChecksRevocationBeforeKind(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")

	refresh, err := env.tokens.Decode(res.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, env.revocations.MarkRevoked(context.Background(), refresh.ID, time.Hour))

	_, err = env.svc.Verify(context.Background(), bearer(res.RefreshToken), KindAccess)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")

	issued := time.Now().Truncate(time.Second)
	env.tokens.now = func() time.Time { return issued }
	res := env.login(t, "ada@example.com", "secret1")

	env.tokens.now = func() time.Time { return issued.Add(time.Hour) }
	_, err := env.svc.Verify(context.Background(), bearer(res.AccessToken), KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrExpired)

	// The refresh token outlives the access token.
	_, err = env.svc.Verify(context.Background(), bearer(res.RefreshToken), KindRefresh)
	assert.NoError(t, err)
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	env := newTestEnv(t, Policy{})
	user := env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")

	got, claims, err := env.svc.Authenticate(context.Background(), bearer(res.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, claims.ID)

	env.users.remove(user.ID)
	_, _, err = env.svc.Authenticate(context.Background(), bearer(res.AccessToken))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")
	ctx := context.Background()

	access, err := env.svc.Refresh(ctx, bearer(res.RefreshToken))
	require.NoError(t, err)

	claims, err := env.svc.Verify(ctx, bearer(access), KindAccess)
	require.NoError(t, err)
	assert.False(t, claims.Refresh)
	assert.Equal(t, "ada@example.com", claims.User.Email)

	// The refresh token is not rotated.
	_, err = env.svc.Refresh(ctx, bearer(res.RefreshToken))
	assert.NoError(t, err)

	_, err = env.svc.Refresh(ctx, bearer(res.AccessToken))
	assert.ErrorIs(t, err, ErrRefreshTokenRequired)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")
	ctx := context.Background()

	require.NoError(t, env.svc.Logout(ctx, bearer(res.AccessToken)))

	claims, err := env.tokens.Decode(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, env.revocations.revoked[claims.ID])

	_, err = env.svc.Verify(ctx, bearer(res.AccessToken), KindAccess)
	assert.ErrorIs(t, err, ErrRevokedToken)

	// Logging out twice is fine.
	assert.NoError(t, env.svc.Logout(ctx, bearer(res.AccessToken)))

	// Other tokens from the same login are untouched.
	_, err = env.svc.Refresh(ctx, bearer(res.RefreshToken))
	assert.NoError(t, err)
}

func TestLogoutRejectsRefreshToken(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	res := env.login(t, "ada@example.com", "secret1")

	err := env.svc.Logout(context.Background(), bearer(res.RefreshToken))
	assert.ErrorIs(t, err, ErrAccessTokenRequired)
	assert.Empty(t, env.revocations.revoked)
}

func TestEmailVerificationFlow(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	token := env.lastLinkToken(t)
	ctx := context.Background()

	user, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, user.Verified)

	stored, err := env.users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Verified)

	// Already verified accounts get no further mail.
	sent := len(env.mailer.sent)
	require.NoError(t, env.svc.SendVerification(ctx, "ada@example.com"))
	assert.Len(t, env.mailer.sent, sent)

	_, err = env.svc.VerifyEmail(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSendVerificationUnknownEmail(t *testing.T) {
	env := newTestEnv(t, Policy{})
	require.NoError(t, env.svc.SendVerification(context.Background(), "ghost@example.com"))
	assert.Empty(t, env.mailer.sent)
}

func TestVerifyEmailForDeletedAccount(t *testing.T) {
	env := newTestEnv(t, Policy{})
	user := env.signup(t, "ada@example.com", "secret1")
	token := env.lastLinkToken(t)
	env.users.remove(user.ID)

	_, err := env.svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ada@example.com"))
	msg, ok := env.mailer.last()
	require.True(t, ok)
	assert.Contains(t, msg.HTMLBody, "/api/v1/auth/password-reset-confirm/")
	token := env.lastLinkToken(t)

	err := env.svc.ResetPassword(ctx, token, "newpass1", "newpass2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = env.svc.ResetPassword(ctx, token, "abc", "abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	long := strings.Repeat("b", MaxPasswordLength+1)
	err = env.svc.ResetPassword(ctx, token, long, long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	require.NoError(t, env.svc.ResetPassword(ctx, token, "newpass1", "newpass1"))

	_, err = env.svc.Login(ctx, "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	env.login(t, "ada@example.com", "newpass1")
}

func TestPasswordResetRejectsVerificationLink(t *testing.T) {
	env := newTestEnv(t, Policy{})
	env.signup(t, "ada@example.com", "secret1")

	err := env.svc.ResetPassword(context.Background(), env.lastLinkToken(t), "newpass1", "newpass1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t, Policy{})
	require.NoError(t, env.svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, env.mailer.sent)
}
