package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/config"
	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/password"
	"github.com/benvon/smart-auth/internal/services/auth"
	"github.com/benvon/smart-auth/internal/tokenstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Str0ng!Pass"

type harness struct {
	users        *database.MemoryUserRepository
	service      *auth.Service
	schemaCalls  int
	openedTokens bool
	cfg          *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users: database.NewMemoryUserRepository(),
		cfg:   &config.Config{},
	}
	h.service = auth.NewService(auth.Deps{
		Users:      h.users,
		Store:      tokenstore.NewMemoryStore(),
		Codec:      auth.NewJWTCodec("0123456789abcdef0123456789abcdef", "smart-auth", config.DefaultAccessTokenTTL),
		Hasher:     password.NewBcryptHasher(bcrypt.MinCost),
		AccessTTL:  config.DefaultAccessTokenTTL,
		RefreshTTL: config.DefaultRefreshTokenTTL,
	})
	return h
}

func (h *harness) open(_ context.Context, withTokens bool) (*App, func(), error) {
	app := &App{
		Users: h.users,
		EnsureSchema: func(context.Context) error {
			h.schemaCalls++
			return nil
		},
	}
	if withTokens {
		h.openedTokens = true
		app.Service = h.service
	}
	return app, func() {}, nil
}

func (h *harness) run(args ...string) (string, error) {
	root := &cobra.Command{Use: "authctl", SilenceUsage: true, SilenceErrors: true}
	AddCommands(root, h.open, func() (*config.Config, error) { return h.cfg, nil })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUserShow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	result, err := h.service.Register(context.Background(), auth.RegisterInput{Email: "ops@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for _, ref := range []string{"ops@example.com", result.User.ID.String()} {
		out, err := h.run("user", "show", ref)
		if err != nil {
			t.Fatalf("user show %s failed: %v", ref, err)
		}
		if !strings.Contains(out, result.User.ID.String()) || !strings.Contains(out, "Status:   active") {
			t.Errorf("Unexpected output for %s:\n%s", ref, out)
		}
		if !strings.Contains(out, "Provider: password") {
			t.Errorf("Expected password provider in output:\n%s", out)
		}
	}
	if h.openedTokens {
		t.Error("Expected show to run without token store access")
	}

	if _, err := h.run("user", "show", "missing@example.com"); !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRevoke(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	result, err := h.service.Register(ctx, auth.RegisterInput{Email: "revoke@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := h.run("user", "revoke", "revoke@example.com"); err != nil {
		t.Fatalf("user revoke failed: %v", err)
	}

	if _, err := h.service.ResolveCallerFromBearerToken(ctx, result.AccessToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("Expected access token to be revoked, got %v", err)
	}
	if _, err := h.service.Refresh(ctx, result.RefreshToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("Expected refresh token to be revoked, got %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	result, err := h.service.Register(ctx, auth.RegisterInput{Email: "gone@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := h.run("user", "delete", result.User.ID.String()); err != nil {
		t.Fatalf("user delete failed: %v", err)
	}

	if _, err := h.users.FindByEmail(ctx, "gone@example.com"); !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected deleted user to be hidden, got %v", err)
	}
	if _, err := h.service.ResolveCallerFromBearerToken(ctx, result.AccessToken); err == nil {
		t.Error("Expected deleted user's token to be rejected")
	}
}

func TestUserCommandsRequireArgument(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, sub := range []string{"show", "revoke", "delete"} {
		if _, err := h.run("user", sub); err == nil {
			t.Errorf("user %s: expected error without argument", sub)
		}
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out, err := h.run("migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if h.schemaCalls != 1 {
		t.Errorf("Expected schema to be applied once, got %d", h.schemaCalls)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestCheckOAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.Config
		want []string
	}{
		{
			name: "nothing configured",
			cfg:  &config.Config{},
			want: []string{"google: disabled", "github: disabled"},
		},
		{
			name: "both configured",
			cfg:  &config.Config{GoogleClientID: "g-client", GitHubClientID: "gh-client", GitHubClientSecret: "gh-secret"},
			want: []string{"google: enabled (client id g-client)", "github: enabled", "client_id=gh-client"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.cfg = tt.cfg
			out, err := h.run("check-oauth")
			if err != nil {
				t.Fatalf("check-oauth failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Expected %q in output:\n%s", want, out)
				}
			}
			if strings.Contains(out, "gh-secret") {
				t.Error("Client secret must not be printed")
			}
		})
	}
}

func TestCheckOAuth_Probe(t *testing.T) {
	t.Parallel()

	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[{"kty":"oct","kid":"k1","k":"c2VjcmV0"}]}`))
	}))
	t.Cleanup(jwks.Close)

	h := newHarness(t)
	h.cfg = &config.Config{GoogleClientID: "g-client"}
	out, err := h.run("check-oauth", "--probe", "--certs-url", jwks.URL)
	if err != nil {
		t.Fatalf("check-oauth --probe failed: %v", err)
	}
	if !strings.Contains(out, "1 signing keys") {
		t.Errorf("Expected key count in output:\n%s", out)
	}
}

func TestNewService_LogsAdminActions(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	cfg := &config.Config{
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		JWTIssuer:       "smart-auth",
		AccessTokenTTL:  config.DefaultAccessTokenTTL,
		RefreshTokenTTL: config.DefaultRefreshTokenTTL,
	}
	h := &harness{users: database.NewMemoryUserRepository(), cfg: cfg}
	h.service = newService(cfg, h.users, tokenstore.NewMemoryStore(), password.NewBcryptHasher(bcrypt.MinCost), zap.New(core))

	if _, err := h.service.Register(context.Background(), auth.RegisterInput{Email: "audit@example.com", Password: testPassword}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := h.run("user", "revoke", "audit@example.com"); err != nil {
		t.Fatalf("user revoke failed: %v", err)
	}
	if got := logs.FilterMessage("tokens_revoked").Len(); got != 1 {
		t.Errorf("Expected one tokens_revoked entry after revoke, got %d", got)
	}

	if _, err := h.run("user", "delete", "audit@example.com"); err != nil {
		t.Fatalf("user delete failed: %v", err)
	}
	if got := logs.FilterMessage("user_deleted").Len(); got != 1 {
		t.Errorf("Expected one user_deleted entry, got %d", got)
	}
}

func TestNewDevelopmentLoggerForCLI(t *testing.T) {
	t.Parallel()

	log, err := logger.NewDevelopmentLogger(true)
	if err != nil {
		t.Fatalf("NewDevelopmentLogger failed: %v", err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Error("Expected debug level to be enabled in debug mode")
	}
}
