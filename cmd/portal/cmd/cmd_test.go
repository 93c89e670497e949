package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	devapp "github.com/carematch360/portal/internal/devidentity/app"
	"github.com/carematch360/portal/pkg/gateway"
	"github.com/carematch360/portal/pkg/httpx"
	"github.com/carematch360/portal/pkg/slogx"
)

// setupEnv points the CLI at a fresh identity server and session file.
func setupEnv(t *testing.T) {
	t.Helper()

	dev, err := devapp.NewWithLogger(devapp.Config{
		Issuer:              "test-issuer",
		Password:            "validpass",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
		LoginLimit:          httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000},
		ShutdownGracePeriod: time.Second,
	}, slogx.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(dev.Handler())
	t.Cleanup(srv.Close)

	t.Setenv("IDENTITY_API_URL", srv.URL+devapp.APIPrefix)
	t.Setenv("PORTAL_STORE_DRIVER", "sqlite")
	t.Setenv("PORTAL_DATABASE_FILE", filepath.Join(t.TempDir(), "portal.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Registered(t *testing.T) {
	want := []string{"login", "logout", "whoami", "profile", "request", "totp", "version"}
	root := NewRootCmd()
	for _, name := range want {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, found.Name())
	}
}

func TestSessionCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "anonymous")

	out, err = run(t, "login", "--email", "res@test.com", "--password", "validpass")
	require.NoError(t, err)
	require.Contains(t, out, "logged in as res@test.com (RESIDENTIAL_PROVIDER)")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "authenticated")
	require.Contains(t, out, "RESIDENTIAL_PROVIDER")

	out, err = run(t, "request", "identity", "get", "users/me")
	require.NoError(t, err)
	require.Contains(t, out, `"email":"res@test.com"`)

	t.Run("backend errors print the body", func(t *testing.T) {
		out, err := run(t, "request", "identity", "GET", "/users/someone")
		var derr *gateway.DomainError
		require.ErrorAs(t, err, &derr)
		require.Equal(t, http.StatusForbidden, derr.StatusCode)
		require.Contains(t, out, "error")
	})

	out, err = run(t, "logout", "--revoke")
	require.NoError(t, err)
	require.Contains(t, out, "logged out")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "anonymous")
}

func TestLoginFailures(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "login", "--email", "patient@test.com")
	require.ErrorContains(t, err, "password")

	_, err = run(t, "login", "--email", "patient@test.com", "--password", "wrongpass")
	require.ErrorIs(t, err, gateway.ErrInvalidCredentials)

	_, err = run(t, "login", "--email", "a@test.com", "--password", "validpass", "--code", "123456", "--otp-url", "otpauth://totp/x?secret=JBSWY3DPEHPK3PXP")
	require.Error(t, err)
}

func TestTOTPCmd(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "CareMatch360", AccountName: "patient@test.com"})
	require.NoError(t, err)

	out, err := run(t, "totp", key.URL())
	require.NoError(t, err)
	require.True(t, totp.Validate(strings.TrimSpace(out), key.Secret()))

	_, err = run(t, "totp", "https://example.com")
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "portal "))
	require.Contains(t, out, "Go version:")
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	req, err := buildRequest([]string{"match", "post", "matches/calculate"},
		[]string{"limit=5", "tag=a", "tag=b"},
		[]string{"X-Trace: abc"},
		`{"patientId":"42"}`)
	require.NoError(t, err)
	require.Equal(t, gateway.TargetMatch, req.Target)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/matches/calculate", req.Path)
	require.Equal(t, []string{"a", "b"}, req.Query["tag"])
	require.Equal(t, "abc", req.Header.Get("X-Trace"))
	require.JSONEq(t, `{"patientId":"42"}`, string(req.Body))

	_, err = buildRequest([]string{"payments", "GET", "/x"}, nil, nil, "")
	require.Error(t, err)

	_, err = buildRequest([]string{"match", "GET", "/x"}, []string{"novalue"}, nil, "")
	require.ErrorContains(t, err, "key=value")

	_, err = buildRequest([]string{"match", "GET", "/x"}, nil, []string{"broken"}, "")
	require.ErrorContains(t, err, "Key: value")

	_, err = buildRequest([]string{"match", "POST", "/x"}, nil, nil, "{not json")
	require.ErrorContains(t, err, "not valid JSON")
}
