package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/ericfisherdev/credgate/internal/application"
	"github.com/ericfisherdev/credgate/internal/config"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

func testRuntime(t *testing.T, cfg *config.Config) *runtime {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := newRuntime(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func accountConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:          filepath.Join(t.TempDir(), "accounts.db"),
		SecretKey:       []byte("0123456789abcdef0123456789abcdef"),
		DemoCredentials: true,
		ReloadInterval:  time.Minute,
	}
}

// testContext builds a cli.Context whose output goes to out.
func testContext(t *testing.T, out *bytes.Buffer, args ...string) *cli.Context {
	t.Helper()
	app := newApp()
	app.Writer = out

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("username", "", "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestNewRuntime_DemoOnly(t *testing.T) {
	rt := testRuntime(t, &config.Config{DemoCredentials: true})

	assert.Nil(t, rt.db)
	assert.False(t, rt.accounts.Available())
	assert.Equal(t, 2, rt.auth.Store().Len())
}

func TestNewRuntime_NoSources(t *testing.T) {
	rt := testRuntime(t, &config.Config{})

	assert.Equal(t, 0, rt.auth.Store().Len())
	assert.False(t, rt.auth.Login(context.Background(), "", "").Accepted)
}

func TestNewRuntime_DuplicateAcrossSourcesFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.tsv")
	require.NoError(t, os.WriteFile(path, []byte("demo\tother\n"), 0o600))

	_, err := newRuntime(context.Background(), &config.Config{
		CredentialsFiles: []string{path},
		DemoCredentials:  true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate username "demo"`)
}

func TestRunLogin(t *testing.T) {
	rt := testRuntime(t, &config.Config{DemoCredentials: true})

	t.Run("accepted", func(t *testing.T) {
		var out bytes.Buffer
		c := testContext(t, &out, "--username", "demo")

		err := runLogin(context.Background(), c, rt, newLinePrompter(strings.NewReader("mode\n")))

		require.NoError(t, err)
		assert.Equal(t, "Hello demo, you are now logged in.\n", out.String())
	})

	t.Run("rejected", func(t *testing.T) {
		var out bytes.Buffer
		c := testContext(t, &out)

		err := runLogin(context.Background(), c, rt, newLinePrompter(strings.NewReader("john\nlonger\n")))

		var exitErr cli.ExitCoder
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Equal(t, application.RejectionMessage+"\n", out.String())
	})
}

func TestRunCreateThenLogin(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	var out bytes.Buffer

	err := runCreate(context.Background(), testContext(t, &out, "sam"), rt, newLinePrompter(strings.NewReader("Secret12\n")))
	require.NoError(t, err)
	assert.Equal(t, "Account sam created.\n", out.String())

	assert.True(t, rt.auth.Login(context.Background(), "sam", "Secret12").Accepted)
}

func TestRunCreate_WeakPassword(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	var out bytes.Buffer

	err := runCreate(context.Background(), testContext(t, &out, "sam"), rt, newLinePrompter(strings.NewReader("weak\n")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "7-12 characters")
}

func TestRunChangePassword(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	ctx := context.Background()
	_, err := rt.accounts.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	var out bytes.Buffer
	err = runChangePassword(ctx, testContext(t, &out, "sam"), rt, newLinePrompter(strings.NewReader("wrong\nNewpass34\n")))
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)

	err = runChangePassword(ctx, testContext(t, &out, "sam"), rt, newLinePrompter(strings.NewReader("Secret12\nNewpass34\n")))
	require.NoError(t, err)

	assert.False(t, rt.auth.Login(ctx, "sam", "Secret12").Accepted)
	assert.True(t, rt.auth.Login(ctx, "sam", "Newpass34").Accepted)
}

func TestWriteAccounts(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	ctx := context.Background()
	_, err := rt.accounts.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)
	accounts, err := rt.accounts.List(ctx)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeAccounts(testContext(t, &out), accounts))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "USERNAME"))
	assert.Contains(t, lines[1], "sam")
	assert.Contains(t, lines[1], "inactive")
	assert.Contains(t, lines[1], "never")
}

func TestPrompter_LineInput(t *testing.T) {
	p := newLinePrompter(strings.NewReader("first\r\nlast"))

	a, err := p.ask("One", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", a)

	b, err := p.ask("Two", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "last", b)

	_, err = p.ask("Three", false, nil)
	require.ErrorIs(t, err, io.EOF)
}

func TestUsernameArg(t *testing.T) {
	var out bytes.Buffer

	u, err := usernameArg(testContext(t, &out, "--username", "flagged", "positional"))
	require.NoError(t, err)
	assert.Equal(t, "flagged", u)

	u, err = usernameArg(testContext(t, &out, "positional"))
	require.NoError(t, err)
	assert.Equal(t, "positional", u)

	_, err = usernameArg(testContext(t, &out))
	assert.Error(t, err)
}

func TestNewRuntime_AccountDBRequiresKey(t *testing.T) {
	cfg := accountConfig(t)
	cfg.SecretKey = nil

	_, err := newRuntime(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREDGATE_SECRET_KEY")
}

func TestRunDelete(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	ctx := context.Background()
	_, err := rt.accounts.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runDelete(ctx, testContext(t, &out, "sam"), rt))
	assert.Equal(t, "Account sam deleted.\n", out.String())
	assert.False(t, rt.auth.Login(ctx, "sam", "Secret12").Accepted)

	accounts, err := rt.accounts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	err = runDelete(ctx, testContext(t, &out, "sam"), rt)
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestRunCreate_TrimsUsername(t *testing.T) {
	rt := testRuntime(t, accountConfig(t))
	var out bytes.Buffer

	err := runCreate(context.Background(), testContext(t, &out, " sam "), rt, newLinePrompter(strings.NewReader("Secret12\n")))
	require.NoError(t, err)

	assert.Equal(t, "Account sam created.\n", out.String())
	assert.True(t, rt.auth.Login(context.Background(), "sam", "Secret12").Accepted)
}
