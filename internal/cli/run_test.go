package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/credprobe/internal/db"
	"github.com/vvka-141/credprobe/internal/testing/fakes"
	"github.com/vvka-141/credprobe/internal/vault"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

const (
	testUsername = "v-approle-my-role-x7Yb"
	testPassword = "A1a-s3cr3t-pw"
)

type harness struct {
	deps    *runDeps
	env     map[string]string
	secrets *fakes.SecretReader
	conn    *fakes.Connector
	sleeper *fakes.Sleeper
	out     bytes.Buffer
	errOut  bytes.Buffer

	vaultCfg *vault.Config
	driver   db.Driver
}

// newHarness isolates a run from the real environment, Vault and database.
// The working directory is an empty temp dir so no .env or credprobe.yaml is
// picked up.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())

	clock := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	h := &harness{
		env:     map[string]string{vault.EnvToken: "hvs.test-token"},
		secrets: fakes.NewCredentialSecret(credprobe.DefaultRolePath, testUsername, testPassword),
		conn:    fakes.NewConnector(),
		sleeper: &fakes.Sleeper{},
	}
	h.deps = &runDeps{
		stdout:    &h.out,
		stderr:    &h.errOut,
		lookupEnv: vault.MapLookup(h.env),
		tokenFile: func() string { return "" },
		newSecretReader: func(cfg vault.Config) (credprobe.SecretReader, error) {
			h.vaultCfg = &cfg
			return h.secrets, nil
		},
		newConnector: func(d db.Driver, _ ...db.Option) (credprobe.Connector, error) {
			h.driver = d
			return h.conn, nil
		},
		sleeper: h.sleeper,
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	root := newRootCmd(h.deps)
	root.SetArgs(args)
	root.SetOut(&h.out)
	root.SetErr(&h.errOut)
	return root.Execute()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRun_SucceedsWithDefaults(t *testing.T) {
	h := newHarness(t)

	err := h.run("run")

	require.NoError(t, err)
	out, logs := h.out.String(), h.errOut.String()
	assert.Contains(t, out, "Starting task at 2026-05-01 09:30:01")
	assert.Contains(t, logs, `Obtained database credentials from Vault: username="`+testUsername+`"`)
	assert.NotContains(t, out+logs, testPassword)
	assert.Contains(t, out, "Connecting to FakeConnector using URL 'mongodb+srv://mycluster.a123z.mongodb.net/'")
	assert.Contains(t, out, "Result from test collection insert() then find():")
	assert.Contains(t, out, "Finished task in")
	assert.NotContains(t, logs, "ERROR")

	assert.Equal(t, db.DriverMongo, h.driver)
	assert.Equal(t, credprobe.DefaultVaultAddress, h.vaultCfg.Address)
	assert.Equal(t, []string{credprobe.DefaultRolePath}, h.secrets.Reads())

	require.Len(t, h.conn.Requests(), 1)
	req := h.conn.Requests()[0]
	assert.Equal(t, credprobe.DefaultURL, req.URL)
	assert.Equal(t, "admin", req.AuthDatabase)
	assert.Equal(t, "testdb", req.Database)
	assert.Equal(t, "mycoll", req.Collection)
	assert.Equal(t, 25, req.Limit)
	assert.Equal(t, 2*time.Second, req.WaitInterval)
	assert.Equal(t, []credprobe.CredentialPair{{Username: testUsername, Password: testPassword}}, h.conn.Credentials())
}

func TestRun_RetriesAuthFailuresUntilSuccess(t *testing.T) {
	h := newHarness(t)
	h.conn.Script = []*fakes.Failure{
		fakes.AuthFailure("insert", "18"),
		fakes.AuthFailure("insert", "18"),
	}

	err := h.run("run", "--attempts", "3", "--wait", "0s")

	require.NoError(t, err)
	assert.Equal(t, 3, h.conn.Connects())
	assert.Equal(t, []time.Duration{0, 0}, h.sleeper.Sleeps())
	assert.Contains(t, h.out.String(), "Authentication error on attempt 1")
	assert.Contains(t, h.out.String(), "Authentication error on attempt 2")
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		args  []string
		want  int
	}{
		{
			name:  "retries exhausted",
			setup: func(h *harness) { h.conn.Always = fakes.AuthFailure("insert", "8000") },
			args:  []string{"run", "--attempts", "2", "--wait", "1s"},
			want:  credprobe.ExitRetriesExhausted,
		},
		{
			name:  "fatal database error",
			setup: func(h *harness) { h.conn.Always = fakes.FatalFailure("insert", "13", "not authorized on testdb") },
			want:  credprobe.ExitDatabaseError,
		},
		{
			name:  "vault refuses the read",
			setup: func(h *harness) { h.secrets.Err = errors.New("Code: 403. Errors: * permission denied") },
			want:  credprobe.ExitSecretsBackend,
		},
		{
			name: "secret lacks password",
			setup: func(h *harness) {
				h.secrets.Secrets[credprobe.DefaultRolePath].Data = map[string]any{"username": testUsername}
			},
			want: credprobe.ExitConfigError,
		},
		{
			name: "no secret at role path",
			args: []string{"run", "-r", "database/creds/unknown"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "attempts below one",
			args: []string{"run", "--attempts", "0"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "unknown driver",
			args: []string{"run", "--driver", "oracle"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "unrecognised URL scheme",
			args: []string{"run", "-u", "mysql://db/app"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "missing explicit config file",
			args: []string{"run", "--config", "/nonexistent/credprobe.yaml"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "missing explicit env file",
			args: []string{"run", "--env-file", "/nonexistent/.env"},
			want: credprobe.ExitConfigError,
		},
		{
			name: "unknown flag",
			args: []string{"run", "--token", "hvs.x"},
			want: credprobe.ExitUsageError,
		},
		{
			name: "malformed flag value",
			args: []string{"run", "--attempts", "many"},
			want: credprobe.ExitUsageError,
		},
		{
			name: "positional argument",
			args: []string{"run", "extra"},
			want: credprobe.ExitUsageError,
		},
		{
			name: "unknown command",
			args: []string{"probe"},
			want: credprobe.ExitUsageError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			args := tt.args
			if args == nil {
				args = []string{"run"}
			}

			err := h.run(args...)

			require.Error(t, err)
			assert.Equal(t, tt.want, credprobe.ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestRun_ExhaustionMessageCarriesLastAuthError(t *testing.T) {
	h := newHarness(t)
	h.conn.Always = fakes.AuthFailure("insert", "8000")

	err := h.run("run", "--attempts", "3", "--wait", "0s")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "code 8000")
	assert.Len(t, h.sleeper.Sleeps(), 2)
	assert.NotContains(t, h.out.String(), "Finished task in")
}

func TestRun_FatalErrorDoesNotRetry(t *testing.T) {
	h := newHarness(t)
	h.conn.Always = fakes.FatalFailure("insert", "13", "not authorized")

	err := h.run("run")

	assert.ErrorIs(t, err, credprobe.ErrFatalDatabase)
	assert.Equal(t, 1, h.conn.Connects())
	assert.Empty(t, h.sleeper.Sleeps())
}

func TestRun_PostgresURLSelectsPostgresClassifier(t *testing.T) {
	h := newHarness(t)
	h.conn.Script = []*fakes.Failure{fakes.AuthFailure("connect", "28P01")}

	err := h.run("run", "-u", "postgres://db.internal:5432/app", "-d", "app", "-c", "probe", "--wait", "0s")

	require.NoError(t, err)
	assert.Equal(t, db.DriverPostgres, h.driver)
	assert.Equal(t, 2, h.conn.Connects())
}

func TestRun_CustomAuthErrorCodesReplaceDefaults(t *testing.T) {
	h := newHarness(t)
	h.conn.Script = []*fakes.Failure{
		fakes.AuthFailure("insert", "11"),
		fakes.AuthFailure("insert", "18"),
	}

	err := h.run("run", "--auth-error-code", "11", "--wait", "0s")

	// 11 is retried, 18 is no longer in the set
	assert.ErrorIs(t, err, credprobe.ErrFatalDatabase)
	assert.Equal(t, 2, h.conn.Connects())
}

func TestRun_ShowPassword(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("run", "--show-password"))

	assert.Contains(t, h.errOut.String(), `password="`+testPassword+`"`)
}

func TestRun_VerboseLogsStateTransitions(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("run", "-v"))

	logs := h.errOut.String()
	assert.Contains(t, logs, "[VERBOSE] Using Vault(address="+credprobe.DefaultVaultAddress+")")
	assert.Contains(t, logs, "[VERBOSE] Connecting -> Probing (Connected)")
	assert.NotContains(t, logs, "hvs.test-token")
	assert.NotContains(t, h.out.String(), "[VERBOSE]", "diagnostics stay off stdout")
}

func TestRun_Precedence(t *testing.T) {
	cfgPath := writeFile(t, "credprobe.yaml", `rolepath: database/creds/from-config
attempts: 7
wait: 5
coll: from-config
vault:
  address: https://vault.from-config:8200
  namespace: cfg-ns
`)

	t.Run("config file fills unset flags", func(t *testing.T) {
		h := newHarness(t)
		h.secrets = fakes.NewCredentialSecret("database/creds/from-config", testUsername, testPassword)

		require.NoError(t, h.run("run", "--config", cfgPath))

		req := h.conn.Requests()[0]
		assert.Equal(t, 7, req.Limit)
		assert.Equal(t, 5*time.Second, req.WaitInterval)
		assert.Equal(t, "from-config", req.Collection)
		assert.Equal(t, "https://vault.from-config:8200", h.vaultCfg.Address)
		assert.Equal(t, "cfg-ns", h.vaultCfg.Namespace)
	})

	t.Run("environment beats config file", func(t *testing.T) {
		h := newHarness(t)
		h.env["CREDPROBE_ATTEMPTS"] = "9"
		h.env["CREDPROBE_WAIT"] = "3"
		h.env["CREDPROBE_ROLEPATH"] = credprobe.DefaultRolePath
		h.env[vault.EnvAddress] = "https://vault.from-env:8200"

		require.NoError(t, h.run("run", "--config", cfgPath))

		req := h.conn.Requests()[0]
		assert.Equal(t, 9, req.Limit)
		assert.Equal(t, 3*time.Second, req.WaitInterval)
		assert.Equal(t, "from-config", req.Collection)
		assert.Equal(t, "https://vault.from-env:8200", h.vaultCfg.Address)
	})

	t.Run("env file beats config file, environment beats env file", func(t *testing.T) {
		h := newHarness(t)
		envFile := writeFile(t, "vault.env", "VAULT_ADDR=https://vault.from-dotenv:8200\nCREDPROBE_COLL=from-dotenv\nCREDPROBE_ROLEPATH=database/creds/my-role\nCREDPROBE_ATTEMPTS=4\n")
		h.env["CREDPROBE_ATTEMPTS"] = "11"

		require.NoError(t, h.run("run", "--config", cfgPath, "--env-file", envFile))

		req := h.conn.Requests()[0]
		assert.Equal(t, "from-dotenv", req.Collection)
		assert.Equal(t, 11, req.Limit)
		assert.Equal(t, "https://vault.from-dotenv:8200", h.vaultCfg.Address)
	})

	t.Run("flags beat everything", func(t *testing.T) {
		h := newHarness(t)
		h.env["CREDPROBE_ATTEMPTS"] = "9"
		h.env[vault.EnvAddress] = "https://vault.from-env:8200"

		require.NoError(t, h.run("run", "--config", cfgPath,
			"-r", credprobe.DefaultRolePath, "--attempts", "2", "-c", "from-flag",
			"--vault-addr", "https://vault.from-flag:8200", "--vault-namespace", "flag-ns"))

		req := h.conn.Requests()[0]
		assert.Equal(t, 2, req.Limit)
		assert.Equal(t, "from-flag", req.Collection)
		assert.Equal(t, "https://vault.from-flag:8200", h.vaultCfg.Address)
		assert.Equal(t, "flag-ns", h.vaultCfg.Namespace)
	})
}

func TestRun_DefaultConfigAndEnvFileInWorkingDirectory(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile("credprobe.yaml", []byte("coll: from-cwd-config\n"), 0600))
	require.NoError(t, os.WriteFile(".env", []byte("CREDPROBE_DB=from-cwd-dotenv\n"), 0600))

	require.NoError(t, h.run("run"))

	req := h.conn.Requests()[0]
	assert.Equal(t, "from-cwd-config", req.Collection)
	assert.Equal(t, "from-cwd-dotenv", req.Database)
}

func TestRun_EnvFilePathWithComma(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "staging,eu-west")
	require.NoError(t, os.Mkdir(dir, 0700))
	envFile := filepath.Join(dir, "vault.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CREDPROBE_COLL=from-comma-dir\n"), 0600))

	require.NoError(t, h.run("run", "--env-file", envFile))

	assert.Equal(t, "from-comma-dir", h.conn.Requests()[0].Collection)
}

func TestRun_RepeatedEnvFilesLaterWins(t *testing.T) {
	h := newHarness(t)
	first := writeFile(t, "first.env", "CREDPROBE_COLL=first\nCREDPROBE_DB=first\n")
	second := writeFile(t, "second.env", "CREDPROBE_COLL=second\n")

	require.NoError(t, h.run("run", "--env-file", first, "--env-file", second))

	req := h.conn.Requests()[0]
	assert.Equal(t, "second", req.Collection)
	assert.Equal(t, "first", req.Database)
}

func TestRun_InvalidEnvironmentValue(t *testing.T) {
	h := newHarness(t)
	h.env["CREDPROBE_WAIT"] = "soon"

	err := h.run("run")

	require.Error(t, err)
	assert.ErrorIs(t, err, credprobe.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "$CREDPROBE_WAIT")
}

func TestRun_NoTokenWithoutTerminalFailsFast(t *testing.T) {
	h := newHarness(t)
	delete(h.env, vault.EnvToken)
	h.deps.newSecretReader = func(cfg vault.Config) (credprobe.SecretReader, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return h.secrets, nil
	}

	err := h.run("run")

	require.Error(t, err)
	assert.Equal(t, credprobe.ExitConfigError, credprobe.ExitCodeForError(err))
	assert.Contains(t, err.Error(), "no token")
	assert.Equal(t, 0, h.conn.Connects())
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.run("version"))
}
