package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/credprobe/internal/config"
	"github.com/vvka-141/credprobe/internal/credentials"
	"github.com/vvka-141/credprobe/internal/db"
	"github.com/vvka-141/credprobe/internal/logging"
	"github.com/vvka-141/credprobe/internal/probe"
	"github.com/vvka-141/credprobe/internal/ui"
	"github.com/vvka-141/credprobe/internal/vault"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// runFlags holds the run command's flag values.
type runFlags struct {
	url            string
	rolePath       string
	authDB         string
	database       string
	collection     string
	driver         string
	attempts       int
	wait           time.Duration
	timeout        time.Duration
	authErrorCodes []string
	vaultAddr      string
	vaultNamespace string
	envFiles       []string
	configPath     string
	showPassword   bool
}

// runDeps are the run command's collaborators, replaced in tests.
type runDeps struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	lookupEnv       vault.Lookup
	tokenFile       func() string
	newSecretReader func(vault.Config) (credprobe.SecretReader, error)
	newConnector    func(db.Driver, ...db.Option) (credprobe.Connector, error)
	sleeper         credprobe.Sleeper
	now             func() time.Time
}

func defaultRunDeps() *runDeps {
	return &runDeps{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		tokenFile: vault.DefaultTokenFile,
		newSecretReader: func(cfg vault.Config) (credprobe.SecretReader, error) {
			r, err := vault.NewReader(cfg)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		newConnector: db.NewConnector,
		now:          time.Now,
	}
}

const runExample = `  # Atlas cluster, Vault address and token from the environment
  credprobe run -u 'mongodb+srv://clstr.abc.mongodb.net/' -r 'database/creds/myapp-role'

  # PostgreSQL, retrying for up to a minute
  credprobe run -u 'postgres://db.internal:5432/app' -r database/creds/app -d app -c probe \
    --attempts 30 --wait 2s

  # Settings from a file, secrets from a .env file
  credprobe run --config ./credprobe.yaml --env-file ./vault.env`

func newRunCmd(deps *runDeps) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch a dynamic credential from Vault and probe the database with it",
		Long: `Fetch a dynamic credential from Vault and probe the database with it.

The probe inserts a marker document, reads one document back and deletes every
document in the collection. Authentication failures are retried up to
--attempts times, --wait apart; any other failure aborts immediately.

Vault is reached with the standard $VAULT_ADDR, $VAULT_TOKEN, $VAULT_NAMESPACE,
$VAULT_CACERT and $VAULT_SKIP_VERIFY settings, falling back to ~/.vault-token.
The token is never accepted on the command line.

Every run flag except --config and --env-file can also be set through
$CREDPROBE_<FLAG> (e.g. $CREDPROBE_ROLEPATH) or credprobe.yaml.
Precedence: flag > environment > env files > credprobe.yaml > default.`,
		Example: runExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRun(cmd, flags, deps)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.url, "url", "u", credprobe.DefaultURL,
		"Database cluster URL (mongodb://, mongodb+srv://, postgres://)")
	f.StringVarP(&flags.rolePath, "rolepath", "r", credprobe.DefaultRolePath,
		"Vault role path of the dynamic database secret")
	f.StringVarP(&flags.authDB, "authdb", "a", credprobe.DefaultAuthDatabase,
		"Authentication database name (MongoDB only)")
	f.StringVarP(&flags.database, "db", "d", credprobe.DefaultDatabase,
		"Database name to hold the probe data")
	f.StringVarP(&flags.collection, "coll", "c", credprobe.DefaultCollection,
		"Collection (MongoDB) or table (PostgreSQL) name")
	f.StringVar(&flags.driver, "driver", string(db.DriverAuto),
		"Database driver: auto|mongodb|postgres (auto detects from the URL scheme)")
	f.IntVar(&flags.attempts, "attempts", credprobe.DefaultAttemptLimit,
		"Maximum number of connection attempts")
	f.DurationVar(&flags.wait, "wait", credprobe.DefaultWaitInterval,
		"Wait between attempts after an authentication failure")
	f.DurationVar(&flags.timeout, "timeout", credprobe.DefaultTimeout,
		"Catastrophic failure timeout for the whole run")
	f.StringSliceVar(&flags.authErrorCodes, "auth-error-code", nil,
		"Driver error code treated as a retryable authentication failure (repeatable).\n"+
			"Replaces the driver defaults: 18,8000 for MongoDB, 28P01,28000 for PostgreSQL")
	f.StringVar(&flags.vaultAddr, "vault-addr", "",
		"Vault server address (overrides $VAULT_ADDR)")
	f.StringVar(&flags.vaultNamespace, "vault-namespace", "",
		"Vault Enterprise namespace (overrides $VAULT_NAMESPACE)")
	f.StringArrayVar(&flags.envFiles, "env-file", nil,
		"Read KEY=VALUE settings from file (repeatable, default: ./.env if present)")
	f.StringVar(&flags.configPath, "config", config.FileName,
		"Config file with defaults for the run flags")
	f.BoolVar(&flags.showPassword, "show-password", false,
		"Print the obtained database password in clear text (debugging only)")

	return cmd
}

func executeRun(cmd *cobra.Command, flags *runFlags, deps *runDeps) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewWriterLogger(deps.stderr, verbose)
	reporter := ui.NewReporter(deps.stdout, deps.stderr)

	projectCfg, err := loadProjectConfig(flags.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	dotenv, err := loadEnvFiles(flags.envFiles)
	if err != nil {
		return err
	}
	env := vault.Chain(deps.lookupEnv, vault.MapLookup(dotenv))
	if err := applyLayers(cmd.Flags(), env, projectCfg); err != nil {
		return err
	}

	driver, err := db.ResolveDriver(flags.driver, flags.url)
	if err != nil {
		return err
	}
	classifier, err := db.ClassifierFor(driver, flags.authErrorCodes)
	if err != nil {
		return err
	}
	req := credprobe.Request{
		URL:          flags.url,
		AuthDatabase: flags.authDB,
		Database:     flags.database,
		Collection:   flags.collection,
		Limit:        flags.attempts,
		WaitInterval: flags.wait,
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if flags.timeout <= 0 {
		return fmt.Errorf("%w: --timeout must be positive", credprobe.ErrInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), flags.timeout)
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) so an in-flight attempt is cancelled
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(deps.stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	start := deps.now()
	reporter.Start(start)

	vaultCfg, err := resolveVaultConfig(ctx, *flags, env, projectCfg, deps)
	if err != nil {
		return err
	}
	logger.Verbose("Using %s", vaultCfg)
	reader, err := deps.newSecretReader(vaultCfg)
	if err != nil {
		return err
	}

	fetcher := credentials.NewFetcher(reader, logger, credentials.WithPasswordInLog(flags.showPassword))
	creds, err := fetcher.Fetch(ctx, flags.rolePath)
	if err != nil {
		return withTimeoutContext(ctx, flags.timeout, err)
	}

	connector, err := deps.newConnector(driver, db.WithLogger(logger))
	if err != nil {
		return err
	}
	reporter.Connecting(connector.String(), db.RedactURL(req.URL))

	opts := []probe.Option{probe.WithObserver(reporter), probe.WithClock(deps.now)}
	if deps.sleeper != nil {
		opts = append(opts, probe.WithSleeper(deps.sleeper))
	}
	loop := probe.NewLoop(connector, classifier, logger, opts...)

	result, err := loop.Run(ctx, creds, req)
	logger.Verbose("Run finished: status=%s attempts=%d sleeps=%d", result.Status, result.Attempts, result.Sleeps)
	if err != nil {
		return withTimeoutContext(ctx, flags.timeout, err)
	}

	reporter.Finish(deps.now().Sub(start))
	return nil
}

// resolveVaultConfig builds the Vault client settings, prompting for a token
// when none is configured and a human is at the terminal.
func resolveVaultConfig(ctx context.Context, flags runFlags, env vault.Lookup, projectCfg *config.ProjectConfig, deps *runDeps) (vault.Config, error) {
	cfg, err := vault.ResolveConfig(vaultLookup(flags, env, projectCfg), deps.tokenFile())
	if err != nil {
		return vault.Config{}, err
	}
	if cfg.Token != "" || !ui.IsInteractive(deps.stdin) {
		return cfg, nil
	}

	token, err := ui.PromptSecret(ctx, deps.stdin, deps.stderr, fmt.Sprintf("Vault token for %s: ", cfg.Address))
	if err != nil {
		return vault.Config{}, fmt.Errorf("%w: reading Vault token: %w", credprobe.ErrInvalidConfig, err)
	}
	cfg.Token = token
	return cfg, nil
}

// withTimeoutContext names the --timeout guard when it is what ended the run.
func withTimeoutContext(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("run exceeded --timeout %v: %w", timeout, err)
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
