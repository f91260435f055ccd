package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
	"github.com/andywolf/uprava/internal/secret"
	"github.com/andywolf/uprava/internal/version"
)

var (
	cfgFile   string
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "uprava",
	Short: "Uprava - Jira and Confluence reporting",
	Long: `Uprava queries one or more Jira instances, assembles the linked issues
into a dependency graph and publishes roadmaps, worklogs and story point
summaries to Confluence.

Example:
  uprava report make team-roadmap
  uprava jira get issue -f email ABC-123`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "path to configuration file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("UPRAVA")
	viper.AutomaticEnv()

	// Commands like init and version run without a config file, so the
	// error is reported only by commands that need one.
	configErr = viper.ReadInConfig()
	if configErr == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// env is what every config-backed command works with.
type env struct {
	cfg        *config.Config
	registry   *config.Registry
	resolver   *secret.Resolver
	jira       *jira.Clients
	logger     logging.Logger
	confluence map[string]*confluence.Client
}

func newLogger() logging.Logger {
	level := logging.SeverityInfo
	if viper.GetBool("verbose") {
		level = logging.SeverityDebug
	}
	return logging.New(
		logging.WithLevel(level),
		logging.WithLabels(map[string]string{"run_id": uuid.NewString()}),
	)
}

func loadEnv() (*env, error) {
	if configErr != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, configErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	resolver := secret.NewResolver()
	return &env{
		cfg:        cfg,
		registry:   registry,
		resolver:   resolver,
		jira:       jira.NewClients(resolver, jira.WithLogger(logger)),
		logger:     logger,
		confluence: make(map[string]*confluence.Client),
	}, nil
}

func (e *env) Close() {
	if err := e.resolver.Close(); err != nil {
		e.logger.Warning("failed to close secret resolver", logging.F("error", err))
	}
}

func (e *env) defaultJira() (*jira.Client, error) {
	inst, err := e.registry.Jira("")
	if err != nil {
		return nil, err
	}
	return e.jira.For(inst), nil
}

func (e *env) confluenceClient(inst *confluence.Instance) *confluence.Client {
	if c, ok := e.confluence[inst.ID()]; ok {
		return c
	}
	var authn *auth.Authenticator
	if inst.Access.Method() != "" {
		authn = auth.NewAuthenticator(inst.Access, e.resolver, inst.BaseURL.Path)
	}
	c := confluence.NewClient(inst, authn, confluence.WithLogger(e.logger))
	e.confluence[inst.ID()] = c
	return c
}

func (e *env) defaultConfluence() (*confluence.Client, error) {
	inst, err := e.registry.Confluence("")
	if err != nil {
		return nil, err
	}
	return e.confluenceClient(inst), nil
}
