package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nia-vf/pocket-stakeholder/internal/adr"
	"github.com/nia-vf/pocket-stakeholder/internal/analysis"
	"github.com/nia-vf/pocket-stakeholder/internal/generator"
	"github.com/nia-vf/pocket-stakeholder/internal/interview"
	"github.com/nia-vf/pocket-stakeholder/internal/lockfile"
	"github.com/nia-vf/pocket-stakeholder/internal/messaging"
	"github.com/nia-vf/pocket-stakeholder/internal/models"
	"github.com/nia-vf/pocket-stakeholder/internal/pipeline"
	"github.com/nia-vf/pocket-stakeholder/internal/store"
	"github.com/nia-vf/pocket-stakeholder/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for pocket-stakeholder state data
	DefaultStateDir = "/var/lib/pocket-stakeholder"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "pocket-stakeholder.db"
	// DefaultADRDirName is the default decision-record output directory name
	DefaultADRDirName = "decisions"
	// DefaultRoles is the default comma-separated stakeholder role list
	DefaultRoles = "architect,developer,operator"
	// DefaultWebhookAddr is the default listen address for the SMS webhook server
	DefaultWebhookAddr = ":8080"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	if *flags.specPath == "" {
		slog.Error("No spec file provided; use -spec")
		os.Exit(1)
	}

	if err := run(flags); err != nil {
		slog.Error("pocket-stakeholder failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("pocket-stakeholder exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir    string
	DatabaseURL string
	OpenAIKey   string
	Mode        string
	Roles       string
	ADRDir      string
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SMSTo       string
	WebhookAddr string
	FollowUpCap int
}

// Flags holds command line flag values
type Flags struct {
	specPath    *string
	roles       *string
	mode        *string
	stateDir    *string
	dbDSN       *string
	adrDir      *string
	openaiKey   *string
	smsTo       *string
	webhookAddr *string
	followUpCap *int

	// carried through from the environment, no flag equivalents
	twilioSID   string
	twilioToken string
	twilioFrom  string
}

// initializeLogger sets up structured logging. Info level by default;
// POCKET_STAKEHOLDER_DEBUG=true enables debug output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("POCKET_STAKEHOLDER_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:    os.Getenv("POCKET_STAKEHOLDER_STATE_DIR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		Mode:        os.Getenv("ANSWER_MODE"),
		Roles:       os.Getenv("STAKEHOLDER_ROLES"),
		ADRDir:      os.Getenv("ADR_DIR"),
		TwilioSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:  os.Getenv("TWILIO_FROM_NUMBER"),
		SMSTo:       os.Getenv("SMS_RECIPIENT"),
		WebhookAddr: os.Getenv("WEBHOOK_ADDR"),
		FollowUpCap: util.ParseIntEnv("MAX_FOLLOWUPS", interview.DefaultFollowUpCap),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No POCKET_STAKEHOLDER_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.Mode == "" {
		config.Mode = "console"
	}
	if config.Roles == "" {
		config.Roles = DefaultRoles
	}
	if config.ADRDir == "" {
		config.ADRDir = filepath.Join(config.StateDir, DefaultADRDirName)
	}
	if config.WebhookAddr == "" {
		config.WebhookAddr = DefaultWebhookAddr
	}

	slog.Debug("environment variables loaded",
		"POCKET_STAKEHOLDER_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"ANSWER_MODE", config.Mode,
		"STAKEHOLDER_ROLES", config.Roles,
		"ADR_DIR", config.ADRDir,
		"TWILIO_CONFIGURED", config.TwilioSID != "" && config.TwilioToken != "",
		"MAX_FOLLOWUPS", config.FollowUpCap)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		specPath:    flag.String("spec", "", "path to the markdown spec to interview stakeholders about (required)"),
		roles:       flag.String("roles", config.Roles, "comma-separated stakeholder roles to interview (overrides $STAKEHOLDER_ROLES)"),
		mode:        flag.String("mode", config.Mode, "answer mode: console, sms, or llm (overrides $ANSWER_MODE)"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for snapshots and results (overrides $POCKET_STAKEHOLDER_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN, a SQLite path or Postgres URL (overrides $DATABASE_URL)"),
		adrDir:      flag.String("adr-dir", config.ADRDir, "output directory for decision records (overrides $ADR_DIR)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		smsTo:       flag.String("sms-to", config.SMSTo, "interviewee phone number for sms mode (overrides $SMS_RECIPIENT)"),
		webhookAddr: flag.String("webhook-addr", config.WebhookAddr, "listen address for the inbound SMS webhook (overrides $WEBHOOK_ADDR)"),
		followUpCap: flag.Int("max-followups", config.FollowUpCap, "maximum distinct follow-up questions per interview (overrides $MAX_FOLLOWUPS)"),

		twilioSID:   config.TwilioSID,
		twilioToken: config.TwilioToken,
		twilioFrom:  config.TwilioFrom,
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"spec", *flags.specPath,
		"roles", *flags.roles,
		"mode", *flags.mode,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"adrDir", *flags.adrDir,
		"openaiKeySet", *flags.openaiKey != "",
		"maxFollowUps", *flags.followUpCap)

	// Keep the default SQLite path in step with an overridden state directory.
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

func run(flags Flags) error {
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	specMarkdown, err := os.ReadFile(*flags.specPath)
	if err != nil {
		return fmt.Errorf("failed to read spec file %s: %w", *flags.specPath, err)
	}

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	analyzer, err := analysis.NewClient(analysis.WithAPIKey(*flags.openaiKey))
	if err != nil {
		return err
	}

	recordWriter, err := adr.NewWriter(*flags.adrDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources, cleanup, err := buildSourceFactory(ctx, flags, analyzer)
	if err != nil {
		return err
	}
	defer cleanup()

	genCfg := generator.DefaultConfig()
	genCfg.MaxFollowUpQuestions = *flags.followUpCap

	driver, err := pipeline.NewDriver(
		pipeline.WithAnalyzer(analyzer),
		pipeline.WithStore(st),
		pipeline.WithRecordWriter(recordWriter),
		pipeline.WithSourceFactory(sources),
		pipeline.WithGeneratorConfig(genCfg),
		pipeline.WithSessionOptions(interview.WithFollowUpCap(*flags.followUpCap)),
		pipeline.WithProgressFunc(logProgress),
	)
	if err != nil {
		return err
	}

	roles := splitRoles(*flags.roles)
	results, err := driver.Run(ctx, string(specMarkdown), roles)
	if err != nil {
		return err
	}
	if len(results) < len(roles) {
		slog.Info("Run interrupted; snapshots saved for resumption", "completed", len(results), "roles", len(roles))
		return nil
	}
	slog.Info("All interviews completed", "interviews", len(results), "decision_records_dir", *flags.adrDir)
	return nil
}

// openStore selects the SQL backend from the DSN shape.
func openStore(dsn string) (store.Store, error) {
	switch store.DetectDSNType(dsn) {
	case "postgres":
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	default:
		return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
	}
}

// buildSourceFactory wires the answer source for the selected mode. The
// returned cleanup stops any transport the factory started.
func buildSourceFactory(ctx context.Context, flags Flags, analyzer *analysis.Client) (pipeline.SourceFactory, func(), error) {
	noop := func() {}
	switch *flags.mode {
	case "console":
		adapter := interview.NewConsoleAdapter(os.Stdin, os.Stdout)
		factory := func(role string, prior []models.InterviewResult) (interview.Option, error) {
			fmt.Fprintf(os.Stdout, "\n=== Interviewing the %s stakeholder ===\n", role)
			return interview.WithInteractiveAdapter(adapter), nil
		}
		return factory, noop, nil

	case "sms":
		if *flags.smsTo == "" {
			return nil, noop, fmt.Errorf("sms mode requires -sms-to or $SMS_RECIPIENT")
		}
		svc, err := messaging.NewTwilioService(flags.twilioSID, flags.twilioToken, flags.twilioFrom)
		if err != nil {
			return nil, noop, err
		}
		if err := svc.Start(ctx); err != nil {
			return nil, noop, err
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/sms/webhook", svc.WebhookHandler)
		server := &http.Server{Addr: *flags.webhookAddr, Handler: mux}
		go func() {
			slog.Info("SMS webhook server listening", "addr", *flags.webhookAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("SMS webhook server failed", "error", err)
			}
		}()

		cleanup := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("SMS webhook server shutdown failed", "error", err)
			}
			if err := svc.Stop(); err != nil {
				slog.Error("Messaging service stop failed", "error", err)
			}
		}
		source := interview.NewMessagingAnswerSource(svc, *flags.smsTo)
		factory := func(role string, prior []models.InterviewResult) (interview.Option, error) {
			return interview.WithInteractiveAdapter(source), nil
		}
		return factory, cleanup, nil

	case "llm":
		factory := func(role string, prior []models.InterviewResult) (interview.Option, error) {
			provider := interview.NewLLMProvider(analyzer, role, pipeline.ContextFromResults(prior))
			return interview.WithProvider(provider), nil
		}
		return factory, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown answer mode %q (expected console, sms, or llm)", *flags.mode)
	}
}

// logProgress is the pipeline's progress observer.
func logProgress(ev models.ProgressEvent) {
	switch ev.Type {
	case models.EventQuestionAsked:
		slog.Debug("Question asked", "questionID", questionID(ev), "remaining", ev.QuestionsRemaining)
	case models.EventAnswerReceived:
		slog.Debug("Answer received", "questionID", questionID(ev), "remaining", ev.QuestionsRemaining)
	case models.EventFollowUpTriggered:
		slog.Info("Follow-up triggered", "questionID", questionID(ev))
	case models.EventSessionCompleted:
		slog.Info("Interview completed")
	}
}

func questionID(ev models.ProgressEvent) string {
	if ev.Question == nil {
		return ""
	}
	return ev.Question.ID
}

func splitRoles(csv string) []string {
	var roles []string
	for _, r := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
