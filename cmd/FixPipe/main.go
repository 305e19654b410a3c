package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/api"
	"github.com/Courtneyezra/FixPipe/internal/genai"
	"github.com/Courtneyezra/FixPipe/internal/lockfile"
	"github.com/Courtneyezra/FixPipe/internal/store"
	"github.com/Courtneyezra/FixPipe/internal/util"
	"github.com/Courtneyezra/FixPipe/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for FixPipe state data
	DefaultStateDir = "/var/lib/fixpipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "fixpipe.db"
	// DefaultWhatsAppDBFileName is the default SQLite database for whatsmeow state
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard the state directory against a second running instance
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	// Build module options
	waOpts := buildWhatsAppOptions(flags)
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping FixPipe with configured modules")
	slog.Debug("Module options counts", "whatsapp", len(waOpts), "store", len(storeOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(waOpts, storeOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("FixPipe failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("FixPipe exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string
	WhatsAppDSN    string
	StateDir       string
	OpenAIKey      string
	APIAddr        string
	SessionTimeout string
	SweepSchedule  string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput       *string
	numeric        *bool
	stateDir       *string
	dbDSN          *string
	waDSN          *string
	openaiKey      *string
	apiAddr        *string
	sessionTimeout *string
	sweepSchedule  *string
}

// initializeLogger sets up structured logging. FIXPIPE_DEBUG=true enables
// debug-level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("FIXPIPE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		WhatsAppDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:       os.Getenv("FIXPIPE_STATE_DIR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		APIAddr:        os.Getenv("API_ADDR"),
		SessionTimeout: os.Getenv("SESSION_TIMEOUT"),
		SweepSchedule:  os.Getenv("SWEEP_SCHEDULE"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No FIXPIPE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"FIXPIPE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"SESSION_TIMEOUT", config.SessionTimeout,
		"SWEEP_SCHEDULE", config.SweepSchedule)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:       flag.String("qr-output", "", "path to write WhatsApp login QR code"),
		numeric:        flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for FixPipe data (overrides $FIXPIPE_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "session store DSN: SQLite path, postgres:// URL, or redis:// URL (overrides $DATABASE_URL)"),
		waDSN:          flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow database DSN (overrides $WHATSAPP_DB_DSN)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for semantic classification (overrides $OPENAI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		sessionTimeout: flag.String("session-timeout", config.SessionTimeout, "idle duration before sessions are abandoned, e.g. 30m (overrides $SESSION_TIMEOUT)"),
		sweepSchedule:  flag.String("sweep-schedule", config.SweepSchedule, "cron expression for the stale-session sweep (overrides $SWEEP_SCHEDULE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waDSN_set", *flags.waDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"sessionTimeout", *flags.sessionTimeout,
		"sweepSchedule", *flags.sweepSchedule)

	// Follow a relocated state directory for the default SQLite paths
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.waDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) {
			*flags.waDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
		}
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.dbDSN, *flags.waDSN} {
		if dsn == "" || store.DetectDSNType(dsn) != store.DSNTypeSQLite {
			continue
		}
		stateDir := filepath.Dir(dsn)
		// Strip the sqlite URI prefix if present
		stateDir = strings.TrimPrefix(stateDir, "file:")
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.waDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.waDSN))
	}
	return waOpts
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		slog.Debug("Configuring session store", "dsn_type", store.DetectDSNType(*flags.dbDSN))
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.sessionTimeout != "" {
		if d, err := time.ParseDuration(*flags.sessionTimeout); err != nil {
			slog.Warn("Invalid session timeout, using default", "value", *flags.sessionTimeout, "error", err)
		} else {
			apiOpts = append(apiOpts, api.WithSessionTimeout(d))
		}
	}
	if *flags.sweepSchedule != "" {
		apiOpts = append(apiOpts, api.WithSweepSchedule(*flags.sweepSchedule))
	}
	return apiOpts
}
