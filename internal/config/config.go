package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/utils"
)

const (
	OrganizationName    = "AFTRAS"
	LDConnectionTimeout = 5 * time.Second

	EnvDev  = "dev"
	EnvTest = "test"
	EnvProd = "prod"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string

	StoreDriver   docstore.Driver
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RSAPublicKey    *rsa.PublicKey
	DefaultTimezone *time.Location

	SendGridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string

	AccessCodeRotationSpec string
	SeedAdminEmail         string
	SeedAdminPassword      string

	// Feature-flag snapshots
	LDFlag_SeedDbWithTestData     bool
	LDFlag_CORSHighSecurity       bool
	LDFlag_SendNotificationEmails bool
	LDFlag_SendNotificationSMS    bool
	LDFlag_SendgridSandboxMode    bool
	LDFlag_SendgridFromEmail      string
	LDFlag_TwilioFromPhone        string
}

// build-time overrides, set with -ldflags
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

// LoadConfig reads ldflags, then the environment, then snapshots the
// LaunchDarkly flags. Missing required values are fatal.
func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// 1) Validate required ldflags
	//----------------------------------------------------------------------
	if AppName == "" {
		utils.Logger.Fatal("AppName was not provided via ldflags")
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// 2) Runtime environment vars
	//----------------------------------------------------------------------
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	if env != EnvProd {
		// Local runs keep secrets in .env; a missing file is fine.
		if err := godotenv.Load(); err == nil {
			utils.Logger.Debug("Loaded .env file")
		}
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appURL := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appURL == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}

	driverName := os.Getenv("STORE_DRIVER")
	if driverName == "" {
		driverName = string(docstore.DriverPostgres)
	}
	driver, err := docstore.ParseDriver(driverName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid STORE_DRIVER")
	}

	cfg := &Config{
		OrganizationName:       OrganizationName,
		AppName:                AppName,
		Env:                    env,
		AppPort:                appPort,
		AppUrl:                 appURL,
		StoreDriver:            driver,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDatabase:          envOr("MONGO_DATABASE", "aftras_crm"),
		SendGridAPIKey:         os.Getenv("SENDGRID_API_KEY"),
		TwilioAccountSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:        os.Getenv("TWILIO_AUTH_TOKEN"),
		AccessCodeRotationSpec: envOr("ACCESS_CODE_ROTATION_SPEC", "@hourly"),
		SeedAdminEmail:         os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:      os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	switch driver {
	case docstore.DriverPostgres:
		if cfg.DatabaseURL == "" {
			utils.Logger.Fatal("DATABASE_URL env var is missing")
		}
	case docstore.DriverMongo:
		if cfg.MongoURI == "" {
			utils.Logger.Fatal("MONGO_URI env var is missing")
		}
	}

	tzName := envOr("DEFAULT_TIMEZONE", "Africa/Abidjan")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("Invalid DEFAULT_TIMEZONE %q", tzName)
	}
	cfg.DefaultTimezone = loc

	pub, err := ParseRSAPublicKey(os.Getenv("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is missing or invalid")
	}
	cfg.RSAPublicKey = pub

	//----------------------------------------------------------------------
	// 3) LaunchDarkly client & flags
	//----------------------------------------------------------------------
	loadFlags(cfg, os.Getenv("LD_SDK_KEY"))

	utils.Logger.Infof("Loaded config for %s (%s, store=%s)", AppName, env, driver)
	return cfg
}

// ParseRSAPublicKey decodes a base64-wrapped PEM public key.
func ParseRSAPublicKey(b64 string) (*rsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(raw)
}

// flagReader is the subset of the LaunchDarkly client LoadConfig reads.
type flagReader interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
	StringVariation(key string, context ldcontext.Context, defaultVal string) (string, error)
}

func loadFlags(cfg *Config, sdkKey string) {
	if sdkKey == "" {
		utils.Logger.Warn("LD_SDK_KEY not set; using environment flag defaults")
		applyFlags(cfg, envFlags{}, ldcontext.New("local"))
		return
	}
	if LDServerContextKey == "" {
		utils.Logger.Fatal("LDServerContextKey was not provided via ldflags")
	}
	if LDServerContextKind == "" {
		utils.Logger.Fatal("LDServerContextKind was not provided via ldflags")
	}

	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)
	applyFlags(cfg, ldClient, ctx)
}

func applyFlags(cfg *Config, flags flagReader, ctx ldcontext.Context) {
	boolFlag := func(key string, def bool) bool {
		v, err := flags.BoolVariation(key, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("%s flag error", key)
		}
		utils.Logger.Debugf("%s flag: %t", key, v)
		return v
	}
	stringFlag := func(key, def string) string {
		v, err := flags.StringVariation(key, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("%s flag error", key)
		}
		utils.Logger.Debugf("%s flag: %s", key, v)
		return v
	}

	cfg.LDFlag_SeedDbWithTestData = boolFlag("seed_db_with_test_data", cfg.Env == EnvDev)
	cfg.LDFlag_CORSHighSecurity = boolFlag("cors_high_security", cfg.Env == EnvProd)
	cfg.LDFlag_SendNotificationEmails = boolFlag("send_notification_emails", false)
	cfg.LDFlag_SendNotificationSMS = boolFlag("send_notification_sms", false)
	cfg.LDFlag_SendgridSandboxMode = boolFlag("sendgrid_sandbox_mode", cfg.Env != EnvProd)
	cfg.LDFlag_SendgridFromEmail = stringFlag("sendgrid_from_email", "no-reply@aftras.com")
	cfg.LDFlag_TwilioFromPhone = stringFlag("twilio_from_phone", "")
}

// envFlags serves flags from FLAG_<KEY> environment variables.
type envFlags struct{}

func (envFlags) BoolVariation(key string, _ ldcontext.Context, def bool) (bool, error) {
	raw, ok := os.LookupEnv(flagEnvName(key))
	if !ok {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func (envFlags) StringVariation(key string, _ ldcontext.Context, def string) (string, error) {
	if raw, ok := os.LookupEnv(flagEnvName(key)); ok {
		return raw, nil
	}
	return def, nil
}

func flagEnvName(key string) string {
	return "FLAG_" + strings.ToUpper(key)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
