package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultInstitutionalDomain = "javeriana.edu.co"

type Config struct {
	DiscordToken     string `validate:"required"`
	ClientID         string // aplicación, para /commands deploy
	GuildIDTest      string
	GuildIDProd      string
	DeployTarget     string   `validate:"oneof=test prod"`
	RegisterCommands bool     // registrar comandos al arrancar el bot
	AdminRoleIDs     []string // roles admin extra, además de los de /setup

	Storage StorageConfig
	Redis   string // REDIS_URL; vacío = memoria del proceso
	Mail    MailConfig

	InstitutionalDomain string `validate:"required,hostname"`
	HTTPAddr            string // vacío = sin servidor HTTP

	LogLevel   string `validate:"oneof=debug info warn error"`
	LogFile    string
	LogNoColor bool
}

type StorageConfig struct {
	Backend     string `validate:"oneof=file s3 postgres"`
	Path        string
	DatabaseURL string `validate:"required_if=Backend postgres"`

	S3Endpoint  string `validate:"required_if=Backend s3"`
	S3Bucket    string `validate:"required_if=Backend s3"`
	S3Key       string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
}

type MailConfig struct {
	Backend string `validate:"oneof=smtp api log"`
	From    string `validate:"required_unless=Backend log"`

	SMTPHost                  string `validate:"required_if=Backend smtp"`
	SMTPPort                  int    `validate:"min=1,max=65535"`
	SMTPUser                  string
	SMTPPass                  string
	SMTPRequireTLS            bool
	SMTPTLSRejectUnauthorized bool
	SMTPConnectionTimeout     time.Duration
	SMTPSocketTimeout         time.Duration

	APIURL string `validate:"omitempty,url"`
	APIKey string `validate:"required_if=Backend api"`
}

// GuildID devuelve el servidor destino según DEPLOY_TARGET.
func (c Config) GuildID() string {
	if c.DeployTarget == "prod" {
		return c.GuildIDProd
	}
	return c.GuildIDTest
}

func defaults(v *viper.Viper) {
	v.SetDefault("DEPLOY_TARGET", "test")
	v.SetDefault("REGISTER_COMMANDS", false)
	v.SetDefault("CONFIG_BACKEND", "file")
	v.SetDefault("CONFIG_PATH", "config/config.json")
	v.SetDefault("S3_KEY", "config.json")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("MAIL_BACKEND", "smtp")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_REQUIRE_TLS", false)
	v.SetDefault("SMTP_TLS_REJECT_UNAUTHORIZED", true)
	v.SetDefault("SMTP_CONNECTION_TIMEOUT", "10s")
	v.SetDefault("SMTP_SOCKET_TIMEOUT", "10s")
	v.SetDefault("MAIL_API_URL", "https://api.resend.com")
	v.SetDefault("INSTITUTIONAL_EMAIL_DOMAIN", DefaultInstitutionalDomain)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load lee .env (si existe) y el entorno, y valida el resultado.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf(".env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return v
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DiscordToken:     v.GetString("DISCORD_TOKEN"),
		ClientID:         v.GetString("CLIENT_ID"),
		GuildIDTest:      v.GetString("GUILD_ID_TEST"),
		GuildIDProd:      v.GetString("GUILD_ID_PROD"),
		DeployTarget:     strings.ToLower(v.GetString("DEPLOY_TARGET")),
		RegisterCommands: v.GetBool("REGISTER_COMMANDS"),
		AdminRoleIDs:     splitList(v.GetString("ADMIN_ROLE_IDS")),
		Storage: StorageConfig{
			Backend:     strings.ToLower(v.GetString("CONFIG_BACKEND")),
			Path:        v.GetString("CONFIG_PATH"),
			DatabaseURL: v.GetString("DATABASE_URL"),
			S3Endpoint:  v.GetString("S3_ENDPOINT"),
			S3Bucket:    v.GetString("S3_BUCKET"),
			S3Key:       v.GetString("S3_KEY"),
			S3AccessKey: v.GetString("S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("S3_SECRET_KEY"),
			S3Region:    v.GetString("S3_REGION"),
			S3UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Redis: v.GetString("REDIS_URL"),
		Mail: MailConfig{
			Backend:                   strings.ToLower(v.GetString("MAIL_BACKEND")),
			From:                      firstNonEmpty(v.GetString("MAIL_FROM"), v.GetString("SMTP_FROM")),
			SMTPHost:                  v.GetString("SMTP_HOST"),
			SMTPPort:                  v.GetInt("SMTP_PORT"),
			SMTPUser:                  v.GetString("SMTP_USER"),
			SMTPPass:                  v.GetString("SMTP_PASS"),
			SMTPRequireTLS:            v.GetBool("SMTP_REQUIRE_TLS"),
			SMTPTLSRejectUnauthorized: v.GetBool("SMTP_TLS_REJECT_UNAUTHORIZED"),
			SMTPConnectionTimeout:     v.GetDuration("SMTP_CONNECTION_TIMEOUT"),
			SMTPSocketTimeout:         v.GetDuration("SMTP_SOCKET_TIMEOUT"),
			APIURL:                    v.GetString("MAIL_API_URL"),
			APIKey:                    v.GetString("MAIL_API_KEY"),
		},
		InstitutionalDomain: strings.ToLower(v.GetString("INSTITUTIONAL_EMAIL_DOMAIN")),
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:             v.GetString("LOG_FILE"),
		LogNoColor:          v.GetBool("LOG_NO_COLOR"),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
