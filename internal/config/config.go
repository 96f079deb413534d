package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Chatbot    ChatbotConfig    `mapstructure:"chatbot"`
	PhotoCheck PhotoCheckConfig `mapstructure:"photocheck"`
	Billing    BillingConfig    `mapstructure:"billing"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type ChatbotConfig struct {
	Token      string `mapstructure:"token"`
	WebhookURL string `mapstructure:"webhook_url"`
	Timeout    int    `mapstructure:"timeout"`
}

type PhotoCheckConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type BillingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ChatID            int64  `mapstructure:"chat_id"`
	SpreadsheetID     string `mapstructure:"spreadsheet_id"`
	InvoiceTemplateID string `mapstructure:"invoice_template_id"`
	ActTemplateID     string `mapstructure:"act_template_id"`
	PDFFolderID       string `mapstructure:"pdf_folder_id"`
	CredentialsFile   string `mapstructure:"credentials_file"`
	// Cron is a standard cron spec for unattended billing runs;
	// empty disables the schedule.
	Cron string `mapstructure:"cron"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set defaults
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "chorebot")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	viper.SetDefault("chatbot.token", "")
	viper.SetDefault("chatbot.webhook_url", "")
	viper.SetDefault("chatbot.timeout", 30)

	viper.SetDefault("photocheck.timezone", "Europe/Kyiv")

	viper.SetDefault("billing.enabled", false)
	viper.SetDefault("billing.chat_id", 0)
	viper.SetDefault("billing.spreadsheet_id", "")
	viper.SetDefault("billing.invoice_template_id", "")
	viper.SetDefault("billing.act_template_id", "")
	viper.SetDefault("billing.pdf_folder_id", "")
	viper.SetDefault("billing.credentials_file", "")
	viper.SetDefault("billing.cron", "")
}
