package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotAppID       string `envconfig:"BOT_APP_ID" required:"true"`
	BotAppPassword string `envconfig:"BOT_APP_PASSWORD" required:"true"`
	OpenAIKey      string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel    string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`

	DBPath   string `envconfig:"DB_PATH" default:"./data/checkin.db"`
	TZ       string `envconfig:"TZ_NAME" default:"Asia/Almaty"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	// SlotTimes is the comma-separated list of question times (HH:MM, local TZ).
	// The default mirrors the office schedule: every 30 minutes with a lunch gap.
	SlotTimes string `envconfig:"SLOT_TIMES" default:"09:00,09:30,10:00,10:30,11:00,11:30,12:00,12:30,14:00,14:30,15:00,15:30,16:00,16:30,17:00"`

	QuestionText  string `envconfig:"QUESTION_TEXT" default:"What are you doing right now? 📝"`
	DigestCron    string `envconfig:"DIGEST_CRON" default:"0 17 * * *"`
	RetentionCron string `envconfig:"RETENTION_CRON" default:"0 2 * * *"`
	RetentionDays int    `envconfig:"RETENTION_DAYS" default:"30"`

	SendTimeoutSec      int `envconfig:"SEND_TIMEOUT_SEC" default:"10"`
	SummarizeTimeoutSec int `envconfig:"SUMMARIZE_TIMEOUT_SEC" default:"60"`
	DispatchWorkers     int `envconfig:"DISPATCH_WORKERS" default:"8"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
