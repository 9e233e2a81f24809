package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
		PublicURL  string `default:"http://localhost:8000" env:"APP_PUBLIC_URL"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"travelink" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
		From       string `default:"" env:"SMTP_FROM"`
	}
	Auth struct {
		JWTSecret     string `default:"change-me" env:"JWT_SECRET"`
		TokenTTLHours int    `default:"24" env:"JWT_TOKEN_TTL_HOURS"`
	}
	S3 struct {
		Endpoint  string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKey string `default:"" env:"S3_ACCESS_KEY"`
		SecretKey string `default:"" env:"S3_SECRET_KEY"`
		Bucket    string `default:"travelink" env:"S3_BUCKET"`
		UseSSL    *bool  `default:"false" env:"S3_USE_SSL"`
	}
	Workflow struct {
		PresidentBudgetThreshold  float64 `default:"50000" env:"WF_PRESIDENT_BUDGET_THRESHOLD"`
		ResumeLadderAfterOverride *bool   `default:"true" env:"WF_RESUME_LADDER_AFTER_OVERRIDE"`
		InvitationTTLDays         int     `default:"7" env:"WF_INVITATION_TTL_DAYS"`
		RequestNumberRetries      int     `default:"5" env:"WF_REQUEST_NUMBER_RETRIES"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
