package config

import (
	"main/utils"
)

// MailerConfig holds SMTP transport settings. Email delivery is
// optional: when User or Password is empty the dispatcher is not wired
// and reminders fall back to browser notifications only.
type MailerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func LoadMailerConfig() MailerConfig {
	user := utils.GetEnvAsString("EMAIL_USER", "")
	return MailerConfig{
		Host:     utils.GetEnvAsString("SMTP_HOST", "smtp.gmail.com"),
		Port:     utils.GetEnvAsInt("SMTP_PORT", 587),
		User:     user,
		Password: utils.GetEnvAsString("EMAIL_PASSWORD", ""),
		From:     utils.GetEnvAsString("EMAIL_FROM", user),
	}
}

// Enabled reports whether credentials are present.
func (c MailerConfig) Enabled() bool {
	return c.User != "" && c.Password != ""
}
