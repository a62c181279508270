package config

import (
	"main/utils"
)

// SchedulerConfig controls the reminder check loop.
type SchedulerConfig struct {
	// CheckSpec is the cron expression for the due-reminder scan.
	CheckSpec string
	// MaxAttempts is the delivery attempt ceiling; records at or above
	// it are never selected.
	MaxAttempts int
}

func LoadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CheckSpec:   utils.GetEnvAsString("REMINDER_CHECK_SPEC", "* * * * *"),
		MaxAttempts: utils.GetEnvAsInt("REMINDER_MAX_ATTEMPTS", 3),
	}
}
