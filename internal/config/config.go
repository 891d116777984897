package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Executor
		Resync
		HealthScan
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Executor struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}
	Resync struct {
		PacingDelay     time.Duration // fixed delay between jobs in a bulk resync
		DispatchTimeout time.Duration
	}
	HealthScan struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Executor defaults
	v.SetDefault("executor_base_url", "")
	v.SetDefault("executor_token", "")
	v.SetDefault("executor_timeout", "30s")

	// Resync defaults
	v.SetDefault("resync_pacing_delay", "2s")
	v.SetDefault("resync_dispatch_timeout", "5m")

	// Health scan defaults
	v.SetDefault("health_scan_enabled", false)
	v.SetDefault("health_scan_schedule", "*/30 * * * *") // Every 30 minutes

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 1)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Executor: Executor{
			BaseURL: v.GetString("EXECUTOR_BASE_URL"),
			Token:   v.GetString("EXECUTOR_TOKEN"),
			Timeout: v.GetDuration("EXECUTOR_TIMEOUT"),
		},
		Resync: Resync{
			PacingDelay:     v.GetDuration("RESYNC_PACING_DELAY"),
			DispatchTimeout: v.GetDuration("RESYNC_DISPATCH_TIMEOUT"),
		},
		HealthScan: HealthScan{
			Enabled:  v.GetBool("HEALTH_SCAN_ENABLED"),
			Schedule: v.GetString("HEALTH_SCAN_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
