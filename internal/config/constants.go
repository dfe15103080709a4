// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "LingoLeitner"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":8080"
	DefaultDatabaseDriver = "postgres"
	DefaultLogLevel       = "info"
	DefaultAppReviewLimit = 20
	DefaultDailyWordLimit = 10
	DefaultQuotaTimezone  = "UTC"
	DefaultAccessTokenTTL = 24 * time.Hour
	DefaultReminderCron   = "0 * * * *" // 毎時0分
)

// クォータの保存先
const (
	QuotaBackendDB    = "db"
	QuotaBackendRedis = "redis"
)
