package model

// RetentionPolicy controls the periodic cleanup of old records.
type RetentionPolicy struct {
	AutoCleanupEnabled bool `json:"auto_cleanup_enabled"`
	RetentionDays      int  `json:"retention_days"`
}

// Settings keys persisted in the settings table.
const (
	SettingAutoCleanup   = "auto_cleanup_enabled"
	SettingRetentionDays = "retention_days"
	SettingLastCleanup   = "last_cleanup_timestamp"
)
