package logger

// Config holds logger settings.
type Config struct {
	Level      string `json:"level"`       // debug, info, warn, error (default: info)
	FilePath   string `json:"file_path"`   // optional rotating log file, empty = stdout only
	MaxSizeMB  int    `json:"max_size_mb"` // rotate after this size (default: 20)
	MaxBackups int    `json:"max_backups"` // rotated files to keep (default: 5)
}

// SetDefaults fills in default values.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 20
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
}
