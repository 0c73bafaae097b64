// internal/workers/summons/summons-assist/config.go
package summonsassist

import "time"

type Config struct {
	// Timeout bounds a whole run, extraction retries included.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 120 * time.Second,
	}
}
