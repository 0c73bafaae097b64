// internal/workers/summons/extract-case-fields/config.go
package extractcasefields

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
