// internal/workers/summons/gather-context/config.go
package gathercontext

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultStayHours is used when the job carries no stayDurationHours.
	DefaultStayHours float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          90 * time.Second,
		DefaultStayHours: 2,
	}
}
