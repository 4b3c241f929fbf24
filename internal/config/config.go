package config

import (
	"os"
	"time"

	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

// Config collects every runtime knob in one place, built once at startup.
type Config struct {
	Port         string
	IsProduction bool

	DatabasePath string

	RoundTime       time.Duration
	RoundsPerPlayer int

	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	SocketRPS      int
	SocketBurst    int

	RoomTTL         time.Duration
	CleanupInterval time.Duration

	StaticCacheAge time.Duration
}

func Load() *Config {
	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"

	return &Config{
		Port:            util.GetEnvStr("PORT", "8080"),
		IsProduction:    isProduction,
		DatabasePath:    util.GetEnvStr("DATABASE_PATH", "instance/quietgame.db"),
		RoundTime:       util.GetEnvDuration("ROUND_TIME", 60*time.Second),
		RoundsPerPlayer: util.GetEnvInt("ROUNDS_PER_PLAYER", 2),
		RateLimitRPS:    util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL:  util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		SocketRPS:       util.GetEnvInt("SOCKET_RPS", 10),
		SocketBurst:     util.GetEnvInt("SOCKET_BURST", 20),
		RoomTTL:         util.GetEnvDuration("ROOM_TTL", 3*time.Hour),
		CleanupInterval: util.GetEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
		StaticCacheAge:  util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
	}
}
