package util

import (
	"crypto/rand"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
)

func LogInfo(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

func LogWarn(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

func LogFatal(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}

func GetEnvStr(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

func GetEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		LogWarn("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

// GenerateRoomCode returns a shareable code in XXXX-XXXX form.
func GenerateRoomCode() string {
	var b strings.Builder
	b.Grow(constants.RoomCodePartLen*2 + 1)
	for i := 0; i < constants.RoomCodePartLen*2; i++ {
		if i == constants.RoomCodePartLen {
			b.WriteByte('-')
		}
		b.WriteByte(constants.RoomCodeAlphabet[RandIndex(len(constants.RoomCodeAlphabet))])
	}
	return b.String()
}

// RandIndex returns a uniform index in [0, n) from crypto/rand.
func RandIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		LogWarn("crypto/rand failed: %v, falling back to time-based index", err)
		return int(time.Now().UnixNano()) % n
	}
	return int(v.Int64())
}

// NormalizeRoomCode uppercases and trims a caller-supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return plural(hours, "hour") + ", " + plural(minutes, "minute") + ", " + plural(seconds, "second")
	case minutes > 0:
		return plural(minutes, "minute") + ", " + plural(seconds, "second")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
