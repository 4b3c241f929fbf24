package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

type rateLimiterWithTime struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

func (app *App) getLimiter(key string) *rate.Limiter {
	app.limiterMutex.RLock()
	limWithTime, ok := app.limiterMap[key]
	app.limiterMutex.RUnlock()
	if ok {
		app.limiterMutex.Lock()
		if limWithTime, ok = app.limiterMap[key]; ok {
			limWithTime.LastAccess = time.Now()
		}
		app.limiterMutex.Unlock()
		return limWithTime.Limiter
	}

	app.limiterMutex.Lock()
	defer app.limiterMutex.Unlock()
	if limWithTime, ok = app.limiterMap[key]; ok {
		limWithTime.LastAccess = time.Now()
		return limWithTime.Limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.cfg.RateLimitBurst)
	limWithTime = &rateLimiterWithTime{
		Limiter:    lim,
		LastAccess: time.Now(),
	}
	app.limiterMap[key] = limWithTime
	return lim
}

func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !app.getLimiter(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

func (app *App) cleanupStaleRateLimiters() {
	app.limiterMutex.Lock()
	defer app.limiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.cfg.RateLimiterTTL)
	removedCount := 0

	for key, limWithTime := range app.limiterMap {
		if limWithTime.LastAccess.Before(cutoffTime) {
			delete(app.limiterMap, key)
			removedCount++
		}
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
}
