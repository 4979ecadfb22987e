package middleware

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter хранит по отдельному лимитеру на каждый IP клиента
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// RateLimitMiddleware ограничивает входящие запросы по IP клиента.
// Health-check не учитывается, чтобы мониторинг не выбирал лимит.
func RateLimitMiddleware(ipLimiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if !ipLimiter.GetLimiter(clientIP).Allow() {
			log.Printf("Rate limit blocked IP: %s for path: %s", clientIP, c.Request.URL.Path)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
