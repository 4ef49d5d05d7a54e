package middleware

import (
	"net/http"
	"strings"
	"time"

	"CareAlert/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 提交限流配置
//
// 反复刷同一条求助文本会把等待队列灌满，按来源 IP 做节流。
// Rate 使用 limiter 的格式写法，如 "30-M"、"5-S"。
type RateLimiterConfig struct {
	Rate      string   `json:"rate"`
	SkipPaths []string `json:"skip_paths"` // 前缀匹配
}

// RateLimiter 基于内存 store 的限流中间件
func RateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 60}
	}
	lim := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		lctx, err := lim.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// 限流器故障时放行，不能因为节流组件挡掉真实求助
			c.Next()
			return
		}
		if lctx.Reached {
			response.FailWithStatus(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
