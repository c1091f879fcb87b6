// Package middleware holds the gin middleware specific to the navigator's
// public routes.
package middleware

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/gin-gonic/gin"
)

const isBotKey = "is_bot"

// botPatterns are known crawler User-Agent substrings (lowercase).
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "rogerbot", "linkedinbot", "embedly",
	"quora link preview", "showyoubot", "outbrain",
	"pinterest", "applebot", "semrushbot", "ahrefsbot",
	"mj12bot", "dotbot", "petalbot", "bytespider",
	"sogou", "360spider", "gptbot", "ccbot",
}

// botMatcher finds any pattern in a single pass. Match mutates the
// matcher's hit counters, so calls are serialised.
var (
	botMatcher   = ahocorasick.NewStringMatcher(botPatterns)
	botMatcherMu sync.Mutex
)

// BotFilter flags known crawler user agents. Flagged requests are still
// served; handlers use IsBot to skip click recording.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isBot(strings.ToLower(c.Request.UserAgent())) {
			c.Set(isBotKey, true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter flagged the request.
func IsBot(c *gin.Context) bool {
	return c.GetBool(isBotKey)
}

func isBot(ua string) bool {
	if ua == "" {
		return false
	}
	botMatcherMu.Lock()
	defer botMatcherMu.Unlock()
	return len(botMatcher.Match([]byte(ua))) > 0
}
