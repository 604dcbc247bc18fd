package gate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/logger"
)

// SkipReason identifies why content was rejected before scoring.
type SkipReason string

const (
	SkipErrorPage           SkipReason = "error_page"
	SkipLoginWall           SkipReason = "login_wall"
	SkipInsufficientContent SkipReason = "insufficient_content"
)

const minContentLength = 100

var errorTitles = map[string]struct{}{
	"access denied":       {},
	"error":               {},
	"404":                 {},
	"403":                 {},
	"401":                 {},
	"500":                 {},
	"not found":           {},
	"page not found":      {},
	"forbidden":           {},
	"unauthorized":        {},
	"server error":        {},
	"bad request":         {},
	"service unavailable": {},
}

var errorKeywords = []string{"error", "404", "403", "401", "500", "denied", "forbidden"}

var loginTitles = map[string]struct{}{
	"login":                   {},
	"sign in":                 {},
	"sign up":                 {},
	"register":                {},
	"authentication required": {},
	"please log in":           {},
}

var loginPatterns = []string{
	"email or mobile number",
	"username and password",
	"sign in to continue",
	"login to access",
	"please log in",
	"authentication required",
	"otp code",
	"captcha",
}

// Gate rejects unscoreable content before any paid work happens. Checks
// run in fixed priority order and the first matching reason wins:
// error page, then login wall, then insufficient length.
type Gate struct{}

func New() *Gate {
	return &Gate{}
}

// Evaluate returns the skip reason for the content, or "" when it passes.
// Deterministic and idempotent; no side effects beyond logging.
func (g *Gate) Evaluate(title, body, url string) SkipReason {
	if g.isErrorPage(title, body) {
		logger.Debug("Content gated", zap.String("reason", string(SkipErrorPage)), zap.String("url", url))
		return SkipErrorPage
	}
	if g.isLoginWall(title, body) {
		logger.Debug("Content gated", zap.String("reason", string(SkipLoginWall)), zap.String("url", url))
		return SkipLoginWall
	}
	if len(body) < minContentLength {
		logger.Debug("Content gated",
			zap.String("reason", string(SkipInsufficientContent)),
			zap.String("url", url),
			zap.Int("body_length", len(body)),
		)
		return SkipInsufficientContent
	}
	return ""
}

func (g *Gate) isErrorPage(title, body string) bool {
	titleLower := strings.TrimSpace(strings.ToLower(title))

	if _, ok := errorTitles[titleLower]; ok {
		return true
	}

	for _, kw := range errorKeywords {
		if strings.Contains(titleLower, kw) {
			return true
		}
	}

	sample := strings.ToLower(head(body, 500))
	return strings.Contains(sample, "access denied") || strings.Contains(sample, "error occurred")
}

func (g *Gate) isLoginWall(title, body string) bool {
	titleLower := strings.TrimSpace(strings.ToLower(title))

	if _, ok := loginTitles[titleLower]; ok {
		return true
	}

	// A single pattern hit is not enough: real content legitimately says
	// "sign in" once. Two distinct patterns in the lead-in mark a wall.
	sample := strings.ToLower(head(body, 1000))
	count := 0
	for _, pattern := range loginPatterns {
		if strings.Contains(sample, pattern) {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
