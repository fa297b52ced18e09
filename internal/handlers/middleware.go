package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	userIDKey     = "user_id"
	anonymousUser = "anonymous"
	userIDHeader  = "X-User-ID"
)

// TokenVerifier checks a bearer token and returns the user it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type jwtVerifier struct {
	key []byte
	now func() time.Time
}

// NewJWTVerifier verifies HS256 tokens issued by the account service.
func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{key: []byte(secret), now: time.Now}
}

func (v *jwtVerifier) Verify(token string) (string, error) {
	t, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) {
			return v.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("cannot parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok || !t.Valid {
		return "", errors.New("token not valid")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Auth resolves the caller. With a verifier every request needs a valid bearer token;
// without one the X-User-ID header is trusted and missing users become "anonymous".
func Auth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			user := strings.TrimSpace(c.Get(userIDHeader))
			if user == "" {
				user = anonymousUser
			}
			c.Locals(userIDKey, user)
			return c.Next()
		}

		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, msgUnauthenticated)
		}
		user, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgUnauthenticated)
		}
		c.Locals(userIDKey, user)
		return c.Next()
	}
}

// UserID returns the caller resolved by Auth.
func UserID(c *fiber.Ctx) string {
	if user, ok := c.Locals(userIDKey).(string); ok && user != "" {
		return user
	}
	return anonymousUser
}

var (
	httpRequestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: "vericv",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
)

// Metrics records request counts and latencies per route.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusFor(err)
		}
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		code := strconv.Itoa(status)

		httpRequestDuration.WithLabelValues(c.Method(), path, code).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Method(), path, code).Inc()
		return err
	}
}
