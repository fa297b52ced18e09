package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/logger"
	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

// QuestionCache remembers generated questions per resume and count. Failures are logged and read as a miss.
type QuestionCache interface {
	Get(ctx context.Context, resumeText string, count int) ([]models.Question, bool)
	Set(ctx context.Context, resumeText string, count int, questions []models.Question)
}

const questionCachePrefix = "vericv:quiz:"

func questionCacheKey(resumeText string, count int) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(resumeText)))
	return fmt.Sprintf("%s%d:%s", questionCachePrefix, count, hex.EncodeToString(sum[:]))
}

type redisQuestionCache struct {
	cmd redis.Cmdable
	ttl time.Duration
	log *zap.Logger
}

func NewRedisQuestionCache(cmd redis.Cmdable, ttl time.Duration, log *zap.Logger) QuestionCache {
	return &redisQuestionCache{cmd: cmd, ttl: ttl, log: logger.OrNop(log)}
}

func (c *redisQuestionCache) Get(ctx context.Context, resumeText string, count int) ([]models.Question, bool) {
	data, err := c.cmd.Get(ctx, questionCacheKey(resumeText, count)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("question cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		c.log.Warn("question cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return questions, true
}

func (c *redisQuestionCache) Set(ctx context.Context, resumeText string, count int, questions []models.Question) {
	if len(questions) == 0 {
		return
	}
	data, err := json.Marshal(questions)
	if err != nil {
		c.log.Warn("question cache encode failed", zap.Error(err))
		return
	}
	if err := c.cmd.Set(ctx, questionCacheKey(resumeText, count), data, c.ttl).Err(); err != nil {
		c.log.Warn("question cache write failed", zap.Error(err))
	}
}

type noopQuestionCache struct{}

// NewNoopQuestionCache is used when no redis address is configured.
func NewNoopQuestionCache() QuestionCache {
	return noopQuestionCache{}
}

func (noopQuestionCache) Get(context.Context, string, int) ([]models.Question, bool) {
	return nil, false
}

func (noopQuestionCache) Set(context.Context, string, int, []models.Question) {}
