package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator produces human-traceable reference codes for reward
// transactions. Codes are used for audit correlation, not uniqueness
// enforcement.
type Generator interface {
	NextRewardRef(ctx context.Context, kind string) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
	}
}

// NextRewardRef returns "<KIND>-<yymmdd>-<seq><rand>". The daily sequence
// lives in redis; when redis is unavailable the code degrades to a purely
// random suffix so awarding never blocks on the broker.
func (g *RedisGenerator) NextRewardRef(ctx context.Context, kind string) (string, error) {
	today := time.Now().UTC().Format("060102")
	key := fmt.Sprintf("seq:reward:%s:%s", kind, today)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		zap.L().Warn("reference sequence unavailable, falling back to random suffix", zap.Error(err))
		randSuffix, rerr := randomAlphaNumeric(6)
		if rerr != nil {
			return "", rerr
		}
		return fmt.Sprintf("%s-%s-R%s", kind, today, randSuffix), nil
	}

	if seq == 1 {
		expire := time.Until(time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second))
		_ = g.rdb.Expire(ctx, key, expire).Err()
	}

	encodedSeq := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(encodedSeq) < 3 {
		encodedSeq = strings.Repeat("0", 3-len(encodedSeq)) + encodedSeq
	}

	randSuffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s%s", kind, today, encodedSeq, randSuffix), nil
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}
