package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripter answers EvalSha with a canned result and records the call.
type fakeScripter struct {
	result any
	err    error
	keys   []string
	args   []interface{}
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, "", keys, args...)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.keys, f.args = keys, args
	return redis.NewCmdResult(f.result, f.err)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestRateLimitStore_Hit(t *testing.T) {
	f := &fakeScripter{result: int64(4)}
	s := NewRateLimitStore(f, "")

	count, ok, err := s.Hit(context.Background(), "user-1", "chat", 50, time.Hour, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, count)
	assert.Equal(t, []string{"folio:ratelimit:chat:user-1"}, f.keys)
	assert.Equal(t, []interface{}{50, int64(3600000)}, f.args)
}

func TestRateLimitStore_Denied(t *testing.T) {
	s := NewRateLimitStore(&fakeScripter{result: int64(-1)}, "p:")

	count, ok, err := s.Hit(context.Background(), "user-1", "chat", 50, time.Hour, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 50, count)
}

func TestRateLimitStore_Error(t *testing.T) {
	s := NewRateLimitStore(&fakeScripter{err: errors.New("LOADING")}, "")

	_, _, err := s.Hit(context.Background(), "user-1", "chat", 50, time.Hour, time.Now())
	assert.Error(t, err)
}
