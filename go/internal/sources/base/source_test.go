package base

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/rankboard/go/internal/models"
)

// registerForTest registers factory under a key unique to t and removes it when t ends
func registerForTest(t *testing.T, factory Factory) string {
	t.Helper()
	key := "test/" + t.Name()
	require.NoError(t, RegisterSource(key, factory))
	t.Cleanup(func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		delete(registry, key)
	})
	return key
}

func TestRegisterSource(t *testing.T) {
	called := false
	factory := func(cfg Config) (RankingSource, error) {
		called = true
		return SourceFunc(func(context.Context, models.GameID, models.TimeWindow) ([]models.RankEntry, error) {
			return nil, nil
		}), nil
	}

	key := registerForTest(t, factory)
	require.Error(t, RegisterSource(key, factory))
	require.Error(t, RegisterSource("", factory))
	require.Error(t, RegisterSource("nil-factory", nil))
	require.Contains(t, RegisteredSources(), key)

	src, err := NewSource(key, Config{Codes: models.DefaultGameCodes})
	require.NoError(t, err)
	require.NotNil(t, src)
	require.True(t, called)

	_, err = NewSource("missing", Config{})
	require.Error(t, err)
}

func TestNewSource_WrapsFactoryError(t *testing.T) {
	boom := errors.New("boom")
	key := registerForTest(t, func(Config) (RankingSource, error) {
		return nil, boom
	})

	_, err := NewSource(key, Config{})
	require.ErrorIs(t, err, boom)
}

func TestRegisterSource_RepeatableAfterCleanup(t *testing.T) {
	factory := func(Config) (RankingSource, error) { return nil, nil }

	var key string
	t.Run("first", func(t *testing.T) {
		key = registerForTest(t, factory)
	})
	require.NotContains(t, RegisteredSources(), key)
	require.NoError(t, RegisterSource(key, factory))
	require.Contains(t, RegisteredSources(), key)

	registryMu.Lock()
	delete(registry, key)
	registryMu.Unlock()
}

func TestCodeFor(t *testing.T) {
	code, err := CodeFor(models.DefaultGameCodes, models.GameC)
	require.NoError(t, err)
	require.Equal(t, 20102, code)

	_, err = CodeFor(map[models.GameID]int{}, models.GameA)
	require.ErrorIs(t, err, ErrUnknownGame)
}

func TestConfig_Setting(t *testing.T) {
	cfg := Config{Settings: map[string]string{"url": "http://ranking", "empty": ""}}

	require.Equal(t, "http://ranking", cfg.Setting("url", "fallback"))
	require.Equal(t, "fallback", cfg.Setting("empty", "fallback"))
	require.Equal(t, "fallback", cfg.Setting("missing", "fallback"))
}
