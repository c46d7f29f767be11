package toggles

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	table := New(LoadEnv(envOf(nil)))
	s := table.Snapshot()

	assert.Equal(t, Unset, s.ArrayRaw)
	assert.Equal(t, Unset, s.HstoreRaw)
	assert.False(t, s.IntervalRaw)
	assert.False(t, s.GeneratedKeys)
	assert.Equal(t, Unset, s.StopCleanupThread)
	assert.Equal(t, Unset, s.KillCancelTimer)

	v, err := table.Get(ArrayRaw)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLoadEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, s Snapshot)
	}{
		{
			name: "exact name",
			env:  map[string]string{"postgresql.array.raw": "TRUE"},
			check: func(t *testing.T, s Snapshot) {
				assert.Equal(t, True, s.ArrayRaw)
			},
		},
		{
			name: "upper snake form",
			env:  map[string]string{"DBCODEC_MYSQL_KILL_CANCEL_TIMER": "false"},
			check: func(t *testing.T, s Snapshot) {
				assert.Equal(t, False, s.KillCancelTimer)
			},
		},
		{
			// только "true" считается истиной
			name: "parse like parseBoolean",
			env:  map[string]string{"postgresql.hstore.raw": "yes"},
			check: func(t *testing.T, s Snapshot) {
				assert.Equal(t, False, s.HstoreRaw)
			},
		},
		{
			name: "legacy generated keys alias",
			env:  map[string]string{"postgresql.generated.keys": "true"},
			check: func(t *testing.T, s Snapshot) {
				assert.True(t, s.GeneratedKeys)
			},
		},
		{
			name: "canonical name wins over alias",
			env: map[string]string{
				"postgresql.generated_keys": "false",
				"postgresql.generated.keys": "true",
			},
			check: func(t *testing.T, s Snapshot) {
				assert.False(t, s.GeneratedKeys)
			},
		},
		{
			name: "misspelled interval name",
			env:  map[string]string{"postgresql.iterval.raw": "true"},
			check: func(t *testing.T, s Snapshot) {
				assert.True(t, s.IntervalRaw)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, LoadEnv(envOf(tt.env)))
		})
	}
}

func TestSetSemantics(t *testing.T) {
	tests := []struct {
		name     string
		toggle   string
		value    any
		expected any
	}{
		{"tri bool true", ArrayRaw, true, true},
		{"tri bool false", ArrayRaw, false, false},
		{"tri nil resets", ArrayRaw, nil, nil},
		{"tri truthy", StopCleanupThread, "anything", true},
		{"bi nil is false", IntervalRaw, nil, false},
		{"bi truthy", GeneratedKeys, 1, true},
		{"bi false", GeneratedKeys, false, false},
		{"alias", "postgresql.interval.raw", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := New(Snapshot{ArrayRaw: True, IntervalRaw: true})
			require.NoError(t, table.Set(tt.toggle, tt.value))

			got, err := table.Get(tt.toggle)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnknownToggle(t *testing.T) {
	table := New(Snapshot{})
	assert.Error(t, table.Set("mysql.nope", true))
	_, err := table.Get("mysql.nope")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	table := New(Snapshot{})
	err := table.Apply(map[string]any{
		HstoreRaw:       true,
		KillCancelTimer: false,
	})
	require.NoError(t, err)

	assert.True(t, table.HstoreRaw())
	assert.Equal(t, False, table.KillCancelTimer())
	assert.Error(t, table.Apply(map[string]any{"bogus": true}))
}

func TestConcurrentSet(t *testing.T) {
	// параллельные записи разных флагов не теряют друг друга
	table := New(Snapshot{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = table.Set(ArrayRaw, true)
		}()
		go func() {
			defer wg.Done()
			_ = table.Set(GeneratedKeys, true)
		}()
	}
	wg.Wait()

	assert.True(t, table.ArrayRaw())
	assert.True(t, table.GeneratedKeys())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DBCODEC_POSTGRESQL_ARRAY_RAW", EnvName(ArrayRaw))
	assert.Equal(t, "DBCODEC_POSTGRESQL_GENERATED_KEYS", EnvName(GeneratedKeys))
}
