package eventr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-cti/policr/internal/policr/event"
)

func TestGenerateLoadsBack(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		mode event.Mode
	}{
		{"flat", Config{Seed: 7, Events: 2, Mode: "attributes", Attributes: 5}, event.ModeFlat},
		{"flat wraps catalog", Config{Seed: 7, Events: 1, Mode: "attributes", Attributes: 20}, event.ModeFlat},
		{"objects", Config{Seed: 7, Events: 3, Mode: "objects", Objects: 4}, event.ModeNested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Output = t.TempDir()
			paths, err := Generate(tt.cfg)
			require.NoError(t, err)
			require.Len(t, paths, tt.cfg.Events)

			for _, p := range paths {
				f, err := event.LoadFile(p)
				require.NoError(t, err)
				assert.Equal(t, tt.mode, f.Mode)
				if tt.mode == event.ModeFlat {
					want := tt.cfg.Attributes
					if want > len(flatRelations) {
						want = len(flatRelations)
					}
					assert.Len(t, f.Attributes, want)
				} else {
					assert.NotEmpty(t, f.Objects)
					for _, o := range f.Objects {
						assert.Contains(t, Templates(), o.Name)
					}
				}
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	run := func() []byte {
		cfg := Config{Output: t.TempDir(), Seed: 42, Mode: "objects"}
		paths, err := Generate(cfg)
		require.NoError(t, err)
		data, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, run(), run())
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 3\nmode: objects\nevents: 2\n"), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Seed)
	assert.Equal(t, "objects", cfg.Mode)
	assert.Equal(t, 2, cfg.Events)
	assert.Equal(t, "event", cfg.Prefix)
	assert.Equal(t, 8, cfg.Attributes)

	require.NoError(t, os.WriteFile(path, []byte("mode: graph\n"), 0o644))
	_, err = ReadConfig(path)
	assert.Error(t, err)
}
