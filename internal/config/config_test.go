package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

func reset() {
	mu.Lock()
	cfg = nil
	v = nil
	mu.Unlock()
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	testConfig := `
game:
  width: 7
  height: 8
  units_per_team: 2
  jail_timer: 3
  sharing: team
training:
  alpha: 0.5
  epsilon: 0.05
persistence:
  type: file
  codec: json
  dir: out
`
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

	reset()
	require.NoError(t, Init(configPath))

	c := Get()
	assert.Equal(t, 7, c.Game.Width)
	assert.Equal(t, 8, c.Game.Height)
	assert.Equal(t, 2, c.Game.UnitsPerTeam)
	assert.Equal(t, 3, c.Game.JailTimer)
	assert.Equal(t, "team", c.Game.Sharing)
	assert.Equal(t, 0.5, c.Training.Alpha)
	assert.Equal(t, 0.9, c.Training.Gamma) // default
	assert.Equal(t, 0.05, c.Training.Epsilon)
	assert.Equal(t, "json", c.Persistence.Codec)
	assert.Equal(t, configPath, ConfigFilePath())
}

func TestDefaults(t *testing.T) {
	reset()
	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, game.DefaultWidth, c.Game.Width)
	assert.Equal(t, game.DefaultHeight, c.Game.Height)
	assert.Equal(t, game.DefaultUnitsPerTeam, c.Game.UnitsPerTeam)
	assert.Equal(t, game.DefaultJailTimer, c.Game.JailTimer)
	assert.Equal(t, "unit", c.Game.Sharing)
	assert.Equal(t, qlearning.DefaultParams(), c.Params())
	assert.Equal(t, "none", c.Persistence.Type)
	assert.Equal(t, 1, c.Persistence.ExportEvery)
	assert.Equal(t, 50061, c.Server.SnapshotServer.Port)
	assert.False(t, c.Server.SnapshotServer.Enabled)
	assert.Equal(t, 32, c.UI.Game.TileSize)
	assert.Equal(t, [3]int{200, 50, 50}, c.Colors.Team0)
	assert.Equal(t, 500, c.Report.Window)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("CTF_GAME_JAIL_TIMER", "9")
	t.Setenv("CTF_TRAINING_EPSILON", "0.4")
	t.Setenv("CTF_SERVER_LOG_LEVEL", "debug")

	reset()
	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, 9, c.Game.JailTimer)
	assert.Equal(t, 0.4, c.Training.Epsilon)
	assert.Equal(t, "debug", c.Server.LogLevel)
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad sharing", "game:\n  sharing: everyone\n"},
		{"alpha out of range", "training:\n  alpha: 1.5\n"},
		{"negative jail timer", "game:\n  jail_timer: -1\n"},
		{"tiny board", "game:\n  width: 2\n"},
		{"negative wall ratio", "game:\n  wall_ratio: -1\n"},
		{"unknown codec", "persistence:\n  codec: xml\n"},
		{"unknown seed transform", "persistence:\n  seed_transform: mirror\n"},
		{"seed transform without counts", "persistence:\n  seed_transform: project\n"},
		{"bad color", "colors:\n  wall: [0, 300, 0]\n"},
		{"bad port", "server:\n  snapshot_server:\n    port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			reset()
			err := Init(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLayoutSkipsDimensionCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
game:
  width: 0
  height: 0
  layout:
    - "#####"
    - "#...#"
    - "#...#"
    - "#...#"
    - "#####"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reset()
	require.NoError(t, Init(path))
	assert.Len(t, Get().Game.Layout, 5)
}

func TestSet(t *testing.T) {
	reset()
	require.NoError(t, Init(""))

	require.NoError(t, Set("training.epsilon", 0.25))
	assert.Equal(t, 0.25, Get().Training.Epsilon)
	assert.Equal(t, 0.25, GetFloat64("training.epsilon"))

	// Invalid values are rejected and the previous config kept.
	assert.Error(t, Set("training.epsilon", 3.0))
	assert.Equal(t, 0.25, Get().Training.Epsilon)
}

func TestGetters(t *testing.T) {
	reset()
	require.NoError(t, Init(""))

	assert.Equal(t, "info", GetString("server.log_level"))
	assert.Equal(t, 5, GetInt("game.jail_timer"))
	assert.True(t, GetBool("server.snapshot_server.enable_reflection"))
	assert.Equal(t, 0.9, GetFloat64("training.gamma"))
	assert.NotNil(t, GetViper())
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile("config.yaml", []byte("game:\n  jail_timer: 4\n"), 0644))
	require.NoError(t, os.WriteFile("config.eval.yaml", []byte("training:\n  epsilon: 0\n"), 0644))

	reset()
	require.NoError(t, Init(""))
	assert.Equal(t, 4, Get().Game.JailTimer)

	require.NoError(t, LoadEnvironmentConfig("eval"))
	c := Get()
	assert.Equal(t, 4, c.Game.JailTimer)
	assert.Equal(t, 0.0, c.Training.Epsilon)

	assert.NoError(t, LoadEnvironmentConfig(""))
}

func TestConversions(t *testing.T) {
	reset()
	require.NoError(t, Init(""))
	require.NoError(t, Set("game.sharing", "shared"))
	require.NoError(t, Set("game.guard_penalty", 0.5))
	require.NoError(t, Set("persistence.import_dir", "seed"))
	require.NoError(t, Set("persistence.export_every", 10))
	require.NoError(t, Set("game.wall_ratio", 6))

	c := Get()
	gc := c.GameConfig()
	assert.Equal(t, game.ShareAll, gc.Sharing)
	assert.Equal(t, 0.5, gc.GuardPenalty)
	assert.Equal(t, "seed", gc.ImportDir)
	assert.Equal(t, 10, gc.ExportEvery)
	assert.Equal(t, game.DefaultWidth, gc.Width)
	assert.Equal(t, 6, gc.WallRatio)
	assert.Nil(t, gc.SeedTransform)

	require.NoError(t, Set("persistence.seed_transform", "project:0,1"))
	gc = Get().GameConfig()
	require.NotNil(t, gc.SeedTransform)
	assert.Equal(t, qlearning.Key("(14,4)||(1,4)"), gc.SeedTransform("(14,4)|(14,2)|(1,4);(1,6)"))
	assert.Error(t, Set("persistence.seed_transform", "project:x,1"))
	c = Get()

	pc := c.PersistenceConfig()
	assert.Equal(t, qlearning.PersistenceTypeNone, pc.Type)
	assert.Equal(t, qlearning.CodecProto, pc.Codec)
	assert.Equal(t, "seed", pc.ImportDir)
}
