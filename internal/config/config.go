package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// Config holds all configuration for the application
type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	Training    TrainingConfig    `mapstructure:"training"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Server      ServerConfig      `mapstructure:"server"`
	UI          UIConfig          `mapstructure:"ui"`
	Colors      ColorsConfig      `mapstructure:"colors"`
	Report      ReportConfig      `mapstructure:"report"`
	Development DevelopmentConfig `mapstructure:"development"`
}

// GameConfig holds board and rule settings
type GameConfig struct {
	Width        int      `mapstructure:"width"`
	Height       int      `mapstructure:"height"`
	Layout       []string `mapstructure:"layout"`
	WallRatio    int      `mapstructure:"wall_ratio"`
	MapSeed      uint64   `mapstructure:"map_seed"`
	UnitsPerTeam int      `mapstructure:"units_per_team"`
	JailTimer    int      `mapstructure:"jail_timer"`
	GuardPenalty float64  `mapstructure:"guard_penalty"`
	Sharing      string   `mapstructure:"sharing"`
}

// TrainingConfig holds learning loop settings
type TrainingConfig struct {
	Alpha       float64 `mapstructure:"alpha"`
	Gamma       float64 `mapstructure:"gamma"`
	Epsilon     float64 `mapstructure:"epsilon"`
	Steps       int     `mapstructure:"steps"`
	Seed        uint64  `mapstructure:"seed"`
	RenderEvery int     `mapstructure:"render_every"`
	LogEvery    int     `mapstructure:"log_every"`
}

// PersistenceConfig holds value-table import/export settings
type PersistenceConfig struct {
	Type          string `mapstructure:"type"`
	Codec         string `mapstructure:"codec"`
	Dir           string `mapstructure:"dir"`
	ImportDir     string `mapstructure:"import_dir"`
	ExportEvery   int    `mapstructure:"export_every"`
	// SeedTransform maps live keys onto the imported tables' keys, e.g.
	// "project:1,1". See game.ParseSeedTransform.
	SeedTransform string `mapstructure:"seed_transform"`
}

// ServerConfig holds logging and snapshot server configuration
type ServerConfig struct {
	LogLevel       string               `mapstructure:"log_level"`
	LogFormat      string               `mapstructure:"log_format"`
	SnapshotServer SnapshotServerConfig `mapstructure:"snapshot_server"`
}

// SnapshotServerConfig holds gRPC snapshot server configuration
type SnapshotServerConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
}

// UIConfig holds viewer window configuration
type UIConfig struct {
	Window WindowConfig `mapstructure:"window"`
	Game   UIGameConfig `mapstructure:"game"`
}

// WindowConfig holds window settings
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// UIGameConfig holds viewer pacing settings
type UIGameConfig struct {
	TileSize     int `mapstructure:"tile_size"`
	TurnInterval int `mapstructure:"turn_interval"`
}

// ColorsConfig holds all color configurations
type ColorsConfig struct {
	Team0      [3]int `mapstructure:"team_0"`
	Team1      [3]int `mapstructure:"team_1"`
	Wall       [3]int `mapstructure:"wall"`
	Floor      [3]int `mapstructure:"floor"`
	Background [3]int `mapstructure:"background"`
	GridLines  [3]int `mapstructure:"grid_lines"`
}

// ReportConfig holds training chart settings
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Window  int    `mapstructure:"window"`
}

// DevelopmentConfig holds development/debug settings
type DevelopmentConfig struct {
	VerboseLogging bool `mapstructure:"verbose_logging"`
	LogEvents      bool `mapstructure:"log_events"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
	mu  sync.RWMutex
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Game defaults
	v.SetDefault("game.width", game.DefaultWidth)
	v.SetDefault("game.height", game.DefaultHeight)
	v.SetDefault("game.layout", []string{})
	v.SetDefault("game.wall_ratio", 0)
	v.SetDefault("game.map_seed", 0)
	v.SetDefault("game.units_per_team", game.DefaultUnitsPerTeam)
	v.SetDefault("game.jail_timer", game.DefaultJailTimer)
	v.SetDefault("game.guard_penalty", 0.0)
	v.SetDefault("game.sharing", string(game.ShareNone))

	// Training defaults
	params := qlearning.DefaultParams()
	v.SetDefault("training.alpha", params.Alpha)
	v.SetDefault("training.gamma", params.Gamma)
	v.SetDefault("training.epsilon", params.Epsilon)
	v.SetDefault("training.steps", 0)
	v.SetDefault("training.seed", 0)
	v.SetDefault("training.render_every", 0)
	v.SetDefault("training.log_every", 1000)

	// Persistence defaults
	persistence := qlearning.DefaultPersistenceConfig()
	v.SetDefault("persistence.type", string(persistence.Type))
	v.SetDefault("persistence.codec", string(persistence.Codec))
	v.SetDefault("persistence.dir", persistence.Dir)
	v.SetDefault("persistence.import_dir", "")
	v.SetDefault("persistence.export_every", persistence.ExportEvery)
	v.SetDefault("persistence.seed_transform", game.SeedTransformNone)

	// Server defaults
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")
	v.SetDefault("server.snapshot_server.enabled", false)
	v.SetDefault("server.snapshot_server.host", "0.0.0.0")
	v.SetDefault("server.snapshot_server.port", 50061)
	v.SetDefault("server.snapshot_server.enable_reflection", true)
	v.SetDefault("server.snapshot_server.graceful_shutdown_delay", 5)

	// UI defaults
	v.SetDefault("ui.window.width", 800)
	v.SetDefault("ui.window.height", 600)
	v.SetDefault("ui.window.title", "Capture the Flag RL")
	v.SetDefault("ui.game.tile_size", 32)
	v.SetDefault("ui.game.turn_interval", 10)

	// Color defaults
	v.SetDefault("colors.team_0", []int{200, 50, 50})
	v.SetDefault("colors.team_1", []int{50, 100, 200})
	v.SetDefault("colors.wall", []int{80, 80, 80})
	v.SetDefault("colors.floor", []int{30, 30, 30})
	v.SetDefault("colors.background", []int{0, 0, 0})
	v.SetDefault("colors.grid_lines", []int{50, 50, 50})

	// Report defaults
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.path", "training_report.html")
	v.SetDefault("report.window", 500)

	// Development defaults
	v.SetDefault("development.verbose_logging", false)
	v.SetDefault("development.log_events", false)
}

// Init initializes the configuration
func Init(configPath string) error {
	nv := viper.New()

	// Set defaults before loading any config
	setViperDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(".")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/ctf-rl")
	}

	nv.SetEnvPrefix("CTF")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil {
		// A missing file means defaults, whether searched for or named.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mu.Lock()
	v, cfg = nv, c
	mu.Unlock()
	return nil
}

// Get returns the global config instance
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
		mu.RLock()
		c = cfg
		mu.RUnlock()
	}
	return c
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	return reload()
}

// Set allows runtime config updates. An update that fails validation is
// reported and the previous config stays in effect.
func Set(key string, value interface{}) error {
	v.Set(key, value)
	return reload()
}

// reload re-unmarshals viper into a fresh struct and swaps it in if valid.
func reload() error {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
	return nil
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return v.GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. onChange receives
// the new configuration, or the error that kept the old one in place.
func WatchConfig(onChange func(*Config, error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		err := reload()
		if onChange != nil {
			onChange(Get(), err)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	// Validate game rules
	if len(c.Game.Layout) == 0 && (c.Game.Width < 3 || c.Game.Height < 3) {
		return fmt.Errorf("game.width and game.height must be at least 3")
	}
	if c.Game.WallRatio < 0 {
		return fmt.Errorf("game.wall_ratio must be non-negative")
	}
	if c.Game.UnitsPerTeam <= 0 {
		return fmt.Errorf("game.units_per_team must be positive")
	}
	if c.Game.JailTimer < 0 {
		return fmt.Errorf("game.jail_timer must be non-negative")
	}
	if c.Game.GuardPenalty < 0 {
		return fmt.Errorf("game.guard_penalty must be non-negative")
	}
	switch game.SharingMode(c.Game.Sharing) {
	case game.ShareNone, game.ShareTeam, game.ShareAll:
	default:
		return fmt.Errorf("game.sharing must be one of unit, team, shared")
	}

	// Validate training parameters
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if c.Training.Steps < 0 {
		return fmt.Errorf("training.steps must be non-negative")
	}
	if c.Training.RenderEvery < 0 || c.Training.LogEvery < 0 {
		return fmt.Errorf("training.render_every and training.log_every must be non-negative")
	}

	// Validate persistence
	switch qlearning.PersistenceType(c.Persistence.Type) {
	case qlearning.PersistenceTypeNone, qlearning.PersistenceTypeFile:
	default:
		return fmt.Errorf("persistence.type must be none or file")
	}
	switch qlearning.Codec(c.Persistence.Codec) {
	case qlearning.CodecProto, qlearning.CodecJSON:
	default:
		return fmt.Errorf("persistence.codec must be proto or json")
	}
	if c.Persistence.ExportEvery < 0 {
		return fmt.Errorf("persistence.export_every must be non-negative")
	}
	if _, err := game.ParseSeedTransform(c.Persistence.SeedTransform); err != nil {
		return fmt.Errorf("persistence.seed_transform: %w", err)
	}

	// Validate server configuration
	if c.Server.SnapshotServer.Port <= 0 || c.Server.SnapshotServer.Port > 65535 {
		return fmt.Errorf("server.snapshot_server.port must be between 1 and 65535")
	}
	if c.Server.SnapshotServer.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.snapshot_server.graceful_shutdown_delay must be non-negative")
	}

	// Validate UI configuration
	if c.UI.Window.Width <= 0 || c.UI.Window.Height <= 0 {
		return fmt.Errorf("ui.window dimensions must be positive")
	}
	if c.UI.Game.TileSize <= 0 {
		return fmt.Errorf("ui.game.tile_size must be positive")
	}
	if c.UI.Game.TurnInterval <= 0 {
		return fmt.Errorf("ui.game.turn_interval must be positive")
	}

	// Validate color values
	validateRGB := func(rgb [3]int, name string) error {
		for i, v := range rgb {
			if v < 0 || v > 255 {
				return fmt.Errorf("%s[%d] must be between 0 and 255", name, i)
			}
		}
		return nil
	}
	for name, rgb := range map[string][3]int{
		"colors.team_0":     c.Colors.Team0,
		"colors.team_1":     c.Colors.Team1,
		"colors.wall":       c.Colors.Wall,
		"colors.floor":      c.Colors.Floor,
		"colors.background": c.Colors.Background,
		"colors.grid_lines": c.Colors.GridLines,
	} {
		if err := validateRGB(rgb, name); err != nil {
			return err
		}
	}

	if c.Report.Enabled && c.Report.Path == "" {
		return fmt.Errorf("report.path is required when the report is enabled")
	}
	if c.Report.Window <= 0 {
		return fmt.Errorf("report.window must be positive")
	}

	return nil
}

// Params returns the learning hyperparameters.
func (c *Config) Params() qlearning.Params {
	return qlearning.Params{
		Alpha:   c.Training.Alpha,
		Gamma:   c.Training.Gamma,
		Epsilon: c.Training.Epsilon,
	}
}

// PersistenceConfig converts the persistence section for qlearning.
func (c *Config) PersistenceConfig() qlearning.PersistenceConfig {
	return qlearning.PersistenceConfig{
		Type:        qlearning.PersistenceType(c.Persistence.Type),
		Codec:       qlearning.Codec(c.Persistence.Codec),
		Dir:         c.Persistence.Dir,
		ImportDir:   c.Persistence.ImportDir,
		ExportEvery: c.Persistence.ExportEvery,
	}
}

// GameConfig converts the game section into construction parameters. The
// caller fills in the store, logger and event publisher. The configuration
// is assumed to be valid.
func (c *Config) GameConfig() game.GameConfig {
	gc := game.DefaultGameConfig()
	gc.Width = c.Game.Width
	gc.Height = c.Game.Height
	gc.Layout = c.Game.Layout
	gc.WallRatio = c.Game.WallRatio
	gc.MapSeed = c.Game.MapSeed
	gc.UnitsPerTeam = c.Game.UnitsPerTeam
	gc.JailTimer = c.Game.JailTimer
	gc.GuardPenalty = c.Game.GuardPenalty
	gc.Sharing = game.SharingMode(c.Game.Sharing)
	gc.ImportDir = c.Persistence.ImportDir
	gc.ExportEvery = c.Persistence.ExportEvery
	gc.SeedTransform, _ = game.ParseSeedTransform(c.Persistence.SeedTransform)
	return gc
}
