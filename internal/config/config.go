package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"planner/internal/planner"
	"planner/internal/storage"
	"planner/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultStoreName      = "tasks.json"
	DefaultSQLiteName     = "tasks.db"
	appDirName            = "planner"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Done           string `toml:"done"`
	Delete         string `toml:"delete"`
	Edit           string `toml:"edit"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	NextField      string `toml:"next_field"`
	PrevField      string `toml:"prev_field"`
	FilterToday    string `toml:"filter_today"`
	FilterWeek     string `toml:"filter_week"`
	FilterAll      string `toml:"filter_all"`
	FilterDone     string `toml:"filter_done"`
	CycleFilter    string `toml:"cycle_filter"`
	CycleCategory  string `toml:"cycle_category"`
	ClearCategory  string `toml:"clear_category"`
	CategorySchool string `toml:"category_school"`
	CategoryHome   string `toml:"category_home"`
	CategoryActs   string `toml:"category_activities"`
}

type Notifier string

const (
	NotifierAuto    Notifier = "auto"
	NotifierDesktop Notifier = "desktop"
	NotifierCommand Notifier = "command"
	NotifierLog     Notifier = "log"
	NotifierNone    Notifier = "none"
)

// ValidNotifiers returns all notifier settings.
func ValidNotifiers() []Notifier {
	return []Notifier{NotifierAuto, NotifierDesktop, NotifierCommand, NotifierLog, NotifierNone}
}

type Config struct {
	StorePath        string          `toml:"store_path"`
	Backend          storage.Backend `toml:"backend"`
	Categories       bool            `toml:"categories"`
	DefaultFilter    string          `toml:"default_filter"`
	ReminderInterval string          `toml:"reminder_interval"`
	Notifier         Notifier        `toml:"notifier"`
	NotifyCommand    []string        `toml:"notify_command,omitempty"`
	LogPath          string          `toml:"log_path,omitempty"`
	Keys             Keymap          `toml:"keys"`
}

// ResolveConfigPath returns $PLANNER_CONFIG when set, otherwise config.toml
// under the user config directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("PLANNER_CONFIG")); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. A relative store path or log path is taken
// relative to the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.resolve(path)
}

func (c Config) resolve(path string) (Config, error) {
	if c.Backend == "" {
		c.Backend = storage.BackendJSON
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStoreName
		if c.Backend == storage.BackendSQLite {
			c.StorePath = DefaultSQLiteName
		}
	}
	dir := filepath.Dir(path)
	if !filepath.IsAbs(c.StorePath) && !strings.HasPrefix(c.StorePath, "file:") {
		c.StorePath = filepath.Join(dir, c.StorePath)
	}
	if c.LogPath != "" && !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	if c.Notifier == "" {
		c.Notifier = NotifierAuto
	}
	return c, c.Validate()
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	var errs []error
	valid := false
	for _, b := range storage.ValidBackends() {
		valid = valid || c.Backend == b
	}
	if !valid {
		errs = append(errs, fmt.Errorf("backend %q is not one of %s", c.Backend, task.FormatValidValues(storage.ValidBackends())))
	}
	if _, err := c.Filter(); err != nil {
		errs = append(errs, fmt.Errorf("default_filter: %w", err))
	}
	if _, err := c.Interval(); err != nil {
		errs = append(errs, fmt.Errorf("reminder_interval: %w", err))
	}
	valid = false
	for _, n := range ValidNotifiers() {
		valid = valid || c.Notifier == n
	}
	if !valid {
		errs = append(errs, fmt.Errorf("notifier %q is not one of %s", c.Notifier, task.FormatValidValues(ValidNotifiers())))
	}
	if c.Notifier == NotifierCommand && len(c.NotifyCommand) == 0 {
		errs = append(errs, errors.New("notifier \"command\" needs notify_command"))
	}
	return errors.Join(errs...)
}

// Filter returns the time filter the UI starts on.
func (c Config) Filter() (planner.TimeFilter, error) {
	if strings.TrimSpace(c.DefaultFilter) == "" {
		return planner.FilterToday, nil
	}
	return planner.ParseTimeFilter(c.DefaultFilter)
}

// Interval returns the reminder sweep period.
func (c Config) Interval() (time.Duration, error) {
	if strings.TrimSpace(c.ReminderInterval) == "" {
		return planner.DefaultSweepInterval, nil
	}
	d, err := time.ParseDuration(c.ReminderInterval)
	if err != nil {
		return 0, err
	}
	if d < time.Second {
		return 0, fmt.Errorf("%s is shorter than 1s", d)
	}
	return d, nil
}

// StoreOptions returns the load-time defaults matching the category setting.
func (c Config) StoreOptions() storage.Options {
	if !c.Categories {
		return storage.Options{}
	}
	return storage.Options{DefaultCategory: task.DefaultCategory}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Backend:          storage.BackendJSON,
		Categories:       true,
		DefaultFilter:    "today",
		ReminderInterval: planner.DefaultSweepInterval.String(),
		Notifier:         NotifierAuto,
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Done:           " ",
			Delete:         "d",
			Edit:           "e",
			Confirm:        "enter",
			Cancel:         "esc",
			NextField:      "tab",
			PrevField:      "shift+tab",
			FilterToday:    "1",
			FilterWeek:     "2",
			FilterAll:      "3",
			FilterDone:     "4",
			CycleFilter:    "f",
			CycleCategory:  "c",
			ClearCategory:  "C",
			CategorySchool: "s",
			CategoryHome:   "h",
			CategoryActs:   "t",
		},
	}
}
