package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the alert binaries.
// Every key can be overridden with an ALERT_ environment variable,
// e.g. ALERT_ALARM_SIREN_DURATION=6s.
type Config struct {
	// Transport selects the remote alert store: "grpc" or "nats".
	Transport string `yaml:"transport" mapstructure:"transport"`
	// ServerAddress is the gRPC alert store address.
	ServerAddress string `yaml:"server_addr" mapstructure:"server_addr"`
	// NATSURL is the NATS server URL used by the nats transport and the server mirror.
	NATSURL string `yaml:"nats_url,omitempty" mapstructure:"nats_url"`
	// StateFile is the path to the JSON file storing the current alert record.
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
	// HistoryFile is the SQLite database receiving the alert history log.
	HistoryFile string `yaml:"history_file,omitempty" mapstructure:"history_file"`
	// FeedAddress is the listen address of the monitor phase feed, empty disables it.
	FeedAddress string `yaml:"feed_addr,omitempty" mapstructure:"feed_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// LogLevel is the minimum level of emitted log messages.
	LogLevel string `yaml:"log_level,omitempty" mapstructure:"log_level"`
	// Reporter describes the resident using the alert button on this device.
	Reporter Reporter `yaml:"reporter" mapstructure:"reporter"`
	// Alarm tunes the audible phase cycle.
	Alarm Alarm `yaml:"alarm" mapstructure:"alarm"`
	// AutoResolve controls the automatic clearing of live emergencies.
	AutoResolve AutoResolve `yaml:"auto_resolve" mapstructure:"auto_resolve"`
	// Audio configures the external audio and speech programs.
	Audio Audio `yaml:"audio" mapstructure:"audio"`
	// Schedule holds the cron expressions of scheduled reminders.
	Schedule Schedule `yaml:"schedule" mapstructure:"schedule"`
	// Notify configures the notification dispatch for new emergencies.
	Notify Notify `yaml:"notify" mapstructure:"notify"`
}

// Reporter describes the resident producing emergencies from this device.
type Reporter struct {
	// Name defaults to the system user name.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// Area is the administrative subdivision label, e.g. "RT 03".
	Area string `yaml:"area,omitempty" mapstructure:"area"`
	// Latitude of a fixed device position; zero with Longitude means unknown.
	Latitude float64 `yaml:"latitude,omitempty" mapstructure:"latitude"`
	// Longitude of a fixed device position.
	Longitude float64 `yaml:"longitude,omitempty" mapstructure:"longitude"`
	// AccuracyMeters of the fixed position.
	AccuracyMeters float64 `yaml:"accuracy_meters,omitempty" mapstructure:"accuracy_meters"`
}

// Alarm tunes the audible phase cycle.
type Alarm struct {
	// SirenDuration is how long the siren sounds before each narration.
	SirenDuration time.Duration `yaml:"siren_duration" mapstructure:"siren_duration"`
	// MuteVoice keeps an emergency in a siren-only loop.
	MuteVoice bool `yaml:"mute_voice" mapstructure:"mute_voice"`
	// SettleDelay separates a finished narration from the next siren.
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	// ChimeDelay separates an intro chime from the narration that follows.
	ChimeDelay time.Duration `yaml:"chime_delay" mapstructure:"chime_delay"`
	// ClosingDelay is the length of the closing chime before the cycle ends.
	ClosingDelay time.Duration `yaml:"closing_delay" mapstructure:"closing_delay"`
	// ResumeInterval is the period of forced speech resumes during a cycle.
	ResumeInterval time.Duration `yaml:"resume_interval" mapstructure:"resume_interval"`
	// Locale selects the narration voice.
	Locale string `yaml:"locale" mapstructure:"locale"`
}

// AutoResolve controls the automatic clearing of live emergencies.
type AutoResolve struct {
	// Enabled turns automatic resolution on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxDuration is measured from the record trigger time.
	MaxDuration time.Duration `yaml:"max_duration" mapstructure:"max_duration"`
}

// Audio configures the external audio and speech programs.
type Audio struct {
	// Player is the command line receiving raw PCM on stdin.
	Player string `yaml:"player,omitempty" mapstructure:"player"`
	// Speech is the text-to-speech program.
	Speech string `yaml:"speech,omitempty" mapstructure:"speech"`
	// Inhibit holds a platform sleep inhibitor while a cycle is active.
	Inhibit bool `yaml:"inhibit" mapstructure:"inhibit"`
}

// Schedule holds the cron expressions (with seconds) of scheduled reminders.
type Schedule struct {
	// Morning triggers SCHEDULED_MORNING tests, empty disables it.
	Morning string `yaml:"morning,omitempty" mapstructure:"morning"`
	// Evening triggers SCHEDULED_EVENING tests, empty disables it.
	Evening string `yaml:"evening,omitempty" mapstructure:"evening"`
}

// Notify configures the notification dispatch for new emergencies.
type Notify struct {
	// AppriseURL is the Apprise API notify endpoint, empty disables notifications.
	AppriseURL string `yaml:"apprise_url,omitempty" mapstructure:"apprise_url"`
	// Tags selects Apprise targets.
	Tags string `yaml:"tags,omitempty" mapstructure:"tags"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alert-broadcast-settings.yaml"

	// DefaultStateFilename is the default filename for the alert record JSON.
	DefaultStateFilename = "alert-broadcast-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// TransportGRPC selects the gRPC alert store.
	TransportGRPC = "grpc"
	// TransportNATS selects the NATS JetStream alert store.
	TransportNATS = "nats"

	// DefaultSirenDuration is the siren phase length before narration.
	DefaultSirenDuration = 4 * time.Second
	// DefaultSettleDelay is the pause between narration and siren.
	DefaultSettleDelay = 500 * time.Millisecond
	// DefaultChimeDelay is the pause between an intro chime and narration.
	DefaultChimeDelay = 2500 * time.Millisecond
	// DefaultClosingDelay is the closing chime length.
	DefaultClosingDelay = 1200 * time.Millisecond
	// DefaultResumeInterval is the period of forced speech resumes.
	DefaultResumeInterval = 2 * time.Second
	// DefaultLocale is the narration locale.
	DefaultLocale = "id-ID"
	// DefaultAutoResolveDuration clears an emergency after five minutes.
	DefaultAutoResolveDuration = 5 * time.Minute
	// DefaultPlayer plays raw mono 16-bit PCM at 44.1 kHz.
	DefaultPlayer = "aplay -q -t raw -f S16_LE -r 44100 -c 1"
	// DefaultSpeech is the text-to-speech program.
	DefaultSpeech = "espeak-ng"

	// envPrefix prefixes environment overrides.
	envPrefix = "ALERT"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errNATSURLRequired is returned when the nats transport has no URL.
	errNATSURLRequired = errors.New("nats url must be provided")
	// errUnknownTransport is returned for an unsupported transport name.
	errUnknownTransport = errors.New("unknown transport")
	// errNegativeDuration is returned for durations below zero.
	errNegativeDuration = errors.New("duration must not be negative")
)

// Load reads configuration from the provided path, applies ALERT_ environment
// overrides and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	v := viper.New()
	v.SetConfigFile(filepath.Clean(path))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting
// and fills in defaults for unset values.
func Validate(settings *Config) error {
	if settings.Transport == "" {
		settings.Transport = TransportGRPC
	}

	switch settings.Transport {
	case TransportGRPC:
		if err := validateServerAddress(settings.ServerAddress); err != nil {
			return err
		}
	case TransportNATS:
		if settings.NATSURL == "" {
			return errNATSURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownTransport, settings.Transport)
	}

	if settings.NATSURL != "" {
		if _, err := url.Parse(settings.NATSURL); err != nil {
			return fmt.Errorf("invalid nats url: %w", err)
		}
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	// Set default state file if not specified
	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if err := validateAlarm(&settings.Alarm); err != nil {
		return err
	}

	if settings.AutoResolve.MaxDuration < 0 {
		return fmt.Errorf("auto_resolve.max_duration: %w", errNegativeDuration)
	}

	if settings.AutoResolve.MaxDuration == 0 {
		settings.AutoResolve.MaxDuration = DefaultAutoResolveDuration
	}

	if settings.Audio.Player == "" {
		settings.Audio.Player = DefaultPlayer
	}

	if settings.Audio.Speech == "" {
		settings.Audio.Speech = DefaultSpeech
	}

	if settings.Notify.AppriseURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.Notify.AppriseURL); err != nil {
		return fmt.Errorf("invalid apprise url: %w", err)
	}

	return nil
}

// validateServerAddress checks that the gRPC address is a resolvable TCP socket.
func validateServerAddress(address string) error {
	if address == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	return nil
}

// validateAlarm rejects negative durations and applies cycle defaults.
func validateAlarm(alarm *Alarm) error {
	durations := []struct {
		name     string
		value    *time.Duration
		fallback time.Duration
	}{
		{"alarm.siren_duration", &alarm.SirenDuration, DefaultSirenDuration},
		{"alarm.settle_delay", &alarm.SettleDelay, DefaultSettleDelay},
		{"alarm.chime_delay", &alarm.ChimeDelay, DefaultChimeDelay},
		{"alarm.closing_delay", &alarm.ClosingDelay, DefaultClosingDelay},
		{"alarm.resume_interval", &alarm.ResumeInterval, DefaultResumeInterval},
	}

	for _, d := range durations {
		if *d.value < 0 {
			return fmt.Errorf("%s: %w", d.name, errNegativeDuration)
		}

		if *d.value == 0 {
			*d.value = d.fallback
		}
	}

	if alarm.Locale == "" {
		alarm.Locale = DefaultLocale
	}

	return nil
}

// setDefaults registers every key so that environment overrides apply even when
// the key is missing from the file.
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"transport":                 TransportGRPC,
		"server_addr":               "",
		"nats_url":                  "",
		"state_file":                DefaultStateFilename,
		"history_file":              "",
		"feed_addr":                 "",
		"timeout":                   DefaultTimeout,
		"log_level":                 "info",
		"reporter.name":             "",
		"reporter.area":             "",
		"reporter.latitude":         0.0,
		"reporter.longitude":        0.0,
		"reporter.accuracy_meters":  0.0,
		"alarm.siren_duration":      DefaultSirenDuration,
		"alarm.mute_voice":          false,
		"alarm.settle_delay":        DefaultSettleDelay,
		"alarm.chime_delay":         DefaultChimeDelay,
		"alarm.closing_delay":       DefaultClosingDelay,
		"alarm.resume_interval":     DefaultResumeInterval,
		"alarm.locale":              DefaultLocale,
		"auto_resolve.enabled":      false,
		"auto_resolve.max_duration": DefaultAutoResolveDuration,
		"audio.player":              DefaultPlayer,
		"audio.speech":              DefaultSpeech,
		"audio.inhibit":             true,
		"schedule.morning":          "",
		"schedule.evening":          "",
		"notify.apprise_url":        "",
		"notify.tags":               "",
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
