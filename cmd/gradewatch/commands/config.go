package commands

import (
	"errors"
	"fmt"
	"gradewatch/lib/configutil"
	"gradewatch/lib/notify"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingCredentials = errors.New("student id and password are required, set STD_ID and PASSWORD")

type PortalConfig struct {
	LoginUrl   string `json:"login_url"`
	LogoutUrl  string `json:"logout_url"`
	ServiceUrl string `json:"service_url"`
	DataUrl    string `json:"data_url"`
	UserAgent  string `json:"user_agent"`
	// per request
	TimeoutSeconds   int  `json:"timeout_seconds"`
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

func (c PortalConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return time.Second * 30
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type PageConfig struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

type WatchConfig struct {
	Schedule string `json:"schedule"`
	// IANA zone the schedule is interpreted in, empty is the system zone
	Timezone string `json:"timezone"`
}

type Config struct {
	StudentId string `json:"student_id"`
	Password  string `json:"password"`

	Token string `json:"token"`
	// index into the channel list: 0 pushdeer, 1 pushplus, 2 email. nil
	// means notifications are off
	PushChannel *int `json:"push_channel"`
	// replaces the URL template of the pushdeer or pushplus channel, for
	// self-hosted relays
	PushTemplate    string              `json:"push_template"`
	Email           notify.EmailOptions `json:"email"`
	ShowDataInTitle bool                `json:"show_data_in_title"`
	TitleFields     []string            `json:"title_fields"`

	SnapshotPath string       `json:"snapshot_path"`
	Portal       PortalConfig `json:"portal"`
	Page         PageConfig   `json:"page"`
	Watch        WatchConfig  `json:"watch"`
}

func DefaultConfig() Config {
	return Config{
		SnapshotPath: "record.json",
		Portal: PortalConfig{
			LoginUrl:       "https://uis.fudan.edu.cn/authserver/login",
			LogoutUrl:      "https://uis.fudan.edu.cn/authserver/logout?service=/authserver/login",
			ServiceUrl:     "https://my.fudan.edu.cn/list/bks_xx_cj",
			DataUrl:        "https://my.fudan.edu.cn/data_tables/bks_xx_cj.json",
			TimeoutSeconds: 30,
		},
		Page: PageConfig{
			Start:  0,
			Length: 10,
		},
		Watch: WatchConfig{
			Schedule: "*/30 * * * *",
		},
	}
}

// LoadConfig layers the config file over the defaults, then loads the dotenv
// file and lets the environment override credentials and push settings.
func LoadConfig(path, dotenv string) (Config, error) {
	cfg, err := configutil.ReadOptional(path, DefaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if dotenv != "" {
		if err := configutil.LoadDotenv(dotenv); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("STD_ID"); ok {
		c.StudentId = value
	}
	if value, ok := os.LookupEnv("PASSWORD"); ok {
		c.Password = value
	}
	if value, ok := os.LookupEnv("TOKEN"); ok {
		c.Token = value
	}
	if value, ok := os.LookupEnv("PUSH_CHANNEL"); ok && value != "" {
		channel, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			slog.Warn("ignoring PUSH_CHANNEL, it is not a number", "value", value)
		} else {
			c.PushChannel = &channel
		}
	}
	if value, ok := os.LookupEnv("SHOW_DATA_IN_TITLE"); ok && value != "" {
		show, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			slog.Warn("ignoring SHOW_DATA_IN_TITLE, expected TRUE or FALSE", "value", value)
		} else {
			c.ShowDataInTitle = show
		}
	}
}

func (c Config) Validate() error {
	if c.StudentId == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	if c.SnapshotPath == "" {
		return errors.New("snapshot_path must not be empty")
	}
	return nil
}
