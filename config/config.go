package config

import (
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	SeedDemo bool   `yaml:"seed_demo" json:"seed_demo"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host  string `yaml:"host" json:"host"`
	Port  int    `yaml:"port" json:"port"`
	Debug bool   `yaml:"debug" json:"debug"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
	Timeout    int    `yaml:"timeout" json:"timeout"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system" json:"system"`
	Web      WebConfig    `yaml:"web" json:"web"`
	Database DBConfig     `yaml:"database" json:"database"`
	Logger   LogConfig    `yaml:"logger" json:"logger"`
	Notify   NotifyConfig `yaml:"notify" json:"notify"`
}

var DefaultAppConfig = AppConfig{
	System: SysConfig{
		Appid:    "Catalog",
		Location: "Asia/Shanghai",
		Workdir:  "/var/catalog",
		SeedDemo: false,
		Debug:    true,
	},
	Web: WebConfig{
		Host:  "0.0.0.0",
		Port:  1880,
		Debug: true,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "catalog_v1",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/catalog/catalog.log",
	},
	Notify: NotifyConfig{
		WebhookURL: "",
		Timeout:    10,
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

// LoadConfig loads the yaml configuration file and applies environment
// variable overrides on top of it. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("CATALOG_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("CATALOG_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("CATALOG_SYSTEM_SEED_DEMO", &cfg.System.SeedDemo)
	setEnvBoolValue("CATALOG_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("CATALOG_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("CATALOG_WEB_PORT", &cfg.Web.Port)
	setEnvBoolValue("CATALOG_WEB_DEBUG", &cfg.Web.Debug)

	setEnvValue("CATALOG_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("CATALOG_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("CATALOG_DB_PORT", &cfg.Database.Port)
	setEnvValue("CATALOG_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("CATALOG_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("CATALOG_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvBoolValue("CATALOG_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("CATALOG_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvBoolValue("CATALOG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("CATALOG_LOGGER_FILENAME", func(v string) { cfg.Logger.Filename = v })

	setEnvValue("CATALOG_NOTIFY_WEBHOOK_URL", func(v string) { cfg.Notify.WebhookURL = v })
	setEnvIntValue("CATALOG_NOTIFY_TIMEOUT", &cfg.Notify.Timeout)

	return cfg
}
