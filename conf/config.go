package conf

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	Path string
	Port int

	global *Config
)

func G() *Config {
	if global == nil {
		panic("configuration not loaded")
	}

	return global
}

func ReplaceGlobals(cfg *Config) {
	global = cfg
}

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.flarex/userdash"
	}

	Path = path
	Port = cli.Int("port")
	return nil
}

func LoadConfig() (*Config, error) {
	f, err := os.Open(Path + "/config.yaml")
	if err != nil {
		f, err = os.Open(Path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r, err := NewEnvExpandedReader(f)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, errors.New("empty configuration")
	}

	return cfg, nil
}

// NewEnvExpandedReader replaces ${VAR} and $VAR references with the
// values of the environment.
func NewEnvExpandedReader(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(raw))
	return bytes.NewBufferString(expanded), nil
}

type Config struct {
	Name        string      `yaml:"name"`
	Remote      Remote      `yaml:"remote"`
	Persistence Persistence `yaml:"persistence"`
	Notify      Notify      `yaml:"notify"`
}

type Remote struct {
	BaseURL string
	Timeout time.Duration
}

func (r *Remote) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.BaseURL = raw.BaseURL

	if raw.Timeout == "" {
		r.Timeout = 10 * time.Second
	} else {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}

		r.Timeout = timeout
	}

	return nil
}

type PersistenceDriver int

const (
	SQLite PersistenceDriver = iota
	BadgerDB
	Redis
	InMem
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "badger":
		return BadgerDB, nil
	case "redis":
		return Redis, nil
	case "inmem":
		return InMem, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case SQLite:
		return "sqlite"
	case BadgerDB:
		return "badger"
	case Redis:
		return "redis"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

const DefaultPersistenceKey = "root"

type Persistence struct {
	Driver   PersistenceDriver
	Name     string
	Key      string
	Host     string
	Port     int
	Password string
	DB       int
	InMem    bool
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver   string `yaml:"driver"`
		Name     string `yaml:"name"`
		Key      string `yaml:"key"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		InMem    bool   `yaml:"inmem"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver
	p.Name = raw.Name

	p.Key = raw.Key
	if raw.Key == "" {
		p.Key = DefaultPersistenceKey
	}

	p.Host = raw.Host
	if raw.Host == "" && driver != Redis {
		p.Host = Path
	}

	p.Port = raw.Port
	p.Password = raw.Password
	p.DB = raw.DB
	p.InMem = raw.InMem

	return nil
}

type Notify struct {
	Enabled bool   `yaml:"enabled"`
	Subject string `yaml:"subject"`
}
