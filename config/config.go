package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when Load gets no path.
const DefaultFile = "bookshop.yaml"

// EnvPrefix namespaces the environment variables, e.g. BOOKSHOP_STORE_KIND.
const EnvPrefix = "BOOKSHOP"

// Config groups the application settings read through viper.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Store    StoreConfig
	Sales    SalesConfig
	Receipts ReceiptsConfig
	Company  CompanyConfig
}

type AppConfig struct {
	Env string // development, production
}

type LogConfig struct {
	Level string
	File  string // "-" writes to stderr
}

// StoreConfig selects the persistence adapter.
type StoreConfig struct {
	Kind       string // file, sqlite, memory
	Dir        string
	BooksFile  string
	SalesFile  string
	UsersFile  string
	SQLitePath string
}

type SalesConfig struct {
	IDScheme string // sequential, uuid
}

// ReceiptsConfig enables PDF receipts after each sale when Dir is set.
type ReceiptsConfig struct {
	Dir string
}

type CompanyConfig struct {
	Name        string
	Established string
	Address     string
	Phone       string
	Email       string
	Website     string
	About       string
	Mission     string
}

// Load reads the optional config file, BOOKSHOP_* environment variables and
// any flags bound in flags, in increasing order of precedence. An empty path
// reads ./bookshop.yaml when it exists and nothing else; a missing file is
// an error only when path names one explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("app.env"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Store: StoreConfig{
			Kind:       strings.ToLower(v.GetString("store.kind")),
			Dir:        v.GetString("store.dir"),
			BooksFile:  v.GetString("store.books_file"),
			SalesFile:  v.GetString("store.sales_file"),
			UsersFile:  v.GetString("store.users_file"),
			SQLitePath: v.GetString("store.sqlite_path"),
		},
		Sales: SalesConfig{
			IDScheme: strings.ToLower(v.GetString("sales.id_scheme")),
		},
		Receipts: ReceiptsConfig{
			Dir: v.GetString("receipts.dir"),
		},
		Company: CompanyConfig{
			Name:        v.GetString("company.name"),
			Established: v.GetString("company.established"),
			Address:     v.GetString("company.address"),
			Phone:       v.GetString("company.phone"),
			Email:       v.GetString("company.email"),
			Website:     v.GetString("company.website"),
			About:       v.GetString("company.about"),
			Mission:     v.GetString("company.mission"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagKeys maps config keys to the persistent flag names of the CLI.
var flagKeys = map[string]string{
	"store.kind":      "store",
	"store.dir":       "data-dir",
	"log.level":       "log-level",
	"log.file":        "log-file",
	"sales.id_scheme": "sale-ids",
	"receipts.dir":    "receipts-dir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "bookshop.log")
	v.SetDefault("store.kind", "file")
	v.SetDefault("store.dir", ".")
	v.SetDefault("store.books_file", "books.txt")
	v.SetDefault("store.sales_file", "sales.txt")
	v.SetDefault("store.users_file", "users.txt")
	v.SetDefault("store.sqlite_path", "bookshop.db")
	v.SetDefault("sales.id_scheme", "sequential")
	v.SetDefault("receipts.dir", "")

	v.SetDefault("company.name", "GENIUS BOOKS")
	v.SetDefault("company.established", "2020")
	v.SetDefault("company.address", "123 Main Street, City Center")
	v.SetDefault("company.phone", "+1 (555) 123-4567")
	v.SetDefault("company.email", "info@geniusbooks.com")
	v.SetDefault("company.website", "www.geniusbooks.com")
	v.SetDefault("company.about", "GENIUS BOOKS is a leading bookshop in the city, providing a wide variety of books "+
		"across all genres. We pride ourselves on excellent customer service and competitive prices.")
	v.SetDefault("company.mission", "To promote reading culture and provide easy access to quality books for everyone in our community.")
}

func (c *Config) validate() error {
	switch c.Store.Kind {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("config: store.kind %q: want file, sqlite or memory", c.Store.Kind)
	}
	switch c.Sales.IDScheme {
	case "sequential", "uuid":
	default:
		return fmt.Errorf("config: sales.id_scheme %q: want sequential or uuid", c.Sales.IDScheme)
	}
	return nil
}

// IsDevelopment reports whether human-readable console logs are wanted.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}
