// Package config loads the Wifi.ini configuration.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/divawifi/wifi/internal/constants"
)

// Config is the typed view of Wifi.ini.
type Config struct {
	Enabled    bool
	ServerPort int

	GridName   string
	WebAddress string
	LoginURL   string

	Admin AdminConfig

	AccountConfirmationRequired bool
	Password                    PasswordPolicy

	Email EmailConfig

	// AvatarAccounts maps an avatar type (lower case) to the "First Last"
	// name of the account whose inventory seeds new avatars of that type.
	AvatarAccounts map[string]string

	Hyperlinks HyperlinkConfig

	Addons     []AddonDecl
	ServePaths []ServePath

	Session SessionConfig

	TemplateDir string
	TOSFile     string

	RemoteAdmin RemoteAdminConfig
	Console     ConsoleConfig

	NatsURL        string
	RecoverySecret string
	// ScriptEventToken, when set, must accompany script event publishes.
	ScriptEventToken string

	// LoginRateLimit is the number of login/recovery attempts allowed per
	// client IP per minute. Zero disables limiting.
	LoginRateLimit int

	Database DatabaseConfig
}

// AdminConfig describes the bootstrap administrator account.
type AdminConfig struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	UserLevel int
}

// HyperlinkConfig holds the privilege thresholds for region hyperlinks.
type HyperlinkConfig struct {
	UserLevel int
	ShowAll   bool
}

// AddonDecl is one WifiAddon_<Name> = path,label,level declaration.
type AddonDecl struct {
	Name  string
	Path  string
	Label string
	Level int
}

// ServePath is one ServePath_<Name> = urlpath,directory declaration.
type ServePath struct {
	Name    string
	URLPath string
	Dir     string
}

// SessionConfig selects the session store and timeout.
type SessionConfig struct {
	Timeout      time.Duration
	Store        string // "memory" or "redis"
	RedisAddress string
}

// RemoteAdminConfig points at the simulator's XML-RPC remote admin endpoint.
type RemoteAdminConfig struct {
	URL      string
	Password string
}

// ConsoleConfig points at the simulator's REST console.
type ConsoleConfig struct {
	URL  string
	User string
	Pass string
}

// DatabaseConfig mirrors the [DatabaseService] section.
type DatabaseConfig struct {
	Provider         string
	ConnectionString string
}

// IsAdminLevel reports whether level grants administrator pages.
func (c *Config) IsAdminLevel(level int) bool {
	return level >= c.Admin.UserLevel
}

// AvatarTypes returns the configured avatar types, sorted.
func (c *Config) AvatarTypes() []string {
	types := make([]string, 0, len(c.AvatarAccounts))
	for t := range c.AvatarAccounts {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wifi.enabled", true)
	v.SetDefault("wifi.serverport", 9000)
	v.SetDefault("wifi.gridname", "My World")
	v.SetDefault("wifi.webaddress", "http://localhost:9000")
	v.SetDefault("wifi.loginurl", "http://localhost:9000")
	v.SetDefault("wifi.adminuserlevel", constants.DefaultAdminUserLevel)
	v.SetDefault("wifi.accountconfirmationrequired", false)
	v.SetDefault("wifi.smtpport", 25)
	v.SetDefault("wifi.smtptls", "auto")
	v.SetDefault("wifi.hyperlinksuserlevel", constants.DefaultHyperlinkLevel)
	v.SetDefault("wifi.hyperlinksshowall", false)
	v.SetDefault("wifi.sessiontimeout", int(constants.DefaultSessionTimeout.Minutes()))
	v.SetDefault("wifi.sessionstore", "memory")
	v.SetDefault("wifi.redisaddress", "localhost:6379")
	v.SetDefault("wifi.templatedir", "WifiPages")
	v.SetDefault("wifi.tosfile", "")
	v.SetDefault("wifi.loginratelimit", 10)
	v.SetDefault("wifi.passwordminlength", 0)
	v.SetDefault("databaseservice.storageprovider", "sqlite3")
	v.SetDefault("databaseservice.connectionstring", "file:wifi.db?_foreign_keys=on")
}

// Load reads an INI file. An empty path loads defaults only. Any key can be
// overridden from the environment as SECTION_KEY, e.g. WIFI_SERVERPORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Enabled:    v.GetBool("wifi.enabled"),
		ServerPort: v.GetInt("wifi.serverport"),
		GridName:   v.GetString("wifi.gridname"),
		WebAddress: strings.TrimRight(v.GetString("wifi.webaddress"), "/"),
		LoginURL:   v.GetString("wifi.loginurl"),
		Admin: AdminConfig{
			FirstName: v.GetString("wifi.adminfirst"),
			LastName:  v.GetString("wifi.adminlast"),
			Email:     v.GetString("wifi.adminemail"),
			Password:  v.GetString("wifi.adminpassword"),
			UserLevel: v.GetInt("wifi.adminuserlevel"),
		},
		AccountConfirmationRequired: v.GetBool("wifi.accountconfirmationrequired"),
		Password: PasswordPolicy{
			MinLength: v.GetInt("wifi.passwordminlength"),
			NeedDigit: v.GetBool("wifi.passwordneeddigit"),
			MixedCase: v.GetBool("wifi.passwordmixedcase"),
			Pattern:   v.GetString("wifi.passwordregexp"),
		},
		Email: EmailConfig{
			Enabled: v.GetString("wifi.smtphost") != "",
			From:    v.GetString("wifi.smtpfrom"),
			SMTP: SMTPConfig{
				Host:       v.GetString("wifi.smtphost"),
				Port:       v.GetInt("wifi.smtpport"),
				User:       v.GetString("wifi.smtpusername"),
				Password:   v.GetString("wifi.smtppassword"),
				TLSMode:    v.GetString("wifi.smtptls"),
				AuthType:   v.GetString("wifi.smtpauth"),
				SkipVerify: v.GetBool("wifi.smtpskipverify"),
			},
		},
		AvatarAccounts: make(map[string]string),
		Hyperlinks: HyperlinkConfig{
			UserLevel: v.GetInt("wifi.hyperlinksuserlevel"),
			ShowAll:   v.GetBool("wifi.hyperlinksshowall"),
		},
		Session: SessionConfig{
			Timeout:      constants.ClampSessionTimeout(time.Duration(v.GetInt("wifi.sessiontimeout")) * time.Minute),
			Store:        strings.ToLower(v.GetString("wifi.sessionstore")),
			RedisAddress: v.GetString("wifi.redisaddress"),
		},
		TemplateDir: v.GetString("wifi.templatedir"),
		TOSFile:     v.GetString("wifi.tosfile"),
		RemoteAdmin: RemoteAdminConfig{
			URL:      v.GetString("wifi.remoteadminurl"),
			Password: v.GetString("wifi.remoteadminpassword"),
		},
		Console: ConsoleConfig{
			URL:  strings.TrimRight(v.GetString("wifi.consoleurl"), "/"),
			User: v.GetString("wifi.consoleuser"),
			Pass: v.GetString("wifi.consolepass"),
		},
		NatsURL:          v.GetString("wifi.natsurl"),
		RecoverySecret:   v.GetString("wifi.recoverysecret"),
		ScriptEventToken: v.GetString("wifi.scripteventtoken"),
		LoginRateLimit:   v.GetInt("wifi.loginratelimit"),
		Database: DatabaseConfig{
			Provider:         strings.ToLower(v.GetString("databaseservice.storageprovider")),
			ConnectionString: v.GetString("databaseservice.connectionstring"),
		},
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Admin.Email
	}

	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		name, ok := strings.CutPrefix(key, "wifi.")
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(name, "avataraccount_"):
			avatarType := strings.TrimPrefix(name, "avataraccount_")
			if account := strings.TrimSpace(v.GetString(key)); account != "" {
				cfg.AvatarAccounts[avatarType] = account
			}
		case strings.HasPrefix(name, "wifiaddon_"):
			decl, err := parseAddon(strings.TrimPrefix(name, "wifiaddon_"), v.GetString(key))
			if err != nil {
				return nil, err
			}
			cfg.Addons = append(cfg.Addons, decl)
		case strings.HasPrefix(name, "servepath_"):
			sp, err := parseServePath(strings.TrimPrefix(name, "servepath_"), v.GetString(key))
			if err != nil {
				return nil, err
			}
			cfg.ServePaths = append(cfg.ServePaths, sp)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid ServerPort %d", c.ServerPort)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SessionStore %q (want memory or redis)", c.Session.Store)
	}
	switch c.Database.Provider {
	case "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("invalid StorageProvider %q", c.Database.Provider)
	}
	return c.Password.compile()
}

func parseAddon(name, value string) (AddonDecl, error) {
	parts := splitList(value)
	if len(parts) < 2 {
		return AddonDecl{}, fmt.Errorf("WifiAddon_%s: want path,label[,level], got %q", name, value)
	}
	decl := AddonDecl{Name: name, Path: parts[0], Label: parts[1]}
	if len(parts) > 2 {
		level, err := strconv.Atoi(parts[2])
		if err != nil {
			return AddonDecl{}, fmt.Errorf("WifiAddon_%s: bad level %q: %w", name, parts[2], err)
		}
		decl.Level = level
	}
	if !strings.HasPrefix(decl.Path, "/") {
		decl.Path = "/" + decl.Path
	}
	return decl, nil
}

func parseServePath(name, value string) (ServePath, error) {
	parts := splitList(value)
	if len(parts) != 2 {
		return ServePath{}, fmt.Errorf("ServePath_%s: want urlpath,directory, got %q", name, value)
	}
	sp := ServePath{Name: name, URLPath: parts[0], Dir: parts[1]}
	if !strings.HasPrefix(sp.URLPath, "/") {
		sp.URLPath = "/" + sp.URLPath
	}
	return sp, nil
}

func splitList(value string) []string {
	raw := strings.Split(value, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
