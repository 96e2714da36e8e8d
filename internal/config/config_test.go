package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIni = `
[Wifi]
Enabled = true
ServerPort = 9100
GridName = Test Grid
WebAddress = http://grid.example.org:9100/
AdminFirst = Wifi
AdminLast = Admin
AdminEmail = admin@example.org
AdminPassword = secret
AdminUserLevel = 250
SmtpHost = mail.example.org
SmtpPort = 587
SmtpTLS = starttls
AvatarAccount_Female = Female Template
AvatarAccount_Male = Male Template
HyperlinksUserLevel = 50
HyperlinksShowAll = true
WifiAddon_Stats = /wifi/stats,Statistics,0
ServePath_Docs = /docs,./docs
SessionTimeout = 45
SessionStore = redis

[DatabaseService]
StorageProvider = mysql
ConnectionString = user:pw@tcp(localhost)/grid
`

func writeIni(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Wifi.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeIni(t, sampleIni))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 9100, cfg.ServerPort)
	assert.Equal(t, "Test Grid", cfg.GridName)
	assert.Equal(t, "http://grid.example.org:9100", cfg.WebAddress)
	assert.Equal(t, "Wifi", cfg.Admin.FirstName)
	assert.Equal(t, 250, cfg.Admin.UserLevel)
	assert.True(t, cfg.IsAdminLevel(250))
	assert.False(t, cfg.IsAdminLevel(249))

	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "admin@example.org", cfg.Email.From, "From falls back to the admin email")
	assert.Equal(t, "starttls", cfg.Email.EffectiveTLSMode())

	assert.Equal(t, []string{"female", "male"}, cfg.AvatarTypes())
	assert.Equal(t, "Female Template", cfg.AvatarAccounts["female"])

	assert.Equal(t, 50, cfg.Hyperlinks.UserLevel)
	assert.True(t, cfg.Hyperlinks.ShowAll)

	require.Len(t, cfg.Addons, 1)
	assert.Equal(t, AddonDecl{Name: "stats", Path: "/wifi/stats", Label: "Statistics", Level: 0}, cfg.Addons[0])
	require.Len(t, cfg.ServePaths, 1)
	assert.Equal(t, "/docs", cfg.ServePaths[0].URLPath)

	assert.Equal(t, 45*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "mysql", cfg.Database.Provider)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "sqlite3", cfg.Database.Provider)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "none", cfg.Email.EffectiveTLSMode())
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeIni(t, "[Wifi]\nSessionStore = etcd\n"))
	assert.Error(t, err)

	_, err = Load(writeIni(t, "[Wifi]\nWifiAddon_Broken = onlypath\n"))
	assert.Error(t, err)

	_, err = Load(writeIni(t, "[Wifi]\nWifiAddon_Broken = /x,Label,high\n"))
	assert.Error(t, err)

	_, err = Load(writeIni(t, "[Wifi]\nPasswordRegExp = \"([a-z\"\n"))
	assert.Error(t, err)
}

func TestPasswordPolicy(t *testing.T) {
	cfg, err := Load(writeIni(t, "[Wifi]\nPasswordMinLength = 8\nPasswordNeedDigit = true\nPasswordMixedCase = true\nPasswordRegExp = \"^[^ ]+$\"\n"))
	require.NoError(t, err)
	p := cfg.Password

	assert.ErrorIs(t, p.Check("Ab1"), ErrPasswordTooShort)
	assert.ErrorIs(t, p.Check("Abcdefgh"), ErrPasswordNoDigit)
	assert.ErrorIs(t, p.Check("abcdefg1"), ErrPasswordMixedCase)
	assert.ErrorIs(t, p.Check("Abc defg1"), ErrPasswordPattern)
	assert.NoError(t, p.Check("Abcdefg1"))

	var zero PasswordPolicy
	assert.NoError(t, zero.Check("x"))
}

func TestEffectiveTLSMode(t *testing.T) {
	tests := []struct {
		mode string
		tls  bool
		want string
	}{
		{"", false, "none"},
		{"", true, "starttls"},
		{"smtps", false, "smtps"},
		{"off", true, "none"},
		{"bogus", true, "starttls"},
	}
	for _, tc := range tests {
		c := &EmailConfig{SMTP: SMTPConfig{TLSMode: tc.mode, TLS: tc.tls}}
		assert.Equal(t, tc.want, c.EffectiveTLSMode(), "mode=%q tls=%v", tc.mode, tc.tls)
	}
	var nilCfg *EmailConfig
	assert.Equal(t, "none", nilCfg.EffectiveTLSMode())
}
