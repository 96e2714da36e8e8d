package config

import "strings"

// EmailConfig holds outbound mail settings.
type EmailConfig struct {
	Enabled bool
	From    string
	SMTP    SMTPConfig
}

// SMTPConfig is the SMTP relay used for account and recovery mail.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	AuthType   string // "plain" (default) or "login"
	TLS        bool
	TLSMode    string
	SkipVerify bool
}

var tlsModeAliases = map[string]string{
	"none": "none", "off": "none", "disabled": "none", "false": "none",
	"starttls": "starttls", "tls": "starttls", "true": "starttls",
	"smtps": "smtps", "implicit": "smtps", "tls_implicit": "smtps",
}

// EffectiveTLSMode is one of "none", "starttls" or "smtps". An empty or
// unrecognised TLSMode defers to the TLS flag.
func (c *EmailConfig) EffectiveTLSMode() string {
	if c == nil {
		return "none"
	}
	if mode, ok := tlsModeAliases[strings.ToLower(strings.TrimSpace(c.SMTP.TLSMode))]; ok {
		return mode
	}
	if c.SMTP.TLS {
		return "starttls"
	}
	return "none"
}
