package models

import "time"

// Session is an authenticated web session. The Account reference is fixed
// for the lifetime of the session.
type Session struct {
	ID        string        `json:"id"`
	ClientIP  string        `json:"client_ip"`
	Account   *UserAccount  `json:"account"`
	Notify    *Notification `json:"notify,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	LastSeen  time.Time     `json:"last_seen"`
}

// Notification is a message shown once on the next page view, followed by a
// redirect to RedirectURL.
type Notification struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
	Seconds     int    `json:"seconds"`
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Account != nil {
		acc := *s.Account
		if s.Account.ServiceURLs != nil {
			acc.ServiceURLs = make(map[string]string, len(s.Account.ServiceURLs))
			for k, v := range s.Account.ServiceURLs {
				acc.ServiceURLs[k] = v
			}
		}
		out.Account = &acc
	}
	if s.Notify != nil {
		n := *s.Notify
		out.Notify = &n
	}
	return &out
}
