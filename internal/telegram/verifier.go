// Package telegram verifies Telegram WebApp init data, turns it into a
// caller identity, and serves the bot's webhook commands.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// webAppDataKey keys the first HMAC of the WebApp signature chain.
const webAppDataKey = "WebAppData"

var (
	// ErrMissingInitData is returned when no init data was supplied.
	ErrMissingInitData = errors.New("missing init data")
	// ErrBadSignature is returned when the hash does not match.
	ErrBadSignature = errors.New("invalid telegram signature")
	// ErrExpired is returned when auth_date is older than the allowed age.
	ErrExpired = errors.New("init data expired")
	// ErrBadUser is returned when the payload carries no usable user.
	ErrBadUser = errors.New("init data has no valid user")
)

// Identity is the Telegram user asserted by a verified payload.
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// Verify reports whether raw carries a valid hash for botToken.
//
// The check string is every pair except hash, sorted by key and formatted
// as key=value lines joined by "\n". The secret is HMAC-SHA256 of the bot
// token keyed with "WebAppData", and the expected hash is the hex HMAC of
// the check string under that secret. Any malformed input yields false.
func Verify(raw, botToken string) bool {
	if raw == "" || botToken == "" {
		return false
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return false
	}
	hash := values.Get("hash")
	if hash == "" {
		return false
	}
	values.Del("hash")

	expected := sign(checkString(values), botToken)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) == 1
}

func checkString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

func sign(data, botToken string) string {
	secret := hmac.New(sha256.New, []byte(webAppDataKey))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseIdentity decodes the user field of raw init data.
func ParseIdentity(raw string) (Identity, error) {
	parsed, err := initdata.Parse(raw)
	if err != nil {
		return Identity{}, errors.Join(ErrBadUser, err)
	}
	u := parsed.User
	if u.ID == 0 {
		return Identity{}, ErrBadUser
	}
	return Identity{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
		PhotoURL:     u.PhotoURL,
	}, nil
}

// Verifier authenticates init data against a bot token.
//
// MaxAge bounds how old auth_date may be; zero disables the check. Now
// defaults to time.Now.
type Verifier struct {
	BotToken string
	MaxAge   time.Duration
	Now      func() time.Time
}

// NewVerifier returns a Verifier for botToken.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{BotToken: botToken, MaxAge: maxAge, Now: time.Now}
}

// Authenticate verifies raw and returns the identity it asserts.
func (v *Verifier) Authenticate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingInitData
	}
	if !Verify(raw, v.BotToken) {
		return Identity{}, ErrBadSignature
	}
	if v.MaxAge > 0 {
		authDate, ok := authDateOf(raw)
		if !ok {
			return Identity{}, ErrExpired
		}
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		if now().Sub(authDate) > v.MaxAge {
			return Identity{}, ErrExpired
		}
	}
	return ParseIdentity(raw)
}

func authDateOf(raw string) (time.Time, bool) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
