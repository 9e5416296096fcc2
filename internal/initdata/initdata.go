// Package initdata parses and verifies Telegram mini-app launch data.
//
// The platform hands the embedding page a query-string blob signed with a key
// derived from the bot token. Nothing in the blob may be trusted until the
// signature checks out, so parsing and verification are kept pure and
// side-effect free: callers get a field set plus a terminal Outcome.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// secretKeyDomain is the HMAC key Telegram prescribes for deriving the
// per-bot secret from the bot token.
const secretKeyDomain = "WebAppData"

// Fields is the decoded launch-data field set, signature excluded.
type Fields map[string]string

// Reason identifies why verification rejected a payload.
type Reason string

const (
	ReasonMissingSignature  Reason = "missing_signature"
	ReasonSignatureMismatch Reason = "signature_mismatch"
	ReasonMissingIdentity   Reason = "missing_identity"
	ReasonMalformedIdentity Reason = "malformed_identity"
	ReasonAuthDateExpired   Reason = "auth_date_expired"
)

// User is the identity record Telegram embeds in the user field. Raw keeps
// the original JSON so profile fields we do not model are not lost.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Outcome is the terminal result of one verification. Exactly one of
// Verified or Reason is meaningful.
type Outcome struct {
	Verified bool
	User     *User
	Reason   Reason
}

func rejected(r Reason) Outcome {
	return Outcome{Reason: r}
}

// Parse decodes raw launch data into its field set and extracts the claimed
// signature. Pairs that fail percent-decoding are skipped and duplicate keys
// keep the first occurrence. Parse never fails: garbage input yields an empty
// field set and an empty claimed signature.
func Parse(raw string) (Fields, string) {
	fields := make(Fields)
	var claimed string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		if key == "hash" {
			if claimed == "" {
				claimed = val
			}
			continue
		}
		if _, ok := fields[key]; !ok {
			fields[key] = val
		}
	}
	return fields, claimed
}

// DataCheckString serializes fields in the platform's canonical form: keys
// sorted ascending by byte value, one key=value per line, joined by \n.
// The hash key never reaches this function; Parse strips it.
func DataCheckString(fields Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + fields[k]
	}
	return strings.Join(lines, "\n")
}

// SecretKey derives the per-bot signing key. The domain constant is the HMAC
// key and the bot token is the message; reversing the two, or hashing their
// concatenation, produces a key the platform will never have signed with.
func SecretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte(secretKeyDomain))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// Sign computes the lowercase hex signature of a data-check string.
func Sign(dataCheckString string, secretKey []byte) string {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(dataCheckString))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks launch-data signatures for one bot. A zero maxAge disables
// the auth_date freshness check, matching the platform's baseline scheme.
type Verifier struct {
	botToken string
	maxAge   time.Duration

	now func() time.Time
}

// NewVerifier returns a Verifier bound to the given bot token.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{
		botToken: botToken,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Verify checks the claimed signature against the field set and, on a match,
// extracts the launching user's identity. Every branch is terminal; no
// cryptographic work happens when the claimed signature is absent.
func (v *Verifier) Verify(fields Fields, claimedSignature string) Outcome {
	if claimedSignature == "" {
		return rejected(ReasonMissingSignature)
	}

	computed := Sign(DataCheckString(fields), SecretKey(v.botToken))
	if !hmac.Equal([]byte(computed), []byte(claimedSignature)) {
		return rejected(ReasonSignatureMismatch)
	}

	if v.maxAge > 0 && !v.fresh(fields) {
		return rejected(ReasonAuthDateExpired)
	}

	userRaw, ok := fields["user"]
	if !ok {
		return rejected(ReasonMissingIdentity)
	}

	var user User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil || user.ID == 0 {
		return rejected(ReasonMalformedIdentity)
	}
	user.Raw = json.RawMessage(userRaw)

	return Outcome{Verified: true, User: &user}
}

// VerifyInitData parses and verifies raw launch data in one step.
func (v *Verifier) VerifyInitData(raw string) Outcome {
	fields, claimed := Parse(raw)
	return v.Verify(fields, claimed)
}

// fresh reports whether the signed auth_date is within maxAge of now. An
// absent or unparseable auth_date counts as stale once freshness is enabled.
func (v *Verifier) fresh(fields Fields) bool {
	raw, ok := fields["auth_date"]
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	issued := time.Unix(ts, 0)
	return v.now().Sub(issued) <= v.maxAge
}
