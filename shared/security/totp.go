package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	totpSecretBytes = 20
	totpDigits      = 6
	totpPeriod      = 30
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateTOTPSecret returns a new random TOTP secret encoded as unpadded
// base32 for authenticator-app compatibility.
func GenerateTOTPSecret() (string, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return b32.EncodeToString(raw), nil
}

// BuildTOTPURI constructs the otpauth:// provisioning URI that
// authenticator apps consume, typically rendered as a QR code by the
// caller.
func BuildTOTPURI(secret, account, issuer string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)

	return "otpauth://totp/" + url.PathEscape(issuer+":"+account) + "?" + v.Encode()
}

// VerifyTOTP checks a submitted code against the secret at the given time.
// Codes from up to driftWindow 30-second steps before or after the current
// one are accepted to tolerate clock skew. Comparison is constant-time and
// the function has no side effects.
func VerifyTOTP(secret, code string, now time.Time, driftWindow int) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != totpDigits || !isNumeric(trimmed) {
		return false
	}

	raw, err := b32.DecodeString(strings.ToUpper(secret))
	if err != nil {
		return false
	}

	base := now.Unix() / totpPeriod
	for step := -driftWindow; step <= driftWindow; step++ {
		counter := base + int64(step)
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(totpCode(raw, counter)), []byte(trimmed)) == 1 {
			return true
		}
	}

	return false
}

// CurrentTOTP returns the code for the step containing the given instant.
func CurrentTOTP(secret string, at time.Time) (string, error) {
	raw, err := b32.DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", err
	}

	return totpCode(raw, at.Unix()/totpPeriod), nil
}

// totpCode computes the RFC 4226 dynamic truncation of HMAC-SHA1 over the
// step counter.
func totpCode(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < totpDigits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", totpDigits, bin%mod)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
