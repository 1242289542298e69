package stubapi

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rotisserie/eris"
)

// TOTP parameters used by authenticator apps.
const totpPeriod = 30

var totpOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// TOTPCode returns the RFC 6238 code for secret at t and the seconds left
// in the current period.
func TOTPCode(secret string, t time.Time) (string, int, error) {
	code, err := totp.GenerateCodeCustom(strings.TrimRight(NormalizeSecret(secret), "="), t, totpOpts)
	if err != nil {
		return "", 0, eris.Wrap(err, "stubapi: totp code")
	}
	return code, totpPeriod - int(t.Unix()%totpPeriod), nil
}
