package internaldefs

import (
	"strconv"

	"github.com/MrEthical07/authsvc"
)

// CounterDef binds a counter id to its exported name.
type CounterDef struct {
	ID   authsvc.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram id to its exported name.
type HistogramDef struct {
	ID   authsvc.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authsvc.MetricSignupSuccess, Name: "authsvc_signup_success_total", Help: "Successful signups."},
	{ID: authsvc.MetricSignupDuplicate, Name: "authsvc_signup_duplicate_total", Help: "Signups rejected because the email is taken."},
	{ID: authsvc.MetricSignupInvalid, Name: "authsvc_signup_invalid_total", Help: "Signups rejected for malformed credentials."},
	{ID: authsvc.MetricLoginSuccess, Name: "authsvc_login_success_total", Help: "Logins that issued a token."},
	{ID: authsvc.MetricLoginFailure, Name: "authsvc_login_failure_total", Help: "Failed logins."},
	{ID: authsvc.MetricTwoFactorRequired, Name: "authsvc_2fa_required_total", Help: "Logins that started a second-factor challenge."},
	{ID: authsvc.MetricTwoFactorSuccess, Name: "authsvc_2fa_success_total", Help: "Successful second-factor verifications."},
	{ID: authsvc.MetricTwoFactorFailure, Name: "authsvc_2fa_failure_total", Help: "Failed second-factor verifications."},
	{ID: authsvc.MetricTwoFactorReplay, Name: "authsvc_2fa_replay_total", Help: "Verifications of a consumed or superseded challenge."},
	{ID: authsvc.MetricTwoFactorDeliveryFailure, Name: "authsvc_2fa_delivery_failure_total", Help: "Second-factor codes that could not be sent."},
	{ID: authsvc.MetricLogout, Name: "authsvc_logout_total", Help: "Successful logouts."},
	{ID: authsvc.MetricLogoutFailure, Name: "authsvc_logout_failure_total", Help: "Failed logouts."},
	{ID: authsvc.MetricTokenIssued, Name: "authsvc_token_issued_total", Help: "Session tokens issued."},
	{ID: authsvc.MetricTokenRejected, Name: "authsvc_token_rejected_total", Help: "Session tokens rejected by verification."},
	{ID: authsvc.MetricTokenBanned, Name: "authsvc_token_banned_total", Help: "Session tokens rejected because they were revoked."},
	{ID: authsvc.MetricStoreFailure, Name: "authsvc_store_failure_total", Help: "Operations that failed on a storage backend."},
}

var HistogramDefs = []HistogramDef{
	{ID: authsvc.MetricVerifyTokenLatency, Name: "authsvc_verify_token_latency_seconds", Help: "Token verification latency."},
}

// AuditDroppedName is the exported name of the dropped audit events counter.
const AuditDroppedName = "authsvc_audit_dropped_total"

// BucketBoundsSeconds returns the finite upper bounds of the latency buckets
// in seconds.
func BucketBoundsSeconds() []float64 {
	out := make([]float64, len(authsvc.HistogramBounds))
	for i, b := range authsvc.HistogramBounds {
		out[i] = b.Seconds()
	}
	return out
}

// BoundSuffix renders a bucket bound for use in an instrument name,
// for example 0.005 becomes "0_005".
func BoundSuffix(seconds float64) string {
	s := strconv.FormatFloat(seconds, 'f', -1, 64)
	out := []byte(s)
	for i := range out {
		if out[i] == '.' {
			out[i] = '_'
		}
	}
	return string(out)
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw []uint64) []uint64 {
	out := make([]uint64, len(raw))
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
