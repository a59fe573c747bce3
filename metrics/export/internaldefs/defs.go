package internaldefs

import (
	posauth "github.com/retailcore/posauth"
)

// CounterDef binds a core metric ID to its stable exported name.
type CounterDef struct {
	ID   posauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a core latency histogram ID to its stable exported
// name.
type HistogramDef struct {
	ID   posauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in exposition order.
var CounterDefs = []CounterDef{
	{ID: posauth.MetricLoginSuccess, Name: "posauth_login_success_total", Help: "Completed login transactions."},
	{ID: posauth.MetricLoginFailure, Name: "posauth_login_failure_total", Help: "Login transactions aborted by authentication failure."},
	{ID: posauth.MetricLogout, Name: "posauth_logout_total", Help: "Logout teardowns."},
	{ID: posauth.MetricAnonymousBoot, Name: "posauth_anonymous_boot_total", Help: "Boots settled anonymously without backend calls."},
	{ID: posauth.MetricHydrationCompleted, Name: "posauth_hydration_completed_total", Help: "Hydration runs that reached the ready state."},
	{ID: posauth.MetricIdentityRefreshFailure, Name: "posauth_identity_refresh_failure_total", Help: "Identity lookups that degraded to cached identity."},
	{ID: posauth.MetricPermissionRefreshSuccess, Name: "posauth_permission_refresh_success_total", Help: "Permission refreshes that applied fresh data."},
	{ID: posauth.MetricPermissionRefreshFailure, Name: "posauth_permission_refresh_failure_total", Help: "Permission refreshes that degraded to the cached set."},
	{ID: posauth.MetricBusinessLookupFailure, Name: "posauth_business_lookup_failure_total", Help: "Business profile lookups that degraded to a null context."},
	{ID: posauth.MetricAssetFetchSuccess, Name: "posauth_asset_fetch_success_total", Help: "Installed asset handles."},
	{ID: posauth.MetricAssetFetchFailure, Name: "posauth_asset_fetch_failure_total", Help: "Asset fetches that left the cache slot empty."},
	{ID: posauth.MetricStaleResultDiscarded, Name: "posauth_stale_result_discarded_total", Help: "Asynchronous results dropped by the generation check."},
	{ID: posauth.MetricStorageFailure, Name: "posauth_storage_failure_total", Help: "Swallowed durable-store failures."},
	{ID: posauth.MetricAccessGranted, Name: "posauth_access_granted_total", Help: "Allow decisions from capability checks."},
	{ID: posauth.MetricAccessDenied, Name: "posauth_access_denied_total", Help: "Deny decisions from capability checks."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: posauth.MetricLoginLatency, Name: "posauth_login_latency_seconds", Help: "Login transaction latency histogram."},
	{ID: posauth.MetricHydrateLatency, Name: "posauth_hydrate_latency_seconds", Help: "Hydration run latency histogram."},
}

// HistogramBounds are the upper bounds of the core latency buckets, in
// seconds, as exposition label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds as metric-name-safe suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a snapshot bucket slice into the fixed core shape.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
