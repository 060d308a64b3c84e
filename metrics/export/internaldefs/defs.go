package internaldefs

import (
	"github.com/MrEthical07/sessiongate"
)

// CounterDef names one sessiongate counter for exporters.
type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// HistogramDef names one sessiongate histogram for exporters.
type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricLookupSuccess, Name: "sessiongate_lookup_success_total", Help: "Boot session lookups answered by the provider."},
	{ID: sessiongate.MetricLookupFailure, Name: "sessiongate_lookup_failure_total", Help: "Boot session lookups that failed and started anonymous."},
	{ID: sessiongate.MetricNotification, Name: "sessiongate_notification_total", Help: "Provider session change notifications applied."},
	{ID: sessiongate.MetricGuardProceed, Name: "sessiongate_guard_proceed_total", Help: "Guard decisions that allowed navigation."},
	{ID: sessiongate.MetricGuardRedirect, Name: "sessiongate_guard_redirect_total", Help: "Guard decisions that redirected navigation."},
	{ID: sessiongate.MetricSignInSuccess, Name: "sessiongate_signin_success_total", Help: "Sign-in requests accepted by the provider."},
	{ID: sessiongate.MetricSignInFailure, Name: "sessiongate_signin_failure_total", Help: "Sign-in requests that failed."},
	{ID: sessiongate.MetricSignOutSuccess, Name: "sessiongate_signout_success_total", Help: "Sign-outs accepted by the provider."},
	{ID: sessiongate.MetricSignOutFailure, Name: "sessiongate_signout_failure_total", Help: "Sign-outs that failed."},
	{ID: sessiongate.MetricCallbackSuccess, Name: "sessiongate_callback_success_total", Help: "Sign-in callbacks that established a session."},
	{ID: sessiongate.MetricCallbackFailure, Name: "sessiongate_callback_failure_total", Help: "Sign-in callbacks that failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: sessiongate.MetricInitLatency, Name: "sessiongate_init_latency_seconds", Help: "Boot session lookup latency histogram."},
}

// AuditDroppedName is the counter for events dropped by the audit dispatcher.
const AuditDroppedName = "sessiongate_audit_dropped_total"

// HistogramBounds are the upper bucket bounds in seconds, matching the core buckets.
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

// HistogramBoundSuffix are HistogramBounds spelled for instrument names.
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

// NormalizeBuckets pads or truncates raw to the eight core buckets.
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
