// Package prometheus renders sessiongate counters and the boot lookup latency
// histogram in Prometheus text exposition format.
//
// Counter names are sessiongate_*_total; the histogram is
// sessiongate_init_latency_seconds. Nothing is registered globally; callers mount
// Handler themselves.
package prometheus
