// Package otel exposes sessiongate metrics as OpenTelemetry observable instruments.
//
// Each counter becomes an Int64ObservableCounter and each cumulative histogram bucket
// an Int64ObservableGauge. Callers own the MeterProvider and pass a Meter in.
package otel
