// Package telemetry defines the contract between the gateway's notification
// pipeline and the time-series backends that store sensor readings.
//
// Two backends implement Sink: influxdb (official v2 client, batched write
// API) and tsdb (VictoriaMetrics over InfluxDB line protocol). The backend
// is selected in config.yaml under telemetry.backend.
package telemetry
