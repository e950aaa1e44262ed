// Package types holds the request and response shapes of the system
// endpoints.
package types

import "time"

// Meta is embedded in every system response.
type Meta struct {
	LastUpdated string `json:"last_updated"`
}

// Stamp sets LastUpdated to the current UTC time.
func (m *Meta) Stamp() {
	m.LastUpdated = time.Now().UTC().Format(time.RFC3339Nano)
}

// KillSwitchRequest toggles the kill switch. Enabled is a pointer so that a
// missing field fails validation instead of reading as false.
type KillSwitchRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type MemoryStats struct {
	AllocBytes     uint64 `json:"alloc_bytes"`
	HeapInUseBytes uint64 `json:"heap_in_use_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

type HostInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	NumCPU   int    `json:"num_cpu"`
}

// Status is the payload of GET /system/status.
type Status struct {
	Meta
	System         string      `json:"system"`
	Gateway        string      `json:"gateway"`
	GatewayVersion string      `json:"gateway_version"`
	Environment    string      `json:"environment"`
	UptimeSeconds  float64     `json:"uptime"`
	KillSwitch     bool        `json:"kill_switch"`
	Goroutines     int         `json:"goroutines"`
	Memory         MemoryStats `json:"memory_usage"`
	Host           HostInfo    `json:"host"`
}

// RuntimeInfo is the payload of GET /system/infra-status.
type RuntimeInfo struct {
	Meta
	GoVersion     string      `json:"go_version"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Memory        MemoryStats `json:"memory"`
	LogsDirExists bool        `json:"logs_dir_exists"`
	Cwd           string      `json:"cwd"`
}

// CheckResult is one dependency probed by the self-test routine.
type CheckResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// SelfTestReport is the payload of POST /system/run-tests.
type SelfTestReport struct {
	OK       bool          `json:"ok"`
	SourceIP string        `json:"source_ip"`
	Checks   []CheckResult `json:"checks"`
}
