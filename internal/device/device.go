// Package device controls the host hardware on behalf of the agent:
// display brightness, audio, radios, power state, application launch, and
// system information. The Controller interface is the single capability
// set consumed by action dispatch; implementations must be safe for
// concurrent use by independent connections.
package device

import "context"

// SystemInfo describes host identity and resource figures.
type SystemInfo struct {
	Hostname     string  `json:"hostname"`
	Kernel       string  `json:"kernel"`
	Arch         string  `json:"arch"`
	CPU          string  `json:"cpu,omitempty"`
	CPUCount     int     `json:"cpu_count"`
	MemoryMB     int64   `json:"memory_mb"`
	MemoryFreeMB int64   `json:"memory_free_mb"`
	DiskTotalGB  int64   `json:"disk_total_gb"`
	DiskFreeGB   int64   `json:"disk_free_gb"`
	UptimeHours  float64 `json:"uptime_hours"`
}

// BatteryStatus describes the primary battery, if present.
type BatteryStatus struct {
	Available bool   `json:"available"`
	Level     int    `json:"level,omitempty"`
	Status    string `json:"status,omitempty"`
	Charging  bool   `json:"charging,omitempty"`
}

// WifiStatus describes the active wireless connection.
type WifiStatus struct {
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid,omitempty"`
	Signal    int    `json:"signal,omitempty"`
}

// App is an installed application discovered on the host.
type App struct {
	Name string `json:"name"`
	Exec string `json:"exec,omitempty"`
}

// Controller is the device capability set. Levels are percentages in
// 0-100.
type Controller interface {
	Brightness(ctx context.Context) (int, error)
	SetBrightness(ctx context.Context, level int) error

	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, level int) error
	Muted(ctx context.Context) (bool, error)
	SetMute(ctx context.Context, mute bool) error

	SetWifi(ctx context.Context, enable bool) error
	ConnectWifi(ctx context.Context, ssid, password string) error
	WifiStatus(ctx context.Context) (WifiStatus, error)
	SetBluetooth(ctx context.Context, enable bool) error

	Suspend(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Reboot(ctx context.Context) error

	LaunchApp(ctx context.Context, name string) error
	Apps(ctx context.Context) ([]App, error)

	Battery(ctx context.Context) (BatteryStatus, error)
	SystemInfo(ctx context.Context) (SystemInfo, error)
}
