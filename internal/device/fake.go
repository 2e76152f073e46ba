package device

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Controller used by tests and by the daemon's dry
// run mode. It records levels and toggles instead of touching hardware.
type Fake struct {
	mu sync.Mutex

	BrightnessLevel int
	VolumeLevel     int
	Mute            bool
	Wifi            bool
	Bluetooth       bool
	LaunchedApps    []string
	PowerActions    []string

	// FailAll makes every operation report failure.
	FailAll bool
}

var _ Controller = (*Fake)(nil)

// NewFake returns a fake controller with mid-range defaults.
func NewFake() *Fake {
	return &Fake{BrightnessLevel: 50, VolumeLevel: 50, Wifi: true}
}

func (f *Fake) err() error {
	if f.FailAll {
		return fmt.Errorf("device unavailable")
	}
	return nil
}

func (f *Fake) Brightness(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BrightnessLevel, f.err()
}

func (f *Fake) SetBrightness(ctx context.Context, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.BrightnessLevel = level
	return nil
}

func (f *Fake) Volume(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.VolumeLevel, f.err()
}

func (f *Fake) SetVolume(ctx context.Context, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.VolumeLevel = level
	return nil
}

func (f *Fake) Muted(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mute, f.err()
}

func (f *Fake) SetMute(ctx context.Context, mute bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.Mute = mute
	return nil
}

func (f *Fake) SetWifi(ctx context.Context, enable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.Wifi = enable
	return nil
}

func (f *Fake) ConnectWifi(ctx context.Context, ssid, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.Wifi = true
	return nil
}

func (f *Fake) WifiStatus(ctx context.Context) (WifiStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return WifiStatus{}, err
	}
	return WifiStatus{Connected: f.Wifi, SSID: "testnet", Signal: 72}, nil
}

func (f *Fake) SetBluetooth(ctx context.Context, enable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.Bluetooth = enable
	return nil
}

func (f *Fake) Suspend(ctx context.Context) error {
	return f.recordPower("suspend")
}

func (f *Fake) Shutdown(ctx context.Context) error {
	return f.recordPower("shutdown")
}

func (f *Fake) Reboot(ctx context.Context) error {
	return f.recordPower("reboot")
}

func (f *Fake) recordPower(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.PowerActions = append(f.PowerActions, action)
	return nil
}

func (f *Fake) LaunchApp(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.LaunchedApps = append(f.LaunchedApps, name)
	return nil
}

func (f *Fake) Apps(ctx context.Context) ([]App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	return []App{{Name: "Files", Exec: "nautilus"}, {Name: "Terminal", Exec: "foot"}}, nil
}

func (f *Fake) Battery(ctx context.Context) (BatteryStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return BatteryStatus{}, err
	}
	return BatteryStatus{Available: true, Level: 87, Status: "Discharging"}, nil
}

func (f *Fake) SystemInfo(ctx context.Context) (SystemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return SystemInfo{}, err
	}
	return SystemInfo{
		Hostname:     "testhost",
		Kernel:       "6.1.0-test",
		Arch:         "x86_64",
		CPUCount:     4,
		MemoryMB:     8192,
		MemoryFreeMB: 4096,
	}, nil
}
