package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// backlightRoot is the sysfs directory holding backlight devices.
const backlightRoot = "/sys/class/backlight"

// commandTimeout bounds every external tool invocation.
const commandTimeout = 10 * time.Second

var volumeRe = regexp.MustCompile(`\[(\d+)%\]`)

// LinuxController implements Controller against sysfs and the standard
// desktop tooling (amixer, nmcli, bluetoothctl, systemctl). It is
// stateless and safe for concurrent use.
type LinuxController struct{}

var _ Controller = (*LinuxController)(nil)

// NewLinuxController returns the host controller.
func NewLinuxController() *LinuxController {
	return &LinuxController{}
}

func run(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func output(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// ---------- Display ----------

func backlightDevice() (string, error) {
	entries, err := os.ReadDir(backlightRoot)
	if err != nil {
		return "", fmt.Errorf("no backlight devices: %w", err)
	}
	for _, e := range entries {
		return filepath.Join(backlightRoot, e.Name()), nil
	}
	return "", fmt.Errorf("no backlight devices found")
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Brightness returns the display brightness as a 0-100 percentage.
func (c *LinuxController) Brightness(ctx context.Context) (int, error) {
	dev, err := backlightDevice()
	if err != nil {
		return 0, err
	}
	current, err := readSysfsInt(filepath.Join(dev, "brightness"))
	if err != nil {
		return 0, fmt.Errorf("read brightness: %w", err)
	}
	max, err := readSysfsInt(filepath.Join(dev, "max_brightness"))
	if err != nil || max <= 0 {
		return 0, fmt.Errorf("read max brightness: %w", err)
	}
	return current * 100 / max, nil
}

// SetBrightness sets the display brightness from a 0-100 percentage,
// scaled to the device's raw range.
func (c *LinuxController) SetBrightness(ctx context.Context, level int) error {
	dev, err := backlightDevice()
	if err != nil {
		return err
	}
	max, err := readSysfsInt(filepath.Join(dev, "max_brightness"))
	if err != nil || max <= 0 {
		return fmt.Errorf("read max brightness: %w", err)
	}
	raw := max * level / 100
	if err := os.WriteFile(filepath.Join(dev, "brightness"), []byte(strconv.Itoa(raw)), 0644); err != nil {
		return fmt.Errorf("write brightness: %w", err)
	}
	return nil
}

// ---------- Audio ----------

// Volume returns the master volume as a 0-100 percentage.
func (c *LinuxController) Volume(ctx context.Context) (int, error) {
	out, err := output(ctx, "amixer", "get", "Master")
	if err != nil {
		return 0, err
	}
	m := volumeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no volume level in amixer output")
	}
	return strconv.Atoi(m[1])
}

// SetVolume sets the master volume from a 0-100 percentage.
func (c *LinuxController) SetVolume(ctx context.Context, level int) error {
	return run(ctx, "amixer", "set", "Master", fmt.Sprintf("%d%%", level))
}

// Muted reports whether the master channel is muted.
func (c *LinuxController) Muted(ctx context.Context) (bool, error) {
	out, err := output(ctx, "amixer", "get", "Master")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "[off]"), nil
}

// SetMute mutes or unmutes the master channel.
func (c *LinuxController) SetMute(ctx context.Context, mute bool) error {
	state := "mute"
	if !mute {
		state = "unmute"
	}
	return run(ctx, "amixer", "set", "Master", state)
}

// ---------- Network ----------

// SetWifi enables or disables the wifi radio.
func (c *LinuxController) SetWifi(ctx context.Context, enable bool) error {
	state := "on"
	if !enable {
		state = "off"
	}
	return run(ctx, "nmcli", "radio", "wifi", state)
}

// ConnectWifi joins the named network.
func (c *LinuxController) ConnectWifi(ctx context.Context, ssid, password string) error {
	args := []string{"dev", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	return run(ctx, "nmcli", args...)
}

// WifiStatus returns the active wireless connection, if any.
func (c *LinuxController) WifiStatus(ctx context.Context) (WifiStatus, error) {
	out, err := output(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID,SIGNAL", "dev", "wifi")
	if err != nil {
		return WifiStatus{}, err
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, ":")
		if len(parts) >= 3 && parts[0] == "yes" {
			signal, _ := strconv.Atoi(parts[2])
			return WifiStatus{Connected: true, SSID: parts[1], Signal: signal}, nil
		}
	}
	return WifiStatus{Connected: false}, nil
}

// SetBluetooth powers the bluetooth adapter on or off.
func (c *LinuxController) SetBluetooth(ctx context.Context, enable bool) error {
	state := "on"
	if !enable {
		state = "off"
	}
	return run(ctx, "bluetoothctl", "power", state)
}

// ---------- Power ----------

// Suspend suspends the machine to RAM.
func (c *LinuxController) Suspend(ctx context.Context) error {
	return run(ctx, "systemctl", "suspend")
}

// Shutdown powers the machine off.
func (c *LinuxController) Shutdown(ctx context.Context) error {
	return run(ctx, "systemctl", "poweroff")
}

// Reboot restarts the machine.
func (c *LinuxController) Reboot(ctx context.Context) error {
	return run(ctx, "systemctl", "reboot")
}

// ---------- Battery ----------

// Battery reads the primary battery from sysfs.
func (c *LinuxController) Battery(ctx context.Context) (BatteryStatus, error) {
	base := "/sys/class/power_supply/BAT0"
	capacity, err := readSysfsInt(filepath.Join(base, "capacity"))
	if err != nil {
		return BatteryStatus{Available: false}, nil
	}
	status := "Unknown"
	if data, err := os.ReadFile(filepath.Join(base, "status")); err == nil {
		status = strings.TrimSpace(string(data))
	}
	return BatteryStatus{
		Available: true,
		Level:     capacity,
		Status:    status,
		Charging:  status == "Charging",
	}, nil
}
