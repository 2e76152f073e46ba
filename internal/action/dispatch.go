package action

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"aios/internal/device"
)

// Dispatcher executes action descriptors against a device controller.
// Safe for concurrent use by independent connections.
type Dispatcher struct {
	controller       device.Controller
	confirmDangerous bool
	logger           *zap.Logger
}

// NewDispatcher creates a dispatcher. With confirmDangerous set, power
// actions require an explicit confirmed parameter.
func NewDispatcher(controller device.Controller, confirmDangerous bool, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		controller:       controller,
		confirmDangerous: confirmDangerous,
		logger:           logger,
	}
}

// Execute resolves and runs one action. It always returns a Result; a
// failed device call, an unknown tag, or a missing parameter yields
// success:false with an explanatory message.
func (d *Dispatcher) Execute(ctx context.Context, desc Descriptor) Result {
	d.logger.Debug("dispatching action",
		zap.String("action", desc.Action),
		zap.Any("params", desc.Params))

	result := d.execute(ctx, desc)

	if !result.Success {
		d.logger.Info("action failed",
			zap.String("action", desc.Action),
			zap.String("message", result.Message))
	}
	return result
}

func (d *Dispatcher) execute(ctx context.Context, desc Descriptor) Result {
	switch desc.Action {
	case "brightness":
		level, ok := desc.intParam("level")
		if !ok {
			return Result{Success: false, Message: "brightness requires an integer level"}
		}
		level = clamp(level)
		if err := d.controller.SetBrightness(ctx, level); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to set brightness: %v", err)}
		}
		return Result{Success: true, Message: fmt.Sprintf("Brightness set to %d%%", level)}

	case "volume":
		level, ok := desc.intParam("level")
		if !ok {
			return Result{Success: false, Message: "volume requires an integer level"}
		}
		level = clamp(level)
		if err := d.controller.SetVolume(ctx, level); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to set volume: %v", err)}
		}
		return Result{Success: true, Message: fmt.Sprintf("Volume set to %d%%", level)}

	case "mute":
		mute, ok := desc.boolParam("mute")
		if !ok {
			mute = true
		}
		if err := d.controller.SetMute(ctx, mute); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to change mute state: %v", err)}
		}
		if mute {
			return Result{Success: true, Message: "Muted"}
		}
		return Result{Success: true, Message: "Unmuted"}

	case "wifi":
		enable, ok := desc.boolParam("enabled", "enable")
		if !ok {
			return Result{Success: false, Message: "wifi requires an enabled flag"}
		}
		if err := d.controller.SetWifi(ctx, enable); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to switch wifi: %v", err)}
		}
		return Result{Success: true, Message: "WiFi " + onOff(enable)}

	case "wifi_connect":
		ssid, ok := desc.stringParam("ssid")
		if !ok {
			return Result{Success: false, Message: "wifi_connect requires an ssid"}
		}
		password, _ := desc.stringParam("password")
		if err := d.controller.ConnectWifi(ctx, ssid, password); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to connect to %s: %v", ssid, err)}
		}
		return Result{Success: true, Message: fmt.Sprintf("Connected to %s", ssid)}

	case "bluetooth":
		enable, ok := desc.boolParam("enabled", "enable")
		if !ok {
			return Result{Success: false, Message: "bluetooth requires an enabled flag"}
		}
		if err := d.controller.SetBluetooth(ctx, enable); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to switch bluetooth: %v", err)}
		}
		return Result{Success: true, Message: "Bluetooth " + onOff(enable)}

	case "shutdown":
		reboot, _ := desc.boolParam("reboot")
		if blocked := d.needsConfirmation(desc); blocked != nil {
			return *blocked
		}
		if reboot {
			if err := d.controller.Reboot(ctx); err != nil {
				return Result{Success: false, Message: fmt.Sprintf("failed to reboot: %v", err)}
			}
			return Result{Success: true, Message: "Rebooting..."}
		}
		if err := d.controller.Shutdown(ctx); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to shut down: %v", err)}
		}
		return Result{Success: true, Message: "Shutting down..."}

	case "suspend":
		if err := d.controller.Suspend(ctx); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to suspend: %v", err)}
		}
		return Result{Success: true, Message: "Suspending..."}

	case "launch":
		app, ok := desc.stringParam("app")
		if !ok {
			return Result{Success: false, Message: "launch requires an app name"}
		}
		if err := d.controller.LaunchApp(ctx, app); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("Could not launch %s: %v", app, err)}
		}
		return Result{Success: true, Message: fmt.Sprintf("Launched %s", app)}

	case "info":
		return d.info(ctx, desc)

	default:
		return Result{Success: false, Message: fmt.Sprintf("Unknown action: %s", desc.Action)}
	}
}

// needsConfirmation gates dangerous power actions behind an explicit
// confirmed parameter when the daemon is configured to do so.
func (d *Dispatcher) needsConfirmation(desc Descriptor) *Result {
	if !d.confirmDangerous {
		return nil
	}
	if confirmed, _ := desc.boolParam("confirmed"); confirmed {
		return nil
	}
	return &Result{
		Success: false,
		Message: fmt.Sprintf("%s requires confirmation; repeat with \"confirmed\": true", desc.Action),
	}
}

func (d *Dispatcher) info(ctx context.Context, desc Descriptor) Result {
	infoType, ok := desc.stringParam("type")
	if !ok {
		infoType = "system"
	}

	switch infoType {
	case "system":
		info, err := d.controller.SystemInfo(ctx)
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to read system info: %v", err)}
		}
		return Result{Success: true, Data: info}

	case "battery":
		battery, err := d.controller.Battery(ctx)
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to read battery: %v", err)}
		}
		return Result{Success: true, Data: battery}

	case "wifi":
		status, err := d.controller.WifiStatus(ctx)
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to read wifi status: %v", err)}
		}
		return Result{Success: true, Data: status}

	case "apps":
		apps, err := d.controller.Apps(ctx)
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("failed to list apps: %v", err)}
		}
		if len(apps) > 20 {
			apps = apps[:20]
		}
		return Result{Success: true, Data: map[string]any{"apps": apps}}

	default:
		return Result{Success: false, Message: fmt.Sprintf("unknown info type: %s", infoType)}
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
