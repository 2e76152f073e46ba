package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aios/internal/action"
	"aios/internal/device"
)

// levelStep is the fixed step applied for relative "up"/"down" requests.
const levelStep = 10

const helpText = "I'm running in local mode without an AI provider. " +
	"Try commands like 'turn up the brightness', 'volume down', 'mute', " +
	"'battery status', 'what time is it', 'wifi off', 'shutdown', or 'reboot'."

var numberRe = regexp.MustCompile(`\b(\d{1,3})\b`)

// fallback is the deterministic interpreter used when no remote provider
// is configured or the remote call fails. Matching is case-insensitive
// and first-match-wins over a fixed intent order; matched intents may
// execute an action directly and hand back the executor's result.
type fallback struct {
	controller device.Controller
	dispatcher *action.Dispatcher
	now        func() time.Time
}

func newFallback(controller device.Controller, dispatcher *action.Dispatcher) *fallback {
	return &fallback{
		controller: controller,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Interpret produces a reply for the user's text and, when an intent
// executed a device action, the action's result.
func (f *fallback) Interpret(ctx context.Context, text string) (string, *action.Result) {
	lower := strings.ToLower(text)

	type intent struct {
		match  func(string) bool
		handle func(context.Context, string) (string, *action.Result)
	}

	intents := []intent{
		{matchWord("brightness"), f.brightness},
		{matchWord("volume"), f.volume},
		{matchWord("mute"), f.mute},
		{matchWord("battery"), f.battery},
		{matchWord("time"), f.timeOfDay},
		{matchWord("date"), f.date},
		{matchAny("shutdown", "power off"), f.shutdown},
		{matchAny("reboot", "restart"), f.reboot},
		{matchWord("wifi"), f.wifi},
	}

	for _, in := range intents {
		if in.match(lower) {
			return in.handle(ctx, lower)
		}
	}
	return helpText, nil
}

func matchWord(word string) func(string) bool {
	return func(lower string) bool { return strings.Contains(lower, word) }
}

func matchAny(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

// absoluteLevel extracts an explicit 0-100 level from the text.
func absoluteLevel(lower string) (int, bool) {
	m := numberRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return level, true
}

// targetLevel resolves the requested level: absolute if the text names
// one, otherwise a fixed step relative to the current reading.
func (f *fallback) targetLevel(lower string, current int, currentErr error) (int, bool) {
	if level, ok := absoluteLevel(lower); ok {
		return level, true
	}

	up := strings.Contains(lower, "up") || strings.Contains(lower, "increase") || strings.Contains(lower, "higher")
	down := strings.Contains(lower, "down") || strings.Contains(lower, "decrease") || strings.Contains(lower, "lower")

	switch {
	case strings.Contains(lower, "max") || strings.Contains(lower, "full"):
		return 100, true
	case strings.Contains(lower, "min"):
		return 0, true
	case up && currentErr == nil:
		return current + levelStep, true
	case down && currentErr == nil:
		return current - levelStep, true
	case up:
		return 80, true
	case down:
		return 30, true
	}
	return 0, false
}

func (f *fallback) setLevel(ctx context.Context, actionTag string, level int) (string, *action.Result) {
	result := f.dispatcher.Execute(ctx, action.Descriptor{
		Action: actionTag,
		Params: map[string]any{"level": level},
	})
	if result.Success {
		return result.Message, &result
	}
	return "I couldn't do that: " + result.Message, &result
}

func (f *fallback) brightness(ctx context.Context, lower string) (string, *action.Result) {
	current, err := f.controller.Brightness(ctx)
	if level, ok := f.targetLevel(lower, current, err); ok {
		return f.setLevel(ctx, "brightness", level)
	}
	if err != nil {
		return "I couldn't read the current brightness.", nil
	}
	return fmt.Sprintf("Brightness is at %d%%.", current), nil
}

func (f *fallback) volume(ctx context.Context, lower string) (string, *action.Result) {
	// "volume mute" belongs to the mute intent.
	if strings.Contains(lower, "mute") {
		return f.mute(ctx, lower)
	}
	current, err := f.controller.Volume(ctx)
	if level, ok := f.targetLevel(lower, current, err); ok {
		return f.setLevel(ctx, "volume", level)
	}
	if err != nil {
		return "I couldn't read the current volume.", nil
	}
	return fmt.Sprintf("Volume is at %d%%.", current), nil
}

func (f *fallback) mute(ctx context.Context, lower string) (string, *action.Result) {
	mute := !strings.Contains(lower, "unmute")
	result := f.dispatcher.Execute(ctx, action.Descriptor{
		Action: "mute",
		Params: map[string]any{"mute": mute},
	})
	if result.Success {
		return result.Message, &result
	}
	return "I couldn't change the mute state: " + result.Message, &result
}

func (f *fallback) battery(ctx context.Context, lower string) (string, *action.Result) {
	result := f.dispatcher.Execute(ctx, action.Descriptor{
		Action: "info",
		Params: map[string]any{"type": "battery"},
	})
	if !result.Success {
		return "I couldn't read the battery status.", &result
	}
	if battery, ok := result.Data.(device.BatteryStatus); ok {
		if !battery.Available {
			return "No battery is present on this device.", &result
		}
		return fmt.Sprintf("Battery at %d%% (%s).", battery.Level, battery.Status), &result
	}
	return "Battery status retrieved.", &result
}

func (f *fallback) timeOfDay(ctx context.Context, lower string) (string, *action.Result) {
	return "The current time is " + f.now().Format("15:04:05"), nil
}

func (f *fallback) date(ctx context.Context, lower string) (string, *action.Result) {
	return "Today is " + f.now().Format("Monday, January 2, 2006"), nil
}

func (f *fallback) shutdown(ctx context.Context, lower string) (string, *action.Result) {
	return f.power(ctx, lower, false)
}

func (f *fallback) reboot(ctx context.Context, lower string) (string, *action.Result) {
	return f.power(ctx, lower, true)
}

func (f *fallback) power(ctx context.Context, lower string, reboot bool) (string, *action.Result) {
	params := map[string]any{"reboot": reboot}
	if strings.Contains(lower, "confirm") {
		params["confirmed"] = true
	}
	result := f.dispatcher.Execute(ctx, action.Descriptor{Action: "shutdown", Params: params})
	return result.Message, &result
}

func (f *fallback) wifi(ctx context.Context, lower string) (string, *action.Result) {
	switch {
	case strings.Contains(lower, "status"):
		result := f.dispatcher.Execute(ctx, action.Descriptor{
			Action: "info",
			Params: map[string]any{"type": "wifi"},
		})
		if !result.Success {
			return "I couldn't read the wifi status.", &result
		}
		if status, ok := result.Data.(device.WifiStatus); ok {
			if status.Connected {
				return fmt.Sprintf("Connected to %s (signal %d%%).", status.SSID, status.Signal), &result
			}
			return "WiFi is not connected.", &result
		}
		return "WiFi status retrieved.", &result

	case strings.Contains(lower, "off") || strings.Contains(lower, "disable"):
		return f.switchWifi(ctx, false)

	case strings.Contains(lower, "on") || strings.Contains(lower, "enable"):
		return f.switchWifi(ctx, true)
	}
	return helpText, nil
}

func (f *fallback) switchWifi(ctx context.Context, enable bool) (string, *action.Result) {
	result := f.dispatcher.Execute(ctx, action.Descriptor{
		Action: "wifi",
		Params: map[string]any{"enabled": enable},
	})
	if result.Success {
		return result.Message, &result
	}
	return "I couldn't switch the wifi: " + result.Message, &result
}
