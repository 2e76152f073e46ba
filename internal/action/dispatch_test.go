package action

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aios/internal/device"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *device.Fake) {
	t.Helper()
	fake := device.NewFake()
	return NewDispatcher(fake, false, nil), fake
}

func TestDispatch_BrightnessClampHigh(t *testing.T) {
	d, fake := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{
		Action: "brightness",
		Params: map[string]any{"level": float64(150)},
	})

	assert.True(t, res.Success)
	assert.Equal(t, 100, fake.BrightnessLevel)
	assert.Contains(t, res.Message, "100%")
}

func TestDispatch_BrightnessClampLow(t *testing.T) {
	d, fake := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{
		Action: "brightness",
		Params: map[string]any{"level": float64(-20)},
	})

	assert.True(t, res.Success)
	assert.Equal(t, 0, fake.BrightnessLevel)
}

func TestDispatch_MissingRequiredParam(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{Action: "brightness"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	res = d.Execute(context.Background(), Descriptor{Action: "launch"})
	assert.False(t, res.Success)

	res = d.Execute(context.Background(), Descriptor{Action: "wifi_connect"})
	assert.False(t, res.Success)
}

func TestDispatch_UnknownAction(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{Action: "bogus"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestDispatch_MuteDefaultsToTrue(t *testing.T) {
	d, fake := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{Action: "mute"})
	assert.True(t, res.Success)
	assert.True(t, fake.Mute)
	assert.Equal(t, "Muted", res.Message)

	res = d.Execute(context.Background(), Descriptor{
		Action: "mute",
		Params: map[string]any{"mute": false},
	})
	assert.True(t, res.Success)
	assert.False(t, fake.Mute)
	assert.Equal(t, "Unmuted", res.Message)
}

func TestDispatch_WifiAcceptsBothFlagNames(t *testing.T) {
	d, fake := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{
		Action: "wifi",
		Params: map[string]any{"enabled": false},
	})
	assert.True(t, res.Success)
	assert.False(t, fake.Wifi)

	res = d.Execute(context.Background(), Descriptor{
		Action: "wifi",
		Params: map[string]any{"enable": true},
	})
	assert.True(t, res.Success)
	assert.True(t, fake.Wifi)
}

func TestDispatch_DeviceFailure(t *testing.T) {
	d, fake := newTestDispatcher(t)
	fake.FailAll = true

	res := d.Execute(context.Background(), Descriptor{
		Action: "volume",
		Params: map[string]any{"level": float64(30)},
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "device unavailable")
}

func TestDispatch_ShutdownConfirmation(t *testing.T) {
	fake := device.NewFake()
	d := NewDispatcher(fake, true, nil)

	res := d.Execute(context.Background(), Descriptor{Action: "shutdown"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "confirmation")
	assert.Empty(t, fake.PowerActions)

	res = d.Execute(context.Background(), Descriptor{
		Action: "shutdown",
		Params: map[string]any{"confirmed": true},
	})
	assert.True(t, res.Success)
	assert.Equal(t, []string{"shutdown"}, fake.PowerActions)
}

func TestDispatch_Reboot(t *testing.T) {
	d, fake := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{
		Action: "shutdown",
		Params: map[string]any{"reboot": true},
	})
	assert.True(t, res.Success)
	assert.Equal(t, []string{"reboot"}, fake.PowerActions)
	assert.Contains(t, res.Message, "Reboot")
}

func TestDispatch_InfoReturnsData(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), Descriptor{Action: "info"})
	require.True(t, res.Success)
	info, ok := res.Data.(device.SystemInfo)
	require.True(t, ok)
	assert.Equal(t, "testhost", info.Hostname)
	assert.NotZero(t, info.MemoryMB)

	res = d.Execute(context.Background(), Descriptor{
		Action: "info",
		Params: map[string]any{"type": "battery"},
	})
	require.True(t, res.Success)
	battery, ok := res.Data.(device.BatteryStatus)
	require.True(t, ok)
	assert.True(t, battery.Available)

	res = d.Execute(context.Background(), Descriptor{
		Action: "info",
		Params: map[string]any{"type": "nonsense"},
	})
	assert.False(t, res.Success)
}

func TestDescriptor_UnmarshalFlat(t *testing.T) {
	var desc Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"action":"brightness","level":80}`), &desc))
	assert.Equal(t, "brightness", desc.Action)
	level, ok := desc.intParam("level")
	assert.True(t, ok)
	assert.Equal(t, 80, level)
}

func TestDescriptor_UnmarshalNested(t *testing.T) {
	var desc Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"action":"volume","params":{"level":30}}`), &desc))
	assert.Equal(t, "volume", desc.Action)
	level, ok := desc.intParam("level")
	assert.True(t, ok)
	assert.Equal(t, 30, level)
}

func TestDescriptor_UnmarshalMissingAction(t *testing.T) {
	var desc Descriptor
	err := json.Unmarshal([]byte(`{"level":80}`), &desc)
	assert.Error(t, err)
}
