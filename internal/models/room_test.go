package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveDeviceCount_LiveRecomputation(t *testing.T) {
	room := RoomDeviceState{
		RoomID:   "room-1",
		RoomName: "Kitchen",
		Devices: []Device{
			{DeviceID: "d-1", Name: "Ceiling Light", Type: DeviceTypeLight, Status: DeviceOff},
			{DeviceID: "d-2", Name: "Exhaust Fan", Type: DeviceTypeFan, Status: DeviceOff},
			{DeviceID: "d-3", Name: "Speaker", Type: DeviceTypeEntertainment, Status: DeviceOff},
		},
	}

	assert.Equal(t, 0, room.ActiveDeviceCount())

	room.Devices[1].Status = DeviceOn
	assert.Equal(t, 1, room.ActiveDeviceCount())

	room.Devices[0].Status = DeviceOn
	room.Devices[2].Status = DeviceOn
	assert.Equal(t, 3, room.ActiveDeviceCount())
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{
			name:   "off device",
			device: Device{Type: DeviceTypeLight, Status: DeviceOff, Properties: map[string]any{PropBrightness: 80}},
			want:   "Off",
		},
		{
			name:   "light on with brightness",
			device: Device{Type: DeviceTypeLight, Status: DeviceOn, Properties: map[string]any{PropBrightness: 80}},
			want:   "On • 80%",
		},
		{
			name:   "light on without brightness",
			device: Device{Type: DeviceTypeLight, Status: DeviceOn},
			want:   "On",
		},
		{
			name:   "climate on with temperature",
			device: Device{Type: DeviceTypeClimate, Status: DeviceOn, Properties: map[string]any{PropTemperature: 21.5}},
			want:   "On • 21.5°",
		},
		{
			name:   "climate on with integral temperature",
			device: Device{Type: DeviceTypeClimate, Status: DeviceOn, Properties: map[string]any{PropTemperature: 22}},
			want:   "On • 22°",
		},
		{
			name:   "fan on with speed",
			device: Device{Type: DeviceTypeFan, Status: DeviceOn, Properties: map[string]any{PropSpeed: 3}},
			want:   "On • Speed 3",
		},
		{
			name:   "fan on without speed",
			device: Device{Type: DeviceTypeFan, Status: DeviceOn},
			want:   "On",
		},
		{
			name:   "generic device on",
			device: Device{Type: DeviceTypeGeneric, Status: DeviceOn},
			want:   "On",
		},
		{
			name:   "router on ignores unrelated properties",
			device: Device{Type: DeviceTypeRouter, Status: DeviceOn, Properties: map[string]any{PropBrightness: 50}},
			want:   "On",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.device.StatusText())
		})
	}
}

// JSON 反序列化后的属性是 float64，状态文案仍要正确
func TestStatusText_AfterJSONRoundTrip(t *testing.T) {
	raw := `{"device_id":"d-1","name":"Desk Lamp","type":"light","status":"on","properties":{"brightness":65}}`

	var d Device
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, "On • 65%", d.StatusText())
}

func TestFindDevice(t *testing.T) {
	room := RoomDeviceState{
		RoomID: "room-1",
		Devices: []Device{
			{DeviceID: "d-1", Name: "Lamp", Type: DeviceTypeLight, Status: DeviceOff},
		},
	}

	d, ok := room.FindDevice("d-1")
	require.True(t, ok)
	assert.Equal(t, "Lamp", d.Name)

	_, ok = room.FindDevice("nope")
	assert.False(t, ok)

	// 返回的是副本，改它不影响房间状态
	d.Status = DeviceOn
	assert.Equal(t, DeviceOff, room.Devices[0].Status)
}

func TestRoomClone_Isolated(t *testing.T) {
	room := RoomDeviceState{
		RoomID: "room-1",
		Devices: []Device{
			{DeviceID: "d-1", Name: "Lamp", Type: DeviceTypeLight, Status: DeviceOff, Properties: map[string]any{PropBrightness: 40}},
		},
	}

	snapshot := room.Clone()
	snapshot.Devices[0].Status = DeviceOn
	snapshot.Devices[0].Properties[PropBrightness] = 100

	assert.Equal(t, DeviceOff, room.Devices[0].Status)
	assert.Equal(t, 40, room.Devices[0].Properties[PropBrightness])
}
