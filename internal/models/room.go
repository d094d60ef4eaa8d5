package models

import "fmt"

// DeviceType 房间设备类型
type DeviceType string

const (
	DeviceTypeLight         DeviceType = "light"
	DeviceTypeClimate       DeviceType = "climate"
	DeviceTypeSecurity      DeviceType = "security"
	DeviceTypeEntertainment DeviceType = "entertainment"
	DeviceTypeFan           DeviceType = "fan"
	DeviceTypeRouter        DeviceType = "router"
	DeviceTypeGeneric       DeviceType = "generic"
)

// DeviceStatus 设备开关状态
type DeviceStatus string

const (
	DeviceOn  DeviceStatus = "on"
	DeviceOff DeviceStatus = "off"
)

// 类型相关属性的键名（Properties 里按需出现）
const (
	PropBrightness  = "brightness"  // 亮度 %（light）
	PropTemperature = "temperature" // 设定温度 °（climate）
	PropSpeed       = "speed"       // 档位（fan）
)

// Device 房间内的一个设备
type Device struct {
	DeviceID   string         `json:"device_id"` // 房间内唯一
	Name       string         `json:"name"`
	Type       DeviceType     `json:"type"`
	Status     DeviceStatus   `json:"status"`
	Properties map[string]any `json:"properties,omitempty"`
}

// StatusText 设备状态文案投影
// 开启且类型属性已知时带属性值；属性缺失时只给通用 "On"，绝不显示占位数字
func (d Device) StatusText() string {
	if d.Status != DeviceOn {
		return "Off"
	}
	switch d.Type {
	case DeviceTypeLight:
		if v, ok := numberProp(d.Properties, PropBrightness); ok {
			return fmt.Sprintf("On • %.0f%%", v)
		}
	case DeviceTypeClimate:
		if v, ok := numberProp(d.Properties, PropTemperature); ok {
			return fmt.Sprintf("On • %g°", v)
		}
	case DeviceTypeFan:
		if v, ok := numberProp(d.Properties, PropSpeed); ok {
			return fmt.Sprintf("On • Speed %.0f", v)
		}
	}
	return "On"
}

// numberProp 读取数值属性；JSON 反序列化的数字是 float64，直接赋值可能是 int
func numberProp(props map[string]any, key string) (float64, bool) {
	if props == nil {
		return 0, false
	}
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// RoomDeviceState 房间设备状态快照
type RoomDeviceState struct {
	RoomID   string   `json:"room_id"`
	RoomName string   `json:"room_name"`
	Devices  []Device `json:"devices"`
}

// ActiveDeviceCount 开启设备数：每次从设备列表现算，不缓存计数器
func (r RoomDeviceState) ActiveDeviceCount() int {
	count := 0
	for _, d := range r.Devices {
		if d.Status == DeviceOn {
			count++
		}
	}
	return count
}

// FindDevice 按 ID 查找设备，返回副本与是否命中
func (r RoomDeviceState) FindDevice(deviceID string) (Device, bool) {
	for _, d := range r.Devices {
		if d.DeviceID == deviceID {
			return d.clone(), true
		}
	}
	return Device{}, false
}

// Clone 深拷贝（设备切片与属性 map 全部复制），调用方可安全持有
func (r RoomDeviceState) Clone() RoomDeviceState {
	next := r
	next.Devices = make([]Device, len(r.Devices))
	for i, d := range r.Devices {
		next.Devices[i] = d.clone()
	}
	return next
}

func (d Device) clone() Device {
	next := d
	if d.Properties != nil {
		next.Properties = make(map[string]any, len(d.Properties))
		for k, v := range d.Properties {
			next.Properties[k] = v
		}
	}
	return next
}
