package mqtt

import (
	"fmt"
	"strings"
	"time"
)

// 设备指令走 MQTT：服务发布到 command 主题，设备回执到 ack 主题
//
//	bedside/room/{roomID}/device/{deviceID}/command
//	bedside/room/{roomID}/device/{deviceID}/ack

// AckSubscription 订阅全部设备的 ack
const AckSubscription = "bedside/room/+/device/+/ack"

// 指令动作
const (
	ActionSetStatus = "set_status"
	ParamStatus     = "status"
)

// DeviceCommand 下发给设备的指令
type DeviceCommand struct {
	RequestID  string            `json:"request_id"`
	DeviceID   string            `json:"device_id"`
	Action     string            `json:"action"`
	Parameters map[string]string `json:"parameters,omitempty"`
	IssuedAt   time.Time         `json:"issued_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// CommandAck 设备对指令的回执
type CommandAck struct {
	RequestID string `json:"request_id"`
	DeviceID  string `json:"device_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// CommandTopic 指令主题
func CommandTopic(roomID, deviceID string) string {
	return fmt.Sprintf("bedside/room/%s/device/%s/command", roomID, deviceID)
}

// AckTopic 回执主题
func AckTopic(roomID, deviceID string) string {
	return fmt.Sprintf("bedside/room/%s/device/%s/ack", roomID, deviceID)
}

// ParseAckTopic 从 ack 主题解析出 roomID 和 deviceID
func ParseAckTopic(topic string) (roomID, deviceID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 6 || parts[0] != "bedside" || parts[1] != "room" || parts[3] != "device" || parts[5] != "ack" {
		return "", "", fmt.Errorf("unexpected ack topic: %s", topic)
	}
	return parts[2], parts[4], nil
}
