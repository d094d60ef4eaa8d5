package models

import "fmt"

// NotFoundError 房间或房间内设备不存在，原状态不变
// DeviceID 为空表示房间本身不存在
type NotFoundError struct {
	RoomID   string
	DeviceID string
}

func (e *NotFoundError) Error() string {
	if e.DeviceID == "" {
		return fmt.Sprintf("room %s not found", e.RoomID)
	}
	return fmt.Sprintf("device %s not found in room %s", e.DeviceID, e.RoomID)
}

// DeviceCommandError 设备指令下发或确认失败，本地状态已回滚到切换前
// 与 NotFoundError 严格区分：设备存在但硬件指令没有成功
type DeviceCommandError struct {
	RoomID   string
	DeviceID string
	Reason   string
	Err      error
}

func (e *DeviceCommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device command failed for %s in room %s: %s: %v", e.DeviceID, e.RoomID, e.Reason, e.Err)
	}
	return fmt.Sprintf("device command failed for %s in room %s: %s", e.DeviceID, e.RoomID, e.Reason)
}

func (e *DeviceCommandError) Unwrap() error { return e.Err }
