package httpapi

import (
	"context"
	"errors"
	"net/http"

	"wisefido-bedside/internal/models"

	"go.uber.org/zap"
)

// RoomController 房间设备控制入口（*rooms.Controller 实现）
type RoomController interface {
	Room(ctx context.Context, roomID string) (models.RoomDeviceState, error)
	Toggle(ctx context.Context, roomID, deviceID string) (models.RoomDeviceState, error)
}

// DeviceView 设备投影：状态文案已按设备类型格式化
type DeviceView struct {
	DeviceID   string              `json:"device_id"`
	Name       string              `json:"name"`
	Type       models.DeviceType   `json:"type"`
	Status     models.DeviceStatus `json:"status"`
	StatusText string              `json:"status_text"`
	Properties map[string]any      `json:"properties,omitempty"`
}

// RoomView 房间详情页投影
type RoomView struct {
	RoomID            string       `json:"room_id"`
	RoomName          string       `json:"room_name"`
	ActiveDeviceCount int          `json:"active_device_count"`
	Devices           []DeviceView `json:"devices"`
}

// ToggleResult 切换成功的返回：翻转后的设备 + 最新房间快照
type ToggleResult struct {
	Device DeviceView `json:"device"`
	Room   *RoomView  `json:"room,omitempty"`
}

func toDeviceView(d models.Device) DeviceView {
	return DeviceView{
		DeviceID:   d.DeviceID,
		Name:       d.Name,
		Type:       d.Type,
		Status:     d.Status,
		StatusText: d.StatusText(),
		Properties: d.Properties,
	}
}

func toRoomView(room models.RoomDeviceState) RoomView {
	devices := make([]DeviceView, 0, len(room.Devices))
	for _, d := range room.Devices {
		devices = append(devices, toDeviceView(d))
	}
	return RoomView{
		RoomID:            room.RoomID,
		RoomName:          room.RoomName,
		ActiveDeviceCount: room.ActiveDeviceCount(),
		Devices:           devices,
	}
}

// RoomHandler 房间详情页 Handler
type RoomHandler struct {
	controller RoomController
	logger     *zap.Logger
}

// NewRoomHandler 创建房间详情页 Handler
func NewRoomHandler(controller RoomController, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{
		controller: controller,
		logger:     logger,
	}
}

// GetRoom 房间设备快照
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := h.controller.Room(r.Context(), roomID)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, Fail(err.Error()))
			return
		}
		h.logger.Error("Failed to load room",
			zap.Error(err),
			zap.String("room_id", roomID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toRoomView(room)))
}

// ToggleDevice 切换设备开关
// 成功返回翻转后的房间快照；指令失败时显示已回滚，连同回滚后的快照一起返回
func (h *RoomHandler) ToggleDevice(w http.ResponseWriter, r *http.Request, roomID, deviceID string) {
	room, err := h.controller.Toggle(r.Context(), roomID, deviceID)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, Fail(err.Error()))
			return
		}
		var cmdErr *models.DeviceCommandError
		if errors.As(err, &cmdErr) {
			h.logger.Warn("Device toggle failed",
				zap.Error(err),
				zap.String("room_id", roomID),
				zap.String("device_id", deviceID),
			)
			if rolledBack, roomErr := h.controller.Room(r.Context(), roomID); roomErr == nil {
				view := toRoomView(rolledBack)
				writeJSON(w, http.StatusBadGateway, FailWith(err.Error(), &view))
				return
			}
			writeJSON(w, http.StatusBadGateway, Fail(err.Error()))
			return
		}
		h.logger.Error("Device toggle failed",
			zap.Error(err),
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	view := toRoomView(room)
	result := ToggleResult{Room: &view}
	if device, ok := room.FindDevice(deviceID); ok {
		result.Device = toDeviceView(device)
	}
	writeJSON(w, http.StatusOK, Ok(result))
}
