// Package rooms 房间设备状态与开关指令
//
// 切换走乐观更新：界面立即翻转，指令经 MQTT 下发，设备 ack 确认后才落库；
// 下发失败、ack 失败或超时都把显示状态回滚到切换前。
package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/models"
	"wisefido-bedside/internal/mqtt"
	"wisefido-bedside/internal/repository"
	"wisefido-bedside/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher 指令发布入口（*mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// pendingToggle 一次在途切换：等待设备 ack 期间的全部恢复信息
type pendingToggle struct {
	RequestID    string              `json:"request_id"`
	RoomID       string              `json:"room_id"`
	DeviceID     string              `json:"device_id"`
	PrevStatus   models.DeviceStatus `json:"prev_status"`
	TargetStatus models.DeviceStatus `json:"target_status"`
	IssuedAt     time.Time           `json:"issued_at"`

	timer *time.Timer
}

// Controller 房间设备控制器
type Controller struct {
	repo      *repository.RoomRepository
	kv        store.KV
	publisher Publisher
	logger    *zap.Logger

	qos        byte
	ackTimeout time.Duration

	mu      sync.Mutex
	rooms   map[string]*models.RoomDeviceState
	pending map[string]*pendingToggle // key: roomID/deviceID
}

// NewController 创建控制器
func NewController(repo *repository.RoomRepository, kv store.KV, publisher Publisher, cfg *config.Config, logger *zap.Logger) *Controller {
	return &Controller{
		repo:       repo,
		kv:         kv,
		publisher:  publisher,
		logger:     logger,
		qos:        cfg.MQTT.QoS,
		ackTimeout: time.Duration(cfg.Bedside.AckTimeoutSec) * time.Second,
		rooms:      make(map[string]*models.RoomDeviceState),
		pending:    make(map[string]*pendingToggle),
	}
}

// Preload 启动时把全部房间装进内存（设备按房间批量加载）
func (c *Controller) Preload(ctx context.Context) error {
	roomList, err := c.repo.ListRooms()
	if err != nil {
		return fmt.Errorf("failed to preload rooms: %w", err)
	}

	roomIDs := make([]string, len(roomList))
	for i, room := range roomList {
		roomIDs[i] = room.RoomID
	}

	devicesByRoom, err := c.repo.GetDevicesForRooms(roomIDs)
	if err != nil {
		return fmt.Errorf("failed to preload room devices: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, room := range roomList {
		cached := room
		cached.Devices = devicesByRoom[room.RoomID]
		c.rooms[room.RoomID] = &cached
	}

	c.logger.Info("Preloaded room device states", zap.Int("room_count", len(roomList)))
	return nil
}

// Room 返回房间设备状态的副本（首次访问时从 PostgreSQL 装载）
func (c *Controller) Room(ctx context.Context, roomID string) (models.RoomDeviceState, error) {
	room, err := c.ensureRoom(ctx, roomID)
	if err != nil {
		return models.RoomDeviceState{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return room.Clone(), nil
}

// Toggle 切换设备开关
// 显示状态立即翻转并下发指令；返回翻转后的房间快照（设备数从设备列表现算）
func (c *Controller) Toggle(ctx context.Context, roomID, deviceID string) (models.RoomDeviceState, error) {
	if _, err := c.ensureRoom(ctx, roomID); err != nil {
		return models.RoomDeviceState{}, err
	}

	key := pendingKey(roomID, deviceID)
	requestID := uuid.New().String()
	now := time.Now().UTC()

	c.mu.Lock()
	room := c.rooms[roomID]
	idx := deviceIndex(room.Devices, deviceID)
	if idx < 0 {
		c.mu.Unlock()
		return models.RoomDeviceState{}, &models.NotFoundError{RoomID: roomID, DeviceID: deviceID}
	}
	if _, inFlight := c.pending[key]; inFlight {
		c.mu.Unlock()
		return models.RoomDeviceState{}, &models.DeviceCommandError{
			RoomID:   roomID,
			DeviceID: deviceID,
			Reason:   "toggle already in flight",
		}
	}

	device := &room.Devices[idx]
	prev := device.Status
	target := models.DeviceOn
	if prev == models.DeviceOn {
		target = models.DeviceOff
	}

	// 乐观翻转：不等设备确认
	device.Status = target

	pending := &pendingToggle{
		RequestID:    requestID,
		RoomID:       roomID,
		DeviceID:     deviceID,
		PrevStatus:   prev,
		TargetStatus: target,
		IssuedAt:     now,
	}
	pending.timer = time.AfterFunc(c.ackTimeout, func() {
		c.rollback(roomID, deviceID, requestID, "ack timeout")
	})
	c.pending[key] = pending

	snapshot := room.Clone()
	c.mu.Unlock()

	// 在途状态写 Redis（TTL 即 ack 超时），丢失只影响重启后的可见性
	if data, err := json.Marshal(pending); err == nil {
		if err := c.kv.Set(ctx, store.PendingCommandKey(roomID, deviceID), string(data), c.ackTimeout); err != nil {
			c.logger.Warn("Failed to cache pending command",
				zap.String("room_id", roomID),
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}
	}

	command := mqtt.DeviceCommand{
		RequestID: requestID,
		DeviceID:  deviceID,
		Action:    mqtt.ActionSetStatus,
		Parameters: map[string]string{
			mqtt.ParamStatus: string(target),
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ackTimeout),
	}
	payload, err := json.Marshal(command)
	if err != nil {
		c.rollback(roomID, deviceID, requestID, "command encode failed")
		return models.RoomDeviceState{}, &models.DeviceCommandError{
			RoomID: roomID, DeviceID: deviceID, Reason: "failed to encode command", Err: err,
		}
	}

	if err := c.publisher.Publish(mqtt.CommandTopic(roomID, deviceID), c.qos, false, payload); err != nil {
		c.rollback(roomID, deviceID, requestID, "publish failed")
		return models.RoomDeviceState{}, &models.DeviceCommandError{
			RoomID: roomID, DeviceID: deviceID, Reason: "failed to dispatch command", Err: err,
		}
	}

	c.logger.Info("Device command dispatched",
		zap.String("room_id", roomID),
		zap.String("device_id", deviceID),
		zap.String("request_id", requestID),
		zap.String("target_status", string(target)),
	)

	return snapshot, nil
}

// HandleAck 处理设备回执（订阅 mqtt.AckSubscription 后的回调）
func (c *Controller) HandleAck(topic string, payload []byte) error {
	roomID, deviceID, err := mqtt.ParseAckTopic(topic)
	if err != nil {
		return err
	}

	var ack mqtt.CommandAck
	if err := json.Unmarshal(payload, &ack); err != nil {
		return fmt.Errorf("failed to decode ack: %w", err)
	}

	key := pendingKey(roomID, deviceID)

	c.mu.Lock()
	pending, ok := c.pending[key]
	if !ok || pending.RequestID != ack.RequestID {
		c.mu.Unlock()
		// 超时后才到的回执：显示状态已回滚，迟到的确认不再采信
		c.logger.Warn("Ignoring stale device ack",
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
			zap.String("request_id", ack.RequestID),
		)
		return nil
	}

	delete(c.pending, key)
	if pending.timer != nil {
		pending.timer.Stop()
	}

	if !ack.Success {
		// 设备拒绝：回滚显示状态
		if room, cached := c.rooms[roomID]; cached {
			if idx := deviceIndex(room.Devices, deviceID); idx >= 0 && room.Devices[idx].Status == pending.TargetStatus {
				room.Devices[idx].Status = pending.PrevStatus
			}
		}
	}
	target := pending.TargetStatus
	c.mu.Unlock()

	if err := c.kv.Del(context.Background(), store.PendingCommandKey(roomID, deviceID)); err != nil {
		c.logger.Warn("Failed to clear pending command",
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}

	if !ack.Success {
		c.logger.Warn("Device rejected command, display rolled back",
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
			zap.String("request_id", ack.RequestID),
			zap.String("device_error", ack.Error),
		)
		return nil
	}

	// 确认成功才持久化
	if err := c.repo.UpdateDeviceStatus(roomID, deviceID, target); err != nil {
		c.logger.Error("Failed to persist confirmed device status",
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("Device toggle confirmed",
		zap.String("room_id", roomID),
		zap.String("device_id", deviceID),
		zap.String("request_id", ack.RequestID),
		zap.String("status", string(target)),
	)
	return nil
}

// ensureRoom 返回缓存的房间状态，必要时从 PostgreSQL 装载
func (c *Controller) ensureRoom(ctx context.Context, roomID string) (*models.RoomDeviceState, error) {
	c.mu.Lock()
	if room, ok := c.rooms[roomID]; ok {
		c.mu.Unlock()
		return room, nil
	}
	c.mu.Unlock()

	room, err := c.repo.GetRoom(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, &models.NotFoundError{RoomID: roomID}
	}

	devices, err := c.repo.GetRoomDevices(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room devices: %w", err)
	}
	room.Devices = devices

	c.mu.Lock()
	defer c.mu.Unlock()
	// 并发装载时保留先到的一份
	if cached, ok := c.rooms[roomID]; ok {
		return cached, nil
	}
	c.rooms[roomID] = room
	return room, nil
}

// rollback 撤销一次在途切换：显示状态恢复、挂起记录清除
// requestID 不匹配说明已被 ack 或更早的回滚处理过，直接忽略
func (c *Controller) rollback(roomID, deviceID, requestID, reason string) {
	key := pendingKey(roomID, deviceID)

	c.mu.Lock()
	pending, ok := c.pending[key]
	if !ok || pending.RequestID != requestID {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	if pending.timer != nil {
		pending.timer.Stop()
	}

	if room, cached := c.rooms[roomID]; cached {
		if idx := deviceIndex(room.Devices, deviceID); idx >= 0 && room.Devices[idx].Status == pending.TargetStatus {
			room.Devices[idx].Status = pending.PrevStatus
		}
	}
	c.mu.Unlock()

	if err := c.kv.Del(context.Background(), store.PendingCommandKey(roomID, deviceID)); err != nil {
		c.logger.Warn("Failed to clear pending command",
			zap.String("room_id", roomID),
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}

	c.logger.Warn("Device toggle rolled back",
		zap.String("room_id", roomID),
		zap.String("device_id", deviceID),
		zap.String("request_id", requestID),
		zap.String("reason", reason),
	)
}

func pendingKey(roomID, deviceID string) string {
	return roomID + "/" + deviceID
}

func deviceIndex(devices []models.Device, deviceID string) int {
	for i := range devices {
		if devices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}
