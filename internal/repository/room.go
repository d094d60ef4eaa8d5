package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-bedside/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// RoomRepository 房间与房内设备的读写
type RoomRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *sql.DB, logger *zap.Logger) *RoomRepository {
	return &RoomRepository{
		db:     db,
		logger: logger,
	}
}

// GetRoom 取房间基础信息；房间不存在返回 nil（不是错误）
func (r *RoomRepository) GetRoom(roomID string) (*models.RoomDeviceState, error) {
	query := `
		SELECT room_id, room_name
		FROM rooms
		WHERE room_id = $1
	`

	var room models.RoomDeviceState
	err := r.db.QueryRow(query, roomID).Scan(&room.RoomID, &room.RoomName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query room: %w", err)
	}

	return &room, nil
}

// GetRoomDevices 取房内设备列表（按设备名排序，properties 为 JSONB）
func (r *RoomRepository) GetRoomDevices(roomID string) ([]models.Device, error) {
	query := `
		SELECT
			device_id,
			device_name,
			device_type,
			status,
			properties
		FROM room_devices
		WHERE room_id = $1
		ORDER BY device_name
	`

	rows, err := r.db.Query(query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query room devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var device models.Device
		var deviceType, status string
		var properties sql.NullString

		if err := rows.Scan(
			&device.DeviceID,
			&device.Name,
			&deviceType,
			&status,
			&properties,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		device.Type = models.DeviceType(deviceType)
		device.Status = models.DeviceStatus(status)

		props, err := parseDeviceProperties(properties)
		if err != nil {
			return nil, err
		}
		device.Properties = props

		devices = append(devices, device)
	}

	return devices, nil
}

// GetDevicesForRooms 批量取多个房间的设备（服务启动预热用）
func (r *RoomRepository) GetDevicesForRooms(roomIDs []string) (map[string][]models.Device, error) {
	if len(roomIDs) == 0 {
		return map[string][]models.Device{}, nil
	}

	query := `
		SELECT
			room_id,
			device_id,
			device_name,
			device_type,
			status,
			properties
		FROM room_devices
		WHERE room_id = ANY($1)
		ORDER BY room_id, device_name
	`

	rows, err := r.db.Query(query, pq.Array(roomIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query devices for rooms: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.Device)
	for rows.Next() {
		var roomID string
		var device models.Device
		var deviceType, status string
		var properties sql.NullString

		if err := rows.Scan(
			&roomID,
			&device.DeviceID,
			&device.Name,
			&deviceType,
			&status,
			&properties,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		device.Type = models.DeviceType(deviceType)
		device.Status = models.DeviceStatus(status)

		props, err := parseDeviceProperties(properties)
		if err != nil {
			return nil, err
		}
		device.Properties = props

		result[roomID] = append(result[roomID], device)
	}

	return result, nil
}

// ListRooms 全部房间基础信息（预热批量加载的入口）
func (r *RoomRepository) ListRooms() ([]models.RoomDeviceState, error) {
	query := `
		SELECT room_id, room_name
		FROM rooms
		ORDER BY room_id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.RoomDeviceState
	for rows.Next() {
		var room models.RoomDeviceState
		if err := rows.Scan(&room.RoomID, &room.RoomName); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// UpdateDeviceStatus 持久化设备状态；只在收到确认的 ack 之后调用
func (r *RoomRepository) UpdateDeviceStatus(roomID, deviceID string, status models.DeviceStatus) error {
	query := `
		UPDATE room_devices
		SET status = $1, updated_at = NOW()
		WHERE room_id = $2 AND device_id = $3
	`

	result, err := r.db.Exec(query, string(status), roomID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("device %s not found in room %s", deviceID, roomID)
	}

	return nil
}

func parseDeviceProperties(raw sql.NullString) (map[string]interface{}, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var props map[string]interface{}
	if err := json.Unmarshal([]byte(raw.String), &props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device properties: %w", err)
	}

	return props, nil
}
