package store

import "strings"

// Redis key 约定
// - realtime 键由上游融合管线写入，本服务只读
// - snapshot 键保存最近一次成功构建的诊断快照（降级数据源）
// - pending 键保存乐观切换后等待 ack 的设备指令状态
const (
	residentKeyPrefix = "bedside:resident:"
	roomKeyPrefix     = "bedside:room:"

	realtimeSuffix = ":realtime"
	snapshotSuffix = ":snapshot"
	pendingSuffix  = ":pending"
)

func RealtimeKey(residentID string) string {
	return residentKeyPrefix + residentID + realtimeSuffix
}

func SnapshotKey(residentID string) string {
	return residentKeyPrefix + residentID + snapshotSuffix
}

// SnapshotKeyPattern 用于扫描所有已缓存快照（刷新循环据此找到活跃住户）
func SnapshotKeyPattern() string {
	return residentKeyPrefix + "*" + snapshotSuffix
}

// ResidentIDFromSnapshotKey 从 snapshot 键反解 residentID，格式不符返回空串
func ResidentIDFromSnapshotKey(key string) string {
	if !strings.HasPrefix(key, residentKeyPrefix) || !strings.HasSuffix(key, snapshotSuffix) {
		return ""
	}
	id := strings.TrimPrefix(key, residentKeyPrefix)
	id = strings.TrimSuffix(id, snapshotSuffix)
	if strings.Contains(id, ":") {
		return ""
	}
	return id
}

func PendingCommandKey(roomID, deviceID string) string {
	return roomKeyPrefix + roomID + ":device:" + deviceID + pendingSuffix
}
