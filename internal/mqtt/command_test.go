package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandTopic(t *testing.T) {
	assert.Equal(t, "bedside/room/room-101/device/dev-1/command", CommandTopic("room-101", "dev-1"))
	assert.Equal(t, "bedside/room/room-101/device/dev-1/ack", AckTopic("room-101", "dev-1"))
}

func TestParseAckTopic(t *testing.T) {
	roomID, deviceID, err := ParseAckTopic("bedside/room/room-101/device/dev-1/ack")
	assert.NoError(t, err)
	assert.Equal(t, "room-101", roomID)
	assert.Equal(t, "dev-1", deviceID)
}

func TestParseAckTopic_Rejects(t *testing.T) {
	badTopics := []string{
		"bedside/room/room-101/device/dev-1/command",
		"bedside/room/room-101/device/dev-1",
		"other/room/room-101/device/dev-1/ack",
		"bedside/unit/room-101/device/dev-1/ack",
		"",
	}

	for _, topic := range badTopics {
		_, _, err := ParseAckTopic(topic)
		assert.Error(t, err, "topic %q should be rejected", topic)
	}
}
