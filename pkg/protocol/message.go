// Package protocol defines the WebSocket message types exchanged between the
// robot and the field navigation controller.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Robot → Controller messages
	TypeScan       MessageType = "scan"        // Planar range scan
	TypeGoalStatus MessageType = "goal_status" // Goal execution feedback

	// Controller → Robot messages
	TypeGoal   MessageType = "goal"   // Navigation goal, replaces any outstanding goal
	TypeCancel MessageType = "cancel" // Cancel a goal

	// Controller → Dashboard messages
	TypeMarkers MessageType = "markers" // Field visualization markers

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Robot → Controller Message Types
// =============================================================================

// ScanData is one planar range scan.
type ScanData struct {
	Seq            uint64  `json:"seq,omitempty"`
	AngleMin       float64 `json:"angle_min"`
	AngleMax       float64 `json:"angle_max"`
	AngleIncrement float64 `json:"angle_increment"`
	Ranges         Ranges  `json:"ranges"`
}

// Goal execution states reported in GoalStatusData.
const (
	GoalActive    = "active"
	GoalSucceeded = "succeeded"
	GoalAborted   = "aborted"
	GoalPreempted = "preempted"
	GoalRejected  = "rejected"
)

// GoalStatusData reports what the robot's executor did with a goal.
type GoalStatusData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
}

// =============================================================================
// Controller → Robot Message Types
// =============================================================================

// GoalData is a navigation goal in the robot's local frame.
type GoalData struct {
	ID          string     `json:"id"`
	FrameID     string     `json:"frame_id"`
	Stamp       int64      `json:"stamp"` // Unix milliseconds
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// CancelData cancels the goal with the given ID. An empty ID cancels all.
type CancelData struct {
	ID string `json:"id,omitempty"`
}

// =============================================================================
// Controller → Dashboard Message Types
// =============================================================================

// Marker is one visualization arrow.
type Marker struct {
	NS          string     `json:"ns"`
	ID          int        `json:"id"`
	Type        int        `json:"type"` // 0 = arrow
	FrameID     string     `json:"frame_id"`
	Stamp       int64      `json:"stamp"` // Unix milliseconds
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
	Scale       Point      `json:"scale"`
	Color       Color      `json:"color"`
	LifetimeMs  int64      `json:"lifetime_ms"`
	FrameLocked bool       `json:"frame_locked"`
}

// MarkersData is a marker array.
type MarkersData struct {
	Markers []Marker `json:"markers"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
