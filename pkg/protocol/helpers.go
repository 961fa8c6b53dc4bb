package protocol

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-fieldnav/pkg/field"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewScanMessage creates a scan message from a frame
func NewScanMessage(frame field.ScanFrame, seq uint64) (*Message, error) {
	return NewMessage(TypeScan, ScanFromFrame(frame, seq))
}

// NewGoalMessage creates a goal message
func NewGoalMessage(goal GoalData) (*Message, error) {
	return NewMessage(TypeGoal, goal)
}

// NewCancelMessage creates a cancel message
func NewCancelMessage(id string) (*Message, error) {
	return NewMessage(TypeCancel, CancelData{ID: id})
}

// NewGoalStatusMessage creates a goal status message
func NewGoalStatusMessage(id, status, text string) (*Message, error) {
	return NewMessage(TypeGoalStatus, GoalStatusData{ID: id, Status: status, Text: text})
}

// NewMarkersMessage creates a marker array message
func NewMarkersMessage(markers []Marker) (*Message, error) {
	return NewMessage(TypeMarkers, MarkersData{Markers: markers})
}

// NewPingMessage creates a ping stamped with the current time
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetScanData extracts scan data from a message
func (m *Message) GetScanData() (*ScanData, error) {
	if m.Type != TypeScan {
		return nil, fmt.Errorf("expected scan message, got %s", m.Type)
	}
	var data ScanData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGoalData extracts goal data from a message
func (m *Message) GetGoalData() (*GoalData, error) {
	if m.Type != TypeGoal {
		return nil, fmt.Errorf("expected goal message, got %s", m.Type)
	}
	var data GoalData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCancelData extracts cancel data from a message
func (m *Message) GetCancelData() (*CancelData, error) {
	if m.Type != TypeCancel {
		return nil, fmt.Errorf("expected cancel message, got %s", m.Type)
	}
	var data CancelData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGoalStatusData extracts goal status from a message
func (m *Message) GetGoalStatusData() (*GoalStatusData, error) {
	if m.Type != TypeGoalStatus {
		return nil, fmt.Errorf("expected goal_status message, got %s", m.Type)
	}
	var data GoalStatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetMarkersData extracts markers from a message
func (m *Message) GetMarkersData() (*MarkersData, error) {
	if m.Type != TypeMarkers {
		return nil, fmt.Errorf("expected markers message, got %s", m.Type)
	}
	var data MarkersData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ScanFromFrame converts a frame to its wire form.
func ScanFromFrame(frame field.ScanFrame, seq uint64) ScanData {
	return ScanData{
		Seq:            seq,
		AngleMin:       frame.AngleMin,
		AngleMax:       frame.AngleMax,
		AngleIncrement: frame.AngleIncrement,
		Ranges:         Ranges(frame.Ranges),
	}
}

// Frame converts the wire form to a field.ScanFrame.
func (s ScanData) Frame() field.ScanFrame {
	return field.ScanFrame{
		AngleMin:       s.AngleMin,
		AngleMax:       s.AngleMax,
		AngleIncrement: s.AngleIncrement,
		Ranges:         []float64(s.Ranges),
	}
}
