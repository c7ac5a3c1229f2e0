package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Reasons carried by a refresh message.
const (
	ReasonReceiptAdded    = "receipt_added"
	ReasonMaterialChanged = "material_changed"
	ReasonManual          = "manual"
)

// RoutingKeyReportRefresh names the event on the exchange.
const RoutingKeyReportRefresh = "report.refresh"

// ReportRefreshMessage asks the worker to rebuild the Reports sheet. It
// carries no report data: the worker always recomputes from a full scan.
type ReportRefreshMessage struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportRefreshMessage(reason, actor string) *ReportRefreshMessage {
	return &ReportRefreshMessage{
		ID:        uuid.NewString(),
		Reason:    reason,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ReportRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRefreshMessageFromJSON decodes a message. A body without an ID or
// reason is rejected.
func ReportRefreshMessageFromJSON(data []byte) (*ReportRefreshMessage, error) {
	var msg ReportRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Reason == "" {
		return nil, errMalformed
	}
	return &msg, nil
}
