package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/wix"
)

const (
	ActionLogged  = "logged"
	ActionIgnored = "ignored"
)

// Event types with a handler. Each is only acknowledged and logged for now;
// the inbound direction does not change item records.
const (
	EventOrderPaid        = "OrderPaid"
	EventOrderCreated     = "OrderCreated"
	EventProductChanged   = "ProductChanged"
	EventProductDeleted   = "ProductDeleted"
	EventInventoryChanged = "InventoryChanged"
)

// entityField is the data field that identifies the subject of each event.
var entityField = map[string]string{
	EventOrderPaid:        "id",
	EventOrderCreated:     "id",
	EventProductChanged:   "id",
	EventProductDeleted:   "id",
	EventInventoryChanged: "productId",
}

// Recorder writes the inbound integration log entry.
type Recorder interface {
	RecordInbound(ctx context.Context, event *wix.Event, action string)
}

type Reply struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Action    string `json:"action,omitempty"`
}

type Response struct {
	StatusCode int
	Body       Reply
}

type Intake struct {
	settings *config.Store
	recorder Recorder
	logger   *logger.Logger
}

func NewIntake(settings *config.Store, recorder Recorder, logger *logger.Logger) *Intake {
	return &Intake{settings: settings, recorder: recorder, logger: logger}
}

// Handle verifies and dispatches one webhook delivery. Nothing from an
// unverified body is logged or parsed.
func (i *Intake) Handle(ctx context.Context, body []byte, header http.Header) Response {
	secret := i.settings.Current().WebhookSecret
	if !wix.VerifySignature(body, wix.SignatureFrom(header), secret) {
		i.logger.Warn("webhook rejected: bad signature")
		return Response{
			StatusCode: http.StatusUnauthorized,
			Body:       Reply{Status: "error", Message: "unauthorized"},
		}
	}

	event, err := wix.ParseEvent(body, header.Get(wix.EventTypeHeader))
	if err != nil {
		message := "invalid payload"
		if errors.Is(err, wix.ErrMissingEventType) {
			message = "missing event type"
		}
		i.logger.Warn("webhook rejected: %v", err)
		return Response{
			StatusCode: http.StatusBadRequest,
			Body:       Reply{Status: "error", Message: message},
		}
	}

	action := ActionIgnored
	if field, ok := entityField[event.EventType]; ok {
		action = ActionLogged
		if event.EntityID == "" {
			event.EntityID = dataField(event.Data, field)
		}
		i.logger.Info("Received webhook %s for %s", event.EventType, event.EntityID)
	} else {
		i.logger.Info("Ignoring unhandled webhook event type %s", event.EventType)
	}

	i.recorder.RecordInbound(ctx, event, action)

	return Response{
		StatusCode: http.StatusOK,
		Body:       Reply{Status: "ok", EventType: event.EventType, Action: action},
	}
}

func dataField(data json.RawMessage, field string) string {
	if len(data) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	if v, ok := fields[field].(string); ok {
		return v
	}
	return ""
}
