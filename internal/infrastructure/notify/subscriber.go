package notify

import (
	"context"

	"github.com/homeshine/conflict-engine/internal/application/dispatcher"
	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/event"
)

// notifiedEvents are the case lifecycle events forwarded to the hook.
var notifiedEvents = []event.Type{
	event.TypeAppealSubmitted,
	event.TypeAppealAssigned,
	event.TypeAppealResolved,
	event.TypeAdjustmentResolved,
	event.TypeRefundCompleted,
	event.TypePayoutCompleted,
}

// Subscribe registers the notification hook on the dispatcher for every
// case lifecycle event. Handler errors are logged and dropped by the
// dispatcher, keeping notification failures out of case processing.
func Subscribe(d dispatcher.Dispatcher, hook port.NotificationHook) {
	handler := func(ctx context.Context, evt *event.Event) error {
		payload := map[string]interface{}{
			"case_id":     evt.CaseID,
			"case_number": evt.CaseNumber,
		}
		for k, v := range evt.Payload {
			payload[k] = v
		}
		return hook.Notify(ctx, evt.Type.String(), payload)
	}

	for _, t := range notifiedEvents {
		d.Subscribe(t, "notification-webhook", handler)
	}
}
