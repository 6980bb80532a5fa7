// workflow/events.go
package workflow

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusChanged is published after a status transition commits. The
// old status is empty for the initial submission.
type StatusChanged struct {
	ApplicationID     primitive.ObjectID
	ApplicationNumber string
	UserID            primitive.ObjectID
	VisaTypeID        primitive.ObjectID
	OldStatus         string
	NewStatus         string
	ChangedBy         primitive.ObjectID
	Notes             string
	OccurredAt        time.Time
}

// Subscriber receives committed status changes. Delivery is
// asynchronous and best effort; a subscriber failure never unwinds the
// transition.
type Subscriber interface {
	HandleStatusChanged(ctx context.Context, ev StatusChanged)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, ev StatusChanged)

func (f SubscriberFunc) HandleStatusChanged(ctx context.Context, ev StatusChanged) {
	f(ctx, ev)
}
