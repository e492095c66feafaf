package enums

import "fmt"

// DeliveryStatus tracks physical fulfilment progress for a delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "pending"
	DeliveryStatusConfirmed      DeliveryStatus = "confirmed"
	DeliveryStatusReadyForPickup DeliveryStatus = "ready_for_pickup"
	DeliveryStatusPickedUp       DeliveryStatus = "picked_up"
	DeliveryStatusInTransit      DeliveryStatus = "in_transit"
	DeliveryStatusDelivered      DeliveryStatus = "delivered"
	DeliveryStatusCancelled      DeliveryStatus = "cancelled"
	DeliveryStatusFailed         DeliveryStatus = "failed"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusConfirmed,
	DeliveryStatusReadyForPickup,
	DeliveryStatusPickedUp,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
	DeliveryStatusFailed,
}

// happyPath lists the forward transitions an operator normally makes.
// Cancelled and Failed are reachable from every non-terminal status.
var happyPath = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:        {DeliveryStatusConfirmed},
	DeliveryStatusConfirmed:      {DeliveryStatusReadyForPickup, DeliveryStatusPickedUp},
	DeliveryStatusReadyForPickup: {DeliveryStatusPickedUp, DeliveryStatusInTransit},
	DeliveryStatusPickedUp:       {DeliveryStatusInTransit},
	DeliveryStatusInTransit:      {DeliveryStatusDelivered},
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further progress is expected.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusCancelled, DeliveryStatusFailed:
		return true
	}
	return false
}

// Next returns the statuses the happy path allows after s.
func (s DeliveryStatus) Next() []DeliveryStatus {
	if s.IsTerminal() || !s.IsValid() {
		return nil
	}
	next := append([]DeliveryStatus{}, happyPath[s]...)
	return append(next, DeliveryStatusCancelled, DeliveryStatusFailed)
}

// Follows reports whether moving from s to target stays on the happy path.
// Delivery updates do not enforce this; it is advisory for operators.
func (s DeliveryStatus) Follows(target DeliveryStatus) bool {
	for _, candidate := range s.Next() {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
