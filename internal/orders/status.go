package orders

import "github.com/PLManuel/Mitikas-sub000/internal/fault"

type Status string

const (
	StatusSubmitted      Status = "submitted"
	StatusPreparing      Status = "preparing"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusEnRoute        Status = "en_route"
	StatusDelivered      Status = "delivered"
)

// The fulfillment graph. The allow-list of reachable targets is derived
// from here, so a state cannot silently drop out of the public endpoint.
var validNext = map[Status]map[Status]bool{
	StatusSubmitted:      {StatusPreparing: true},
	StatusPreparing:      {StatusReadyForPickup: true, StatusEnRoute: true},
	StatusReadyForPickup: {StatusDelivered: true},
	StatusEnRoute:        {StatusDelivered: true},
	StatusDelivered:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ParseTarget accepts only statuses reachable through some transition.
func ParseTarget(s string) (Status, error) {
	target := Status(s)
	for _, next := range validNext {
		if next[target] {
			return target, nil
		}
	}
	return "", fault.Invalid("unknown or unreachable status %q", s)
}
