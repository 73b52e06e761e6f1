package models

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending     OrderStatus = "pending"
	StatusReady       OrderStatus = "ready"
	StatusDelivered   OrderStatus = "delivered"
	StatusTransferred OrderStatus = "transferred"
)

// StatusChangedPrefix prefixes the action tag of every status-change log entry
const StatusChangedPrefix = "status_changed:"

// OrderStatuses lists every valid status in display order
var OrderStatuses = []OrderStatus{StatusPending, StatusReady, StatusDelivered, StatusTransferred}

// statusTransitions allows every status to move to every other, including
// delivered back to pending when a hand-off is corrected.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:     OrderStatuses,
	StatusReady:       OrderStatuses,
	StatusDelivered:   OrderStatuses,
	StatusTransferred: OrderStatuses,
}

// ParseOrderStatus validates a raw status value
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q, must be one of pending, ready, delivered, transferred", raw)
	}
	return status, nil
}

// Valid reports whether s is one of the four known statuses
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether an order in status s may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusChangedAction returns the audit action tag for a transition into s
func (s OrderStatus) StatusChangedAction() string {
	return StatusChangedPrefix + string(s)
}

// Settled reports whether orders in this status no longer count toward pending work
func (s OrderStatus) Settled() bool {
	return s == StatusDelivered || s == StatusTransferred
}
