package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a state-machine operation is invoked
// from a state that does not allow it. Entity state is left unchanged.
var ErrInvalidTransition = errors.New("invalid status transition")

// PackageStatus is the delivery lifecycle of a package. Transitions are
// monotonic: Pending -> Assigned -> InTransit -> Delivered.
type PackageStatus string

const (
	PackagePending   PackageStatus = "pending"
	PackageAssigned  PackageStatus = "assigned"
	PackageInTransit PackageStatus = "in_transit"
	PackageDelivered PackageStatus = "delivered"
)

// Package is a single delivery unit moving from a pickup to a dropoff.
// AssignedTo is set exactly when the package has left the pending state.
type Package struct {
	ID         string        `json:"id"`
	Pickup     Location      `json:"pickup"`
	Dropoff    Location      `json:"dropoff"`
	CreatedAt  time.Time     `json:"created_at"`
	AssignedTo string        `json:"assigned_to,omitempty"`
	Status     PackageStatus `json:"status"`
	Priority   int           `json:"priority"`
}

func NewPackage(id string, pickup, dropoff Location, priority int) *Package {
	return &Package{
		ID:        id,
		Pickup:    pickup,
		Dropoff:   dropoff,
		CreatedAt: time.Now().UTC(),
		Status:    PackagePending,
		Priority:  priority,
	}
}

// MarkAssigned records the owning driver. Valid only from Pending.
func (p *Package) MarkAssigned(driverID string) error {
	if p.Status != PackagePending {
		return fmt.Errorf("mark assigned: package %s is %s: %w", p.ID, p.Status, ErrInvalidTransition)
	}
	p.AssignedTo = driverID
	p.Status = PackageAssigned
	return nil
}

// MarkInTransit records the pickup. Valid only from Assigned.
func (p *Package) MarkInTransit() error {
	if p.Status != PackageAssigned {
		return fmt.Errorf("mark in transit: package %s is %s: %w", p.ID, p.Status, ErrInvalidTransition)
	}
	p.Status = PackageInTransit
	return nil
}

// MarkDelivered records the dropoff. Valid only from InTransit.
func (p *Package) MarkDelivered() error {
	if p.Status != PackageInTransit {
		return fmt.Errorf("mark delivered: package %s is %s: %w", p.ID, p.Status, ErrInvalidTransition)
	}
	p.Status = PackageDelivered
	return nil
}

// Clone returns an independent copy for snapshot consumers.
func (p *Package) Clone() *Package {
	cp := *p
	return &cp
}
