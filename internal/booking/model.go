package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prepmatch/mentor-booking/internal/pricing"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending_payment"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Mentor struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Headline    *string
	Tier        pricing.Tier
	SessionRate decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Candidate struct {
	ID            uuid.UUID
	Name          string
	Email         string
	TargetProfile *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Package groups the three sessions of one booking with a single computed
// price. Amounts are fixed at creation time and never recomputed.
type Package struct {
	ID            uuid.UUID
	CandidateID   uuid.UUID
	MentorID      uuid.UUID
	TargetProfile string
	TotalAmount   decimal.Decimal
	PlatformFee   decimal.Decimal
	MentorPayout  decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventLog struct {
	ID        int64
	EventType string
	SessionID *uuid.UUID
	PackageID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
