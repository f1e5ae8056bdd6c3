package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceRequest lifecycle states. Completed and cancelled are terminal.
const (
	StatusPending     = "pending"
	StatusAdminReview = "admin-review"
	StatusAssigned    = "assigned"
	StatusInProgress  = "in-progress"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// Urgency levels for a service request
const (
	UrgencyLow       = "low"
	UrgencyMedium    = "medium"
	UrgencyHigh      = "high"
	UrgencyEmergency = "emergency"
)

// BaseFees maps each service type to its fixed base fee in USD.
// The service fee is 10% of the base fee, rounded to the nearest dollar.
var BaseFees = map[string]float64{
	"battery":    45,
	"tires":      85,
	"towing":     120,
	"lockout":    60,
	"engine":     150,
	"brakes":     200,
	"electrical": 100,
	"other":      75,
}

// ValidServiceType reports whether the given service type is known
func ValidServiceType(serviceType string) bool {
	_, ok := BaseFees[serviceType]
	return ok
}

// ValidUrgency reports whether the given urgency level is known
func ValidUrgency(urgency string) bool {
	switch urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// ServiceDetail describes what the customer needs. Immutable after creation.
type ServiceDetail struct {
	Type        string `gorm:"not null" json:"type"`
	Description string `gorm:"not null" json:"description"`
	Urgency     string `gorm:"not null;default:'medium'" json:"urgency"`
}

// Vehicle is a descriptive snapshot captured at creation
type Vehicle struct {
	Make         string `gorm:"not null" json:"make"`
	Model        string `gorm:"not null" json:"model"`
	Year         int    `gorm:"not null" json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
}

// Location is where the vehicle is stranded, captured at creation
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `gorm:"not null" json:"address"`
	Landmark  string  `json:"landmark,omitempty"`
}

// Timeline records when each lifecycle transition happened.
// Each timestamp is set exactly once, at the moment of the transition.
type Timeline struct {
	Requested time.Time  `json:"requested"`
	Assigned  *time.Time `json:"assigned,omitempty"`
	Started   *time.Time `json:"started,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
	Cancelled *time.Time `json:"cancelled,omitempty"`
}

// Pricing is computed from the base-fee table at creation. Total must
// always equal baseFee + serviceFee + additionalCharges.
type Pricing struct {
	BaseFee           float64 `json:"base_fee"`
	ServiceFee        float64 `json:"service_fee"`
	AdditionalCharges float64 `json:"additional_charges"`
	Total             float64 `json:"total"`
	Currency          string  `gorm:"default:'USD'" json:"currency"`
}

// Payment tracks how the job gets paid for. No payment endpoints exist
// yet; the block is carried for the record.
type Payment struct {
	Method        string `json:"method,omitempty"` // card, cash, digital
	Status        string `gorm:"default:'pending'" json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Rating is optional post-completion customer feedback
type Rating struct {
	Score  *int   `json:"score,omitempty"` // 1-5
	Review string `json:"review,omitempty"`
}

// ServiceRequest represents one roadside-assistance job from creation to resolution
type ServiceRequest struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// RequestID is the externally visible identifier, generated at creation
	RequestID string `gorm:"uniqueIndex" json:"request_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	// AdminID is the shop that claimed the request; absent until claimed
	AdminID *uint `gorm:"index" json:"admin_id,omitempty"`
	Admin   *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	// MechanicID is the employee actually working the job; absent until
	// assignment or mechanic self-acceptance
	MechanicID *uint          `gorm:"index" json:"mechanic_id,omitempty"`
	Mechanic   *User          `gorm:"foreignKey:MechanicID" json:"mechanic,omitempty"`
	Service    ServiceDetail  `gorm:"embedded;embeddedPrefix:service_" json:"service"`
	Vehicle    Vehicle        `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicle"`
	Location   Location       `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Status     string         `gorm:"not null;default:'pending';index" json:"status"`
	Timeline   Timeline       `gorm:"embedded;embeddedPrefix:timeline_" json:"timeline"`
	Pricing    Pricing        `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	Payment    Payment        `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Rating     Rating         `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	Notes      string         `json:"notes,omitempty"`
	Images     datatypes.JSON `json:"images,omitempty"` // S3 keys of attached photos
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the ServiceRequest model
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// BeforeCreate generates the unique request ID and stamps the requested
// time if the caller has not set them
func (r *ServiceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestID == "" {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
		r.RequestID = fmt.Sprintf("REQ-%d-%s", time.Now().UnixMilli(), suffix)
	}
	if r.Timeline.Requested.IsZero() {
		r.Timeline.Requested = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Payment.Status == "" {
		r.Payment.Status = "pending"
	}
	return nil
}

// ComputePricing builds the pricing block for a new request from the
// base-fee table. Unknown service types fall back to the "other" fee.
func ComputePricing(serviceType string) Pricing {
	baseFee, ok := BaseFees[serviceType]
	if !ok {
		baseFee = BaseFees["other"]
	}
	serviceFee := math.Round(baseFee * 0.10)
	return Pricing{
		BaseFee:           baseFee,
		ServiceFee:        serviceFee,
		AdditionalCharges: 0,
		Total:             baseFee + serviceFee,
		Currency:          "USD",
	}
}
