package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Role is the closed set of principal roles. It is validated once at the
// auth boundary and trusted everywhere else.
type Role string

const (
	RoleUser     Role = "user"     // customer submitting service requests
	RoleMechanic Role = "mechanic" // shop employee working requests
	RoleAdmin    Role = "admin"    // shop owner claiming and delegating requests
)

// ValidRole reports whether the given string is a known role.
func ValidRole(role string) bool {
	switch Role(role) {
	case RoleUser, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

// MechanicProfile holds the role-dependent profile bag. Only meaningful
// for mechanics but structurally present on every user.
type MechanicProfile struct {
	Specialties     datatypes.JSON `json:"specialties,omitempty"`
	Rating          float64        `json:"rating"`
	CompletedJobs   int            `json:"completed_jobs"`
	YearsExperience int            `json:"years_experience"`
}

// SpecialtiesList decodes the specialties JSON column into a string slice
func (p *MechanicProfile) SpecialtiesList() []string {
	if len(p.Specialties) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.Specialties, &out); err != nil {
		return nil
	}
	return out
}

// SetSpecialties encodes a string slice into the specialties JSON column
func (p *MechanicProfile) SetSpecialties(specialties []string) error {
	b, err := json.Marshal(specialties)
	if err != nil {
		return err
	}
	p.Specialties = datatypes.JSON(b)
	return nil
}

// User represents any principal in the system: customer, mechanic, or shop admin
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash, never serialized
	Name     string `gorm:"not null" json:"name"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `gorm:"not null;default:'user'" json:"role"`
	// ShopID links a mechanic to the admin whose shop employs them.
	// Set only when Role is mechanic.
	ShopID *uint `gorm:"index" json:"shop_id,omitempty"`
	// ShopName is the human label for an admin's shop. Set only when Role is admin.
	ShopName string `json:"shop_name,omitempty"`
	// IsActive is the soft-delete flag. Deactivated accounts are excluded
	// from listings but keep their historical linkage.
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	Profile   MechanicProfile `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
