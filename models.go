package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role tags an identity's intended capability class.
type Role = string

const (
	// RoleBuyer is the default marketplace role (browse, purchase)
	RoleBuyer Role = "buyer"
	// RoleSeller marks accounts that intend to sell; capabilities stay
	// gated behind the onboarding application until approved
	RoleSeller Role = "seller"
	// RoleAdmin tags identities created for staff; note this is NOT the
	// administrator credential track, see AdminIdentity
	RoleAdmin Role = "admin"
)

// ApplicationStatus is the seller application lifecycle state.
type ApplicationStatus = string

const (
	// StatusAbsent is the projection of "no application record"; it is a
	// resolver-level value and never persisted
	StatusAbsent ApplicationStatus = "absent"
	// StatusPending means submitted and awaiting review
	StatusPending ApplicationStatus = "pending"
	// StatusApproved unlocks the full seller dashboard
	StatusApproved ApplicationStatus = "approved"
	// StatusRejected is terminal unless resubmission is enabled
	StatusRejected ApplicationStatus = "rejected"
)

// User is the identity record backing the local identity provider
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName    string         `bun:"display_name" json:"display_name,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"password_hash,omitempty"`
	EmailConfirmed bool           `bun:"is_email_confirmed" json:"is_email_confirmed,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Role reads the role tag from metadata, defaulting to buyer.
func (u *User) Role() Role {
	if u == nil {
		return RoleBuyer
	}
	if raw, ok := u.Metadata["role"]; ok {
		if s, ok := raw.(string); ok {
			if role, valid := ParseRole(s); valid {
				return role
			}
		}
	}
	return RoleBuyer
}

// AdminUser is the administrator credential record. Administrators are a
// separate authorization track and never map onto a User row.
type AdminUser struct {
	bun.BaseModel `bun:"table:admin_users,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName      string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	IsActive      bool       `bun:"is_active,default:true" json:"is_active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SellerApplication tracks a seller's onboarding request. One per owner,
// created once by the seller, transitioned only by administrators, never
// deleted.
type SellerApplication struct {
	bun.BaseModel              `bun:"table:seller_applications,alias:app"`
	ID                         uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID                     uuid.UUID         `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	BusinessName               string            `bun:"business_name,notnull" json:"business_name,omitempty"`
	BusinessType               string            `bun:"business_type,notnull" json:"business_type,omitempty"`
	BusinessAddress            string            `bun:"business_address,notnull" json:"business_address,omitempty"`
	BusinessRegistrationNumber string            `bun:"business_registration_number" json:"business_registration_number,omitempty"`
	GSTNumber                  string            `bun:"gst_number" json:"gst_number,omitempty"`
	ContactPhone               string            `bun:"contact_phone,notnull" json:"contact_phone,omitempty"`
	BankName                   string            `bun:"bank_name,notnull" json:"bank_name,omitempty"`
	BankAccountNumber          string            `bun:"bank_account_number,notnull" json:"bank_account_number,omitempty"`
	IFSCCode                   string            `bun:"ifsc_code,notnull" json:"ifsc_code,omitempty"`
	AccountHolderName          string            `bun:"account_holder_name,notnull" json:"account_holder_name,omitempty"`
	Status                     ApplicationStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	AdminNotes                 string            `bun:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt                  *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt                  *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the default status on records created before the
// status column existed.
func (a *SellerApplication) EnsureStatus() {
	if a != nil && a.Status == "" {
		a.Status = StatusPending
	}
}

// IsPending reports whether the application awaits review.
func (a *SellerApplication) IsPending() bool {
	return a != nil && a.Status == StatusPending
}

// IsApproved reports whether the application was approved.
func (a *SellerApplication) IsApproved() bool {
	return a != nil && a.Status == StatusApproved
}

// IsRejected reports whether the application was rejected.
func (a *SellerApplication) IsRejected() bool {
	return a != nil && a.Status == StatusRejected
}
