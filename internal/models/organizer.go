package models

import "time"

// OrganizerType classifies the applying organization
type OrganizerType string

const (
	OrganizerNGO            OrganizerType = "ngo"
	OrganizerCollegeSchool  OrganizerType = "college_school"
	OrganizerCompanyCSR     OrganizerType = "company_csr"
	OrganizerCommunityGroup OrganizerType = "community_group"
)

// ApplicationStatus is the review state of an organizer application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// OrganizerApplication is a citizen's request to become an organizer
type OrganizerApplication struct {
	ID               string            `json:"id" db:"id"`
	UserID           string            `json:"user_id" db:"user_id"`
	OrganizationName string            `json:"organization_name" db:"organization_name"`
	OrganizerType    OrganizerType     `json:"organizer_type" db:"organizer_type"`
	OfficialEmail    string            `json:"official_email" db:"official_email"`
	ContactNumber    string            `json:"contact_number" db:"contact_number"`
	WebsiteURL       *string           `json:"website_url,omitempty" db:"website_url"`
	Purpose          string            `json:"purpose" db:"purpose"`
	ProofType        *string           `json:"proof_type,omitempty" db:"proof_type"`
	ProofURL         *string           `json:"proof_url,omitempty" db:"proof_url"`
	Status           ApplicationStatus `json:"status" db:"status"`
	AdminRemarks     *string           `json:"admin_remarks,omitempty" db:"admin_remarks"`
	ReviewedBy       *string           `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}
