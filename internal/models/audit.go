package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded for portal mutations and sign-ins.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionCreate         = "CREATE"
	AuditActionUpdate         = "UPDATE"
	AuditActionDelete         = "DELETE"
	AuditActionPhotoUpload    = "PHOTO_UPLOAD"
)

// Audit resources.
const (
	AuditResourceAuth          = "auth"
	AuditResourceStudent       = "student"
	AuditResourceDepartment    = "department"
	AuditResourceGrade         = "grade"
	AuditResourceBook          = "book"
	AuditResourceLibraryRecord = "library_record"
	AuditResourceFeeRecord     = "fee_record"
)

// AuditLog is one row of the audit trail. Details holds a JSON object describing the outcome.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// WithDetails encodes details into the entry. Unencodable values leave Details empty.
func (l *AuditLog) WithDetails(details map[string]interface{}) *AuditLog {
	if raw, err := json.Marshal(details); err == nil {
		l.Details = raw
	}
	return l
}
