package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/optica/eyecare-backend/pkg/enums"
)

// PrescriptionReading holds the measured values for one eye. All fields are
// optional; a record with no readings is still a valid client entry.
type PrescriptionReading struct {
	Spherical   *float64 `gorm:"column:spherical" json:"spherical,omitempty"`
	Cylindrical *float64 `gorm:"column:cylindrical" json:"cylindrical,omitempty"`
	Axis        *int     `gorm:"column:axis" json:"axis,omitempty"`
	AddPower    *float64 `gorm:"column:add_power" json:"addPower,omitempty"`
}

// IsEmpty reports whether no reading was captured for the eye.
func (p PrescriptionReading) IsEmpty() bool {
	return p.Spherical == nil && p.Cylindrical == nil && p.Axis == nil && p.AddPower == nil
}

// ClientRecord is one optical-prescription customer entry. The id is the
// store-assigned key; clientCode is the human-facing identifier and must be
// unique across all live records.
type ClientRecord struct {
	ID            uuid.UUID           `gorm:"type:text;primaryKey" json:"id"`
	ClientCode    string              `gorm:"column:client_code;not null;uniqueIndex:idx_client_records_client_code" json:"clientCode"`
	Name          string              `gorm:"not null;index" json:"name"`
	Mobile        string              `gorm:"not null;index" json:"mobile"`
	Email         string              `gorm:"index" json:"email,omitempty"`
	LeftEye       PrescriptionReading `gorm:"embedded;embeddedPrefix:left_eye_" json:"leftEye"`
	RightEye      PrescriptionReading `gorm:"embedded;embeddedPrefix:right_eye_" json:"rightEye"`
	PupilDistance *float64            `gorm:"column:pupil_distance" json:"pupilDistance,omitempty"`
	FrameOption   string              `gorm:"column:frame_option" json:"frameOption,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Status        enums.RecordStatus  `gorm:"not null;default:active" json:"status"`
	CreatedAt     time.Time           `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time           `gorm:"column:updated_at" json:"updatedAt"`
	CompletedAt   *time.Time          `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

// TableName pins the table independent of GORM pluralization rules.
func (ClientRecord) TableName() string {
	return "client_records"
}

// EffectiveStatus treats a missing status as active.
func (r ClientRecord) EffectiveStatus() enums.RecordStatus {
	return r.Status.Normalize()
}

// ActivityTime is the instant used for newest/oldest ordering: completion
// time when set, creation time otherwise.
func (r ClientRecord) ActivityTime() time.Time {
	if r.CompletedAt != nil {
		return *r.CompletedAt
	}
	return r.CreatedAt
}
