package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialty       string    `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Bio             string    `gorm:"type:text" json:"bio,omitempty"`
	ExperienceYears int       `gorm:"not null;default:0" json:"experience_years"`

	// Relationships
	User           User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Availabilities []DoctorAvailability `gorm:"foreignKey:DoctorID" json:"availabilities,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// Specialties offered by the hospital.
const (
	SpecialtyGynecology      = "Gynecology"
	SpecialtyDentistry       = "Dentistry"
	SpecialtyPediatrics      = "Pediatrics"
	SpecialtyCardiology      = "Cardiology"
	SpecialtyNeurology       = "Neurology"
	SpecialtyOrthopedics     = "Orthopedics"
	SpecialtyGeneralPractice = "General Practice"
)

var Specialties = []string{
	SpecialtyGynecology,
	SpecialtyDentistry,
	SpecialtyPediatrics,
	SpecialtyCardiology,
	SpecialtyNeurology,
	SpecialtyOrthopedics,
	SpecialtyGeneralPractice,
}

func IsKnownSpecialty(specialty string) bool {
	for _, s := range Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}
