package booking

import "dentalportal/internal/models"

// Catalog is the static list of appointment types and practitioners.
type Catalog struct {
	Types         []models.AppointmentType
	Practitioners []models.Practitioner
}

// DefaultCatalog mirrors the clinic's published services and staff.
func DefaultCatalog() Catalog {
	return Catalog{
		Types: []models.AppointmentType{
			{ID: "1", Name: "Regular Checkup", DurationMinutes: 30},
			{ID: "2", Name: "Teeth Cleaning", DurationMinutes: 45},
			{ID: "3", Name: "Dental Filling", DurationMinutes: 60},
			{ID: "4", Name: "Root Canal", DurationMinutes: 90},
			{ID: "5", Name: "Tooth Extraction", DurationMinutes: 60},
		},
		Practitioners: []models.Practitioner{
			{ID: "1", Name: "Dr. Sarah Johnson", Specialty: "General Dentistry"},
			{ID: "2", Name: "Dr. Michael Chen", Specialty: "Orthodontics"},
			{ID: "3", Name: "Dr. Emily Rodriguez", Specialty: "Pediatric Dentistry"},
			{ID: "4", Name: "Dr. James Wilson", Specialty: "Endodontics"},
		},
	}
}

// TypeByID returns an appointment type by id.
func (c Catalog) TypeByID(id string) (models.AppointmentType, bool) {
	for _, t := range c.Types {
		if t.ID == id {
			return t, true
		}
	}
	return models.AppointmentType{}, false
}

// PractitionerByID returns a practitioner by id.
func (c Catalog) PractitionerByID(id string) (models.Practitioner, bool) {
	for _, p := range c.Practitioners {
		if p.ID == id {
			return p, true
		}
	}
	return models.Practitioner{}, false
}
