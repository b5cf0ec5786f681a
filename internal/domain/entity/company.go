package entity

import "time"

// Company representa una organización/tenant del sistema. Toda entidad de
// facturación pertenece a exactamente una empresa.
type Company struct {
	ID        string
	Name      string
	TaxID     string // RUT/NIT del emisor (con o sin dígito verificador)
	Country   string // código ISO-3166-1 alpha-2 (ej: "CL")
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time

	// DefaultDocumentType permite a la empresa fijar el tipo de documento por
	// defecto, por encima de la regla país→tipo. Vacío = sin override.
	DefaultDocumentType string
}
