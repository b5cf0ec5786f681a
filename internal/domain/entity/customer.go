package entity

import "time"

// Tipos de cliente.
const (
	CustomerTypeIndividual = "individual"
	CustomerTypeBusiness   = "business"
)

// Customer representa un receptor de documentos tributarios. Único por
// (empresa, tax_id); se crea al primer documento que lo referencia y nunca se
// elimina.
type Customer struct {
	ID           string
	CompanyID    string
	TaxID        string // RUT/NIT/cédula del receptor
	Name         string // razón social o nombre legal
	Email        string
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      string
	CustomerType string // individual | business
	Giro         string // actividad económica declarada (obligatoria en factura CL)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
