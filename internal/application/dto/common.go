package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset están fuera de rango.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. DocumentID acompaña los fallos
// posteriores a la persistencia para que el caller pueda inspeccionar el
// documento FAILED (un 500 no significa "no pasó nada").
type ErrorResponse struct {
	Error      string `json:"error"`
	DocumentID string `json:"document_id,omitempty"`
}
