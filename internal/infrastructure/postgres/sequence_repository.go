package postgres

import (
	"context"

	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo implementación del generador de folios sobre PostgreSQL.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next reserva el siguiente folio para (empresa, tipo de documento) en UNA
// sola sentencia atómica: el upsert con incremento y RETURNING hace que dos
// callers concurrentes jamás vean el mismo número. Nunca se implementa como
// max()+1 leído y reescrito: eso pierde la carrera bajo carga normal.
func (r *SequenceRepo) Next(ctx context.Context, companyID, documentType string) (int64, error) {
	const q = `
		INSERT INTO document_sequences (company_id, document_type, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, document_type)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`
	var number int64
	if err := r.q.QueryRow(ctx, q, companyID, documentType).Scan(&number); err != nil {
		return 0, &domain.GenerationError{Err: err}
	}
	return number, nil
}
