package repository

import "context"

// SequenceRepository define el puerto del generador de folios. Es la primitiva
// más crítica del pipeline: un folio duplicado en dos documentos legales es
// una falla de compliance.
type SequenceRepository interface {
	// Next reserva y devuelve el siguiente folio para (empresa, tipo de
	// documento). Estrictamente creciente; dos callers concurrentes jamás
	// reciben el mismo número. Implementado como incremento atómico con
	// retorno, nunca como max()+1 leído y reescrito. El número devuelto ya
	// quedó reservado de forma durable: un fallo posterior lo consume igual.
	Next(ctx context.Context, companyID, documentType string) (int64, error)
}
