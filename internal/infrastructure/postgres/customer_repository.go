package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturalo/emision-api/internal/domain/entity"
	"github.com/facturalo/emision-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, company_id, tax_id, name, email, address, city, state,
	postal_code, country, customer_type, giro, created_at, updated_at`

// GetOrCreate inserta el cliente o devuelve el existente. El constraint único
// sobre (company_id, tax_id) + ON CONFLICT DO NOTHING garantiza que dos
// requests concurrentes con el mismo tax_id nuevo crean exactamente una fila;
// los atributos del cliente existente nunca se pisan.
func (r *CustomerRepo) GetOrCreate(ctx context.Context, companyID, taxID string, attrs *entity.Customer) (*entity.Customer, error) {
	if attrs.ID == "" {
		attrs.ID = uuid.New().String()
	}
	now := time.Now()
	if attrs.CreatedAt.IsZero() {
		attrs.CreatedAt = now
		attrs.UpdatedAt = now
	}
	insert := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (company_id, tax_id) DO NOTHING
		RETURNING ` + customerColumns
	row := r.q.QueryRow(ctx, insert,
		attrs.ID, companyID, taxID, attrs.Name, attrs.Email, attrs.Address, attrs.City,
		attrs.State, attrs.PostalCode, attrs.Country, attrs.CustomerType, attrs.Giro,
		attrs.CreatedAt, attrs.UpdatedAt,
	)
	customer, err := scanCustomer(row)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	// Conflicto: la fila ya existía (este request u otro concurrente la creó).
	existing, err := r.GetByCompanyAndTaxID(ctx, companyID, taxID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("get-or-create customer: conflicto sin fila visible para tax_id %s", taxID)
	}
	return existing, nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	customer, err := scanCustomer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// GetByCompanyAndTaxID obtiene un cliente por empresa y RUT/NIT.
func (r *CustomerRepo) GetByCompanyAndTaxID(ctx context.Context, companyID, taxID string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND tax_id = $2`
	customer, err := scanCustomer(r.q.QueryRow(ctx, query, companyID, taxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by tax_id: %w", err)
	}
	return customer, nil
}

// ListByCompany lista clientes de la empresa con paginación.
func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + `
		FROM customers WHERE company_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, customer)
	}
	return list, rows.Err()
}

// Update corrige datos de contacto y dirección; tax_id y empresa no cambian.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, email = $3, address = $4, city = $5, state = $6,
		    postal_code = $7, country = $8, customer_type = $9, giro = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Address, customer.City,
		customer.State, customer.PostalCode, customer.Country, customer.CustomerType,
		customer.Giro, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// pgxScanner abstrae pgx.Row y pgx.Rows para reutilizar el scan.
type pgxScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row pgxScanner) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.TaxID, &c.Name, &c.Email, &c.Address, &c.City,
		&c.State, &c.PostalCode, &c.Country, &c.CustomerType, &c.Giro,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
