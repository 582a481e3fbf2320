package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore on top of an open pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL UNIQUE,
	industry   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id             TEXT PRIMARY KEY,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	job_title      TEXT NOT NULL DEFAULT '',
	linkedin_url   TEXT NOT NULL DEFAULT '',
	twitter_handle TEXT NOT NULL DEFAULT '',
	company_id     TEXT NOT NULL DEFAULT '',
	custom_fields  JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_company_id ON contacts(company_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgContactColumns = `id, first_name, last_name, email, phone, job_title, linkedin_url, twitter_handle, company_id, custom_fields, created_at, updated_at`

func (s *PostgresStore) CreateContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	cf, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO contacts (`+pgContactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.JobTitle,
		c.LinkedInURL, c.TwitterHandle, c.CompanyID, cf, now, now,
	)
	return eris.Wrap(err, "postgres: insert contact")
}

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgContactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanPGContact(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: contact %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get contact %s", id)
	}
	return c, nil
}

func (s *PostgresStore) GetContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgContactColumns+` FROM contacts WHERE email = $1 AND email != '' LIMIT 1`, email)
	c, err := scanPGContact(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: contact by email %s", email)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get contact by email")
	}
	return c, nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin update")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx,
		`SELECT `+pgContactColumns+` FROM contacts WHERE id = $1 FOR UPDATE`, id)
	c, err := scanPGContact(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: contact %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read contact %s", id)
	}

	applyPatch(c, patch)
	c.UpdatedAt = time.Now().UTC()

	cf, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE contacts SET
			email = $2, phone = $3, job_title = $4, linkedin_url = $5,
			twitter_handle = $6, company_id = $7, custom_fields = $8, updated_at = $9
		WHERE id = $1`,
		id, c.Email, c.Phone, c.JobTitle, c.LinkedInURL,
		c.TwitterHandle, c.CompanyID, cf, c.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update contact %s", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit update")
	}
	return c, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT ` + pgContactColumns + ` FROM contacts WHERE 1=1`
	var args []any

	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += ` AND company_id = $1`
	}
	if filter.MissingEmail {
		query += ` AND email = ''`
	}
	query += ` ORDER BY created_at, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanPGContact(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.NameNorm = NormalizeCompanyName(c.Name)
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, name_norm, industry, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.NameNorm, c.Industry, now, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return eris.Wrapf(ErrConflict, "postgres: company %q exists", c.Name)
		}
		return eris.Wrap(err, "postgres: insert company")
	}
	return nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	c := &model.Company{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, name_norm, industry, created_at, updated_at FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.NameNorm, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return c, nil
}

func (s *PostgresStore) FindCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	c := &model.Company{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, name_norm, industry, created_at, updated_at FROM companies WHERE name_norm = $1`,
		NormalizeCompanyName(name)).
		Scan(&c.ID, &c.Name, &c.NameNorm, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find company by name")
	}
	return c, nil
}

func scanPGContact(scan func(dest ...any) error) (*model.Contact, error) {
	c := &model.Contact{}
	var cf []byte
	err := scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.JobTitle, &c.LinkedInURL, &c.TwitterHandle, &c.CompanyID,
		&cf, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(cf) > 0 && string(cf) != "{}" {
		if err := json.Unmarshal(cf, &c.CustomFields); err != nil {
			return nil, eris.Wrap(err, "postgres: decode custom fields")
		}
	}
	return c, nil
}

