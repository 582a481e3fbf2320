package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL UNIQUE,
	industry   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	company_id     TEXT NOT NULL DEFAULT '' ,
	custom_fields  TEXT NOT NULL DEFAULT '{}',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_company_id ON contacts(company_id);
CREATE INDEX IF NOT EXISTS idx_companies_name_norm ON companies(name_norm);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const contactColumns = `id, first_name, last_name, email, phone, job_title, linkedin_url, twitter_handle, company_id, custom_fields, created_at, updated_at`

func (s *SQLiteStore) CreateContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	cf, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.JobTitle,
		c.LinkedInURL, c.TwitterHandle, c.CompanyID, cf, now, now,
	)
	return eris.Wrap(err, "sqlite: insert contact")
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: contact %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get contact %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) GetContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE email = ? AND email != '' LIMIT 1`, email)
	c, err := scanContact(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: contact by email %s", email)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get contact by email")
	}
	return c, nil
}

// UpdateContact applies the patch inside a transaction: the stored record
// ends up reflecting exactly the patch writes and nothing else.
func (s *SQLiteStore) UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin update")
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: contact %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read contact %s", id)
	}

	applyPatch(c, patch)
	c.UpdatedAt = time.Now().UTC()

	cf, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE contacts SET
			email = ?, phone = ?, job_title = ?, linkedin_url = ?,
			twitter_handle = ?, company_id = ?, custom_fields = ?, updated_at = ?
		WHERE id = ?`,
		c.Email, c.Phone, c.JobTitle, c.LinkedInURL,
		c.TwitterHandle, c.CompanyID, cf, c.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update contact %s", id)
	}
	if err := checkRowsAffected(res, "contact", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit update")
	}
	return c, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	var args []any

	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if filter.MissingEmail {
		query += ` AND email = ''`
	}
	query += ` ORDER BY created_at, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.NameNorm = NormalizeCompanyName(c.Name)
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, name_norm, industry, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.NameNorm, c.Industry, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrConflict, "sqlite: company %q exists", c.Name)
		}
		return eris.Wrap(err, "sqlite: insert company")
	}
	return nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	c := &model.Company{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, name_norm, industry, created_at, updated_at FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.NameNorm, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) FindCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	c := &model.Company{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, name_norm, industry, created_at, updated_at FROM companies WHERE name_norm = ?`,
		NormalizeCompanyName(name)).
		Scan(&c.ID, &c.Name, &c.NameNorm, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find company by name")
	}
	return c, nil
}

// scanContact works for both sql.Row and sql.Rows via their Scan method.
func scanContact(scan func(dest ...any) error) (*model.Contact, error) {
	c := &model.Contact{}
	var cf string
	err := scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.JobTitle, &c.LinkedInURL, &c.TwitterHandle, &c.CompanyID,
		&cf, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cf != "" && cf != "{}" {
		if err := json.Unmarshal([]byte(cf), &c.CustomFields); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode custom fields")
		}
	}
	return c, nil
}

// applyPatch merges a patch into a contact in memory.
func applyPatch(c *model.Contact, patch model.ContactPatch) {
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.JobTitle != nil {
		c.JobTitle = *patch.JobTitle
	}
	if patch.LinkedInURL != nil {
		c.LinkedInURL = *patch.LinkedInURL
	}
	if patch.TwitterHandle != nil {
		c.TwitterHandle = *patch.TwitterHandle
	}
	if patch.CompanyID != nil {
		c.CompanyID = *patch.CompanyID
	}
	if len(patch.CustomFields) > 0 {
		if c.CustomFields == nil {
			c.CustomFields = make(map[string]any, len(patch.CustomFields))
		}
		for k, v := range patch.CustomFields {
			c.CustomFields[k] = v
		}
	}
}

func marshalCustomFields(cf map[string]any) (string, error) {
	if len(cf) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(cf)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: encode custom fields")
	}
	return string(b), nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", kind, id)
	}
	return nil
}
