// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Dates are stored as fixed-width RFC 3339 text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// In-memory databases are per connection
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		registration_number TEXT NOT NULL DEFAULT '',
		registration_date TEXT,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS directors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT ''
	);

	-- Directorships are stored once and serve both sides of the membership
	CREATE TABLE IF NOT EXISTS directorships (
		director_id TEXT NOT NULL REFERENCES directors(id) ON DELETE CASCADE,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		PRIMARY KEY (director_id, company_id)
	);
	CREATE INDEX IF NOT EXISTS idx_directorships_company ON directorships(company_id);

	CREATE TABLE IF NOT EXISTS officials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT ''
	);

	-- Target may be a director or a company
	CREATE TABLE IF NOT EXISTS official_relations (
		official_id TEXT NOT NULL REFERENCES officials(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (official_id, target_id)
	);

	CREATE TABLE IF NOT EXISTS tenders (
		id TEXT PRIMARY KEY,
		reference_number TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		procuring_entity TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		estimated_value TEXT NOT NULL,
		published_date TEXT NOT NULL,
		deadline TEXT NOT NULL,
		status TEXT NOT NULL,
		awarded_to TEXT REFERENCES companies(id),
		awarded_amount TEXT,
		awarding_official_id TEXT REFERENCES officials(id)
	);
	CREATE INDEX IF NOT EXISTS idx_tenders_category ON tenders(category);
	CREATE INDEX IF NOT EXISTS idx_tenders_awarded_to ON tenders(awarded_to);

	CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		tender_id TEXT NOT NULL REFERENCES tenders(id) ON DELETE CASCADE,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		submission_date TEXT NOT NULL,
		technical_score TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_bids_tender ON bids(tender_id);
	CREATE INDEX IF NOT EXISTS idx_bids_company ON bids(company_id);

	-- Audit log of dataset imports
	CREATE TABLE IF NOT EXISTS import_log (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		counts TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_import_log_imported ON import_log(imported_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveDataset replaces every stored entity with ds in one transaction and
// appends an entry to the import log.
func (r *Repository) SaveDataset(ctx context.Context, ds *entities.Dataset, source string) (*entities.ImportRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Children first so foreign keys hold at every step
	for _, table := range []string{"bids", "tenders", "official_relations", "officials", "directorships", "directors", "companies"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	steps := []func(context.Context, *sql.Tx, *entities.Dataset) error{
		insertCompanies,
		insertDirectors,
		insertDirectorships,
		insertOfficials,
		insertTenders,
		insertBids,
	}
	for _, step := range steps {
		if err := step(ctx, tx, ds); err != nil {
			return nil, err
		}
	}

	rec := &entities.ImportRecord{
		ID:         generateUUID(),
		Source:     source,
		Counts:     entities.DatasetCounts(ds),
		ImportedAt: timeNow().UTC(),
	}
	counts, err := json.Marshal(rec.Counts)
	if err != nil {
		return nil, fmt.Errorf("marshaling counts: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO import_log (id, source, counts, imported_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Source, string(counts), rec.ImportedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("logging import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing dataset: %w", err)
	}
	return rec, nil
}

func insertCompanies(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO companies (id, name, registration_number, registration_date, address, phone, email)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing company insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range ds.Companies {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Name, c.RegistrationNumber, nullTime(c.RegistrationDate), c.Address, c.Phone, c.Email,
		); err != nil {
			return fmt.Errorf("saving company %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertDirectors(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO directors (id, name, national_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing director insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range ds.Directors {
		if _, err := stmt.ExecContext(ctx, d.ID, d.Name, d.NationalID); err != nil {
			return fmt.Errorf("saving director %s: %w", d.ID, err)
		}
	}
	return nil
}

// insertDirectorships writes the union of both membership lists.
func insertDirectorships(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO directorships (director_id, company_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing directorship insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range ds.Directors {
		for _, companyID := range d.CompanyIDs {
			if _, err := stmt.ExecContext(ctx, d.ID, companyID); err != nil {
				return fmt.Errorf("saving directorship %s/%s: %w", d.ID, companyID, err)
			}
		}
	}
	for _, c := range ds.Companies {
		for _, directorID := range c.DirectorIDs {
			if _, err := stmt.ExecContext(ctx, directorID, c.ID); err != nil {
				return fmt.Errorf("saving directorship %s/%s: %w", directorID, c.ID, err)
			}
		}
	}
	return nil
}

func insertOfficials(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO officials (id, name, department, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing official insert: %w", err)
	}
	defer stmt.Close()

	relStmt, err := tx.PrepareContext(ctx, `INSERT INTO official_relations (official_id, target_id, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing relation insert: %w", err)
	}
	defer relStmt.Close()

	for _, o := range ds.Officials {
		if _, err := stmt.ExecContext(ctx, o.ID, o.Name, o.Department, o.Position); err != nil {
			return fmt.Errorf("saving official %s: %w", o.ID, err)
		}
		for _, rel := range o.Relations {
			if _, err := relStmt.ExecContext(ctx, o.ID, rel.TargetID, string(rel.Kind)); err != nil {
				return fmt.Errorf("saving relation %s/%s: %w", o.ID, rel.TargetID, err)
			}
		}
	}
	return nil
}

func insertTenders(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tenders (id, reference_number, title, description, procuring_entity, category,
			estimated_value, published_date, deadline, status, awarded_to, awarded_amount, awarding_official_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing tender insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ds.Tenders {
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Reference, t.Title, t.Description, t.ProcuringEntity, t.Category,
			t.EstimatedValue,
			t.PublishedDate.Format(timeLayout),
			t.Deadline.Format(timeLayout),
			string(t.Status),
			nullString(t.AwardedTo),
			nullDecimal(t.AwardedAmount),
			nullString(t.AwardingOfficialID),
		); err != nil {
			return fmt.Errorf("saving tender %s: %w", t.ID, err)
		}
	}
	return nil
}

func insertBids(ctx context.Context, tx *sql.Tx, ds *entities.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bids (id, tender_id, company_id, amount, submission_date, technical_score)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing bid insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range ds.Bids {
		if _, err := stmt.ExecContext(ctx,
			b.ID, b.TenderID, b.CompanyID, b.Amount, b.SubmittedAt.Format(timeLayout), nullDecimal(b.TechnicalScore),
		); err != nil {
			return fmt.Errorf("saving bid %s: %w", b.ID, err)
		}
	}
	return nil
}

// LoadDataset reads every stored entity. Each slice is ordered by id.
func (r *Repository) LoadDataset(ctx context.Context) (*entities.Dataset, error) {
	ds := &entities.Dataset{}

	companies, err := r.loadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	directors, err := r.loadDirectors(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadDirectorships(ctx, companies, directors); err != nil {
		return nil, err
	}
	officials, err := r.loadOfficials(ctx)
	if err != nil {
		return nil, err
	}
	if ds.Tenders, err = r.loadTenders(ctx); err != nil {
		return nil, err
	}
	if ds.Bids, err = r.loadBids(ctx); err != nil {
		return nil, err
	}

	ds.Companies = companies
	ds.Directors = directors
	ds.Officials = officials
	return ds, nil
}

func (r *Repository) loadCompanies(ctx context.Context) ([]entities.Company, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, registration_number, registration_date, address, phone, email
		FROM companies ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	companies := make([]entities.Company, 0, 16)
	for rows.Next() {
		var c entities.Company
		var registered sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.RegistrationNumber, &registered, &c.Address, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		if c.RegistrationDate, err = parseNullTime(registered); err != nil {
			return nil, fmt.Errorf("company %s registration_date: %w", c.ID, err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *Repository) loadDirectors(ctx context.Context) ([]entities.Director, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, national_id FROM directors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying directors: %w", err)
	}
	defer rows.Close()

	directors := make([]entities.Director, 0, 16)
	for rows.Next() {
		var d entities.Director
		if err := rows.Scan(&d.ID, &d.Name, &d.NationalID); err != nil {
			return nil, fmt.Errorf("scanning director: %w", err)
		}
		directors = append(directors, d)
	}
	return directors, rows.Err()
}

// loadDirectorships fills DirectorIDs and CompanyIDs in place.
func (r *Repository) loadDirectorships(ctx context.Context, companies []entities.Company, directors []entities.Director) error {
	rows, err := r.db.QueryContext(ctx, `SELECT director_id, company_id FROM directorships ORDER BY director_id, company_id`)
	if err != nil {
		return fmt.Errorf("querying directorships: %w", err)
	}
	defer rows.Close()

	companyIdx := make(map[string]int, len(companies))
	for i := range companies {
		companyIdx[companies[i].ID] = i
	}
	directorIdx := make(map[string]int, len(directors))
	for i := range directors {
		directorIdx[directors[i].ID] = i
	}

	for rows.Next() {
		var directorID, companyID string
		if err := rows.Scan(&directorID, &companyID); err != nil {
			return fmt.Errorf("scanning directorship: %w", err)
		}
		if i, ok := directorIdx[directorID]; ok {
			directors[i].CompanyIDs = append(directors[i].CompanyIDs, companyID)
		}
		if i, ok := companyIdx[companyID]; ok {
			companies[i].DirectorIDs = append(companies[i].DirectorIDs, directorID)
		}
	}
	return rows.Err()
}

func (r *Repository) loadOfficials(ctx context.Context) ([]entities.Official, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, department, position FROM officials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying officials: %w", err)
	}
	defer rows.Close()

	officials := make([]entities.Official, 0, 16)
	idx := make(map[string]int)
	for rows.Next() {
		var o entities.Official
		if err := rows.Scan(&o.ID, &o.Name, &o.Department, &o.Position); err != nil {
			return nil, fmt.Errorf("scanning official: %w", err)
		}
		idx[o.ID] = len(officials)
		officials = append(officials, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	relRows, err := r.db.QueryContext(ctx, `SELECT official_id, target_id, kind FROM official_relations ORDER BY official_id, target_id`)
	if err != nil {
		return nil, fmt.Errorf("querying official relations: %w", err)
	}
	defer relRows.Close()

	for relRows.Next() {
		var officialID, targetID, kind string
		if err := relRows.Scan(&officialID, &targetID, &kind); err != nil {
			return nil, fmt.Errorf("scanning official relation: %w", err)
		}
		if i, ok := idx[officialID]; ok {
			officials[i].Relations = append(officials[i].Relations, entities.OfficialRelation{
				TargetID: targetID,
				Kind:     entities.RelationKind(kind),
			})
		}
	}
	return officials, relRows.Err()
}

func (r *Repository) loadTenders(ctx context.Context) ([]entities.Tender, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reference_number, title, description, procuring_entity, category,
			estimated_value, published_date, deadline, status, awarded_to, awarded_amount, awarding_official_id
		FROM tenders ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tenders: %w", err)
	}
	defer rows.Close()

	tenders := make([]entities.Tender, 0, 16)
	for rows.Next() {
		var t entities.Tender
		var published, deadline, status string
		var awardedTo, officialID sql.NullString
		var awardedAmount decimal.NullDecimal
		if err := rows.Scan(
			&t.ID, &t.Reference, &t.Title, &t.Description, &t.ProcuringEntity, &t.Category,
			&t.EstimatedValue, &published, &deadline, &status, &awardedTo, &awardedAmount, &officialID,
		); err != nil {
			return nil, fmt.Errorf("scanning tender: %w", err)
		}
		if t.PublishedDate, err = time.Parse(timeLayout, published); err != nil {
			return nil, fmt.Errorf("tender %s published_date: %w", t.ID, err)
		}
		if t.Deadline, err = time.Parse(timeLayout, deadline); err != nil {
			return nil, fmt.Errorf("tender %s deadline: %w", t.ID, err)
		}
		t.Status = entities.TenderStatus(status)
		t.AwardedTo = awardedTo.String
		t.AwardingOfficialID = officialID.String
		if awardedAmount.Valid {
			amount := awardedAmount.Decimal
			t.AwardedAmount = &amount
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func (r *Repository) loadBids(ctx context.Context) ([]entities.Bid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tender_id, company_id, amount, submission_date, technical_score
		FROM bids ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying bids: %w", err)
	}
	defer rows.Close()

	bids := make([]entities.Bid, 0, 32)
	for rows.Next() {
		var b entities.Bid
		var submitted string
		var score decimal.NullDecimal
		if err := rows.Scan(&b.ID, &b.TenderID, &b.CompanyID, &b.Amount, &submitted, &score); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		if b.SubmittedAt, err = time.Parse(timeLayout, submitted); err != nil {
			return nil, fmt.Errorf("bid %s submission_date: %w", b.ID, err)
		}
		if score.Valid {
			s := score.Decimal
			b.TechnicalScore = &s
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// CountEntities returns the number of stored rows per entity table.
func (r *Repository) CountEntities(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 5)
	for _, table := range []string{"tenders", "companies", "directors", "officials", "bids"} {
		var n int
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// ListImports returns the most recent imports, newest first. A limit of zero
// or less returns all of them.
func (r *Repository) ListImports(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, counts, imported_at
		FROM import_log
		ORDER BY imported_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import log: %w", err)
	}
	defer rows.Close()

	var records []entities.ImportRecord
	for rows.Next() {
		var rec entities.ImportRecord
		var counts, importedAt string
		if err := rows.Scan(&rec.ID, &rec.Source, &counts, &importedAt); err != nil {
			return nil, fmt.Errorf("scanning import entry: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &rec.Counts); err != nil {
			return nil, fmt.Errorf("unmarshaling counts: %w", err)
		}
		if rec.ImportedAt, err = time.Parse(timeLayout, importedAt); err != nil {
			return nil, fmt.Errorf("import %s imported_at: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s.String)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
