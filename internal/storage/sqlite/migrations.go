package sqlite

import "database/sql"

// schema sets up the database tables. It runs on startup to ensure tables
// exist. bills.company_id deliberately has no foreign key: bills may outlive
// or predate their company row.
const schema = `
CREATE TABLE IF NOT EXISTS companies (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    items TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    cgst TEXT NOT NULL,
    sgst TEXT NOT NULL,
    total TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sequences (
    name TEXT PRIMARY KEY,
    next INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bills_company_id ON bills(company_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
