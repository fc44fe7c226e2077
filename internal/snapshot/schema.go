package snapshot

// DatabaseFile is the SQLite file created in the data directory.
const DatabaseFile = "caseload.db"

const createSnapshots = `CREATE TABLE IF NOT EXISTS snapshots (
    entity_type TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    last_fetch INTEGER NOT NULL,
    saved_at TEXT NOT NULL
);`

const upsertSnapshot = `INSERT INTO snapshots (entity_type, state, last_fetch, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(entity_type) DO UPDATE SET
    state = excluded.state,
    last_fetch = excluded.last_fetch,
    saved_at = excluded.saved_at;`

const (
	selectSnapshot = `SELECT state FROM snapshots WHERE entity_type = ?`
	selectTypes    = `SELECT entity_type FROM snapshots ORDER BY entity_type`
	deleteSnapshot = `DELETE FROM snapshots WHERE entity_type = ?`
	pragmaJournal  = `PRAGMA journal_mode = WAL;`
	pragmaBusyWait = `PRAGMA busy_timeout = 5000;`
)

// schemaDDL runs in order when the database is opened.
var schemaDDL = []string{
	pragmaJournal,
	pragmaBusyWait,
	createSnapshots,
}
