package database

// booksSchema is the DDL for books.db: raw financial inputs plus the
// derived double-entry ledger. Monetary values are stored as TEXT
// (decimal strings) to avoid float drift; dates are Unix timestamps.
const booksSchema = `
CREATE TABLE IF NOT EXISTS business_profiles (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT 'PERSONAL',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profiles_user ON business_profiles(user_id);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	business_profile_id TEXT NOT NULL,
	date INTEGER NOT NULL,
	amount TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	type TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_partition
	ON transactions(user_id, business_profile_id, date);

CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL,
	business_profile_id TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	UNIQUE(user_id, business_profile_id, name)
);

CREATE TABLE IF NOT EXISTS debts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	balance TEXT NOT NULL,
	interest_rate REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_debts_user ON debts(user_id);

CREATE TABLE IF NOT EXISTS recurring_charges (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	last_paid_date INTEGER,
	next_due_date INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recurring_user ON recurring_charges(user_id);

CREATE TABLE IF NOT EXISTS chart_of_accounts (
	id INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL,
	business_profile_id TEXT NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(user_id, code)
);
CREATE INDEX IF NOT EXISTS idx_accounts_partition
	ON chart_of_accounts(user_id, business_profile_id, name);

CREATE TABLE IF NOT EXISTS journal_entries (
	id INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL,
	business_profile_id TEXT NOT NULL,
	entry_number TEXT NOT NULL,
	date INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL,
	total_debit TEXT NOT NULL,
	total_credit TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(user_id, entry_number),
	UNIQUE(user_id, reference)
);
CREATE INDEX IF NOT EXISTS idx_journal_partition
	ON journal_entries(user_id, business_profile_id, date);

CREATE TABLE IF NOT EXISTS journal_entry_lines (
	id INTEGER PRIMARY KEY,
	entry_id INTEGER NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
	account_id INTEGER NOT NULL REFERENCES chart_of_accounts(id),
	description TEXT NOT NULL DEFAULT '',
	debit_amount TEXT NOT NULL DEFAULT '0',
	credit_amount TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX IF NOT EXISTS idx_journal_lines_entry ON journal_entry_lines(entry_id);

CREATE TABLE IF NOT EXISTS reconciliations (
	id INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL,
	business_profile_id TEXT NOT NULL,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	opening_balance TEXT NOT NULL,
	closing_balance TEXT NOT NULL,
	bank_balance TEXT NOT NULL,
	difference TEXT NOT NULL DEFAULT '0',
	status TEXT NOT NULL DEFAULT 'COMPLETED',
	notes TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(user_id, business_profile_id, year, month)
);

CREATE TABLE IF NOT EXISTS entry_sequences (
	user_id TEXT PRIMARY KEY,
	next_value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_scores (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	score INTEGER NOT NULL,
	rating TEXT NOT NULL,
	factors_json TEXT NOT NULL,
	total_debt TEXT NOT NULL,
	credit_utilization REAL NOT NULL,
	accounts INTEGER NOT NULL,
	inquiries INTEGER NOT NULL DEFAULT 0,
	avg_account_age_months REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_credit_scores_user ON credit_scores(user_id, created_at);
`

// cacheSchema is the DDL for cache.db: ephemeral operational data.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS derivation_runs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	accounts_created INTEGER NOT NULL DEFAULT 0,
	accounts_skipped INTEGER NOT NULL DEFAULT 0,
	entries_created INTEGER NOT NULL DEFAULT 0,
	entries_skipped INTEGER NOT NULL DEFAULT 0,
	reconciliations_created INTEGER NOT NULL DEFAULT 0,
	reconciliations_skipped INTEGER NOT NULL DEFAULT 0,
	partitions_processed INTEGER NOT NULL DEFAULT 0,
	partitions_skipped INTEGER NOT NULL DEFAULT 0,
	report_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_derivation_runs_user
	ON derivation_runs(user_id, started_at);
`
