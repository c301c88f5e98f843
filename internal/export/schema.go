package export

// Schema creates the result store tables.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	source TEXT NOT NULL,
	images INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	image_name TEXT NOT NULL,
	symbol TEXT NOT NULL,
	confidence REAL NOT NULL,
	error TEXT NOT NULL,
	warnings TEXT NOT NULL,
	rejected INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS data_points (
	run_id TEXT NOT NULL,
	result_seq INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	date TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL,
	PRIMARY KEY (run_id, result_seq, seq)
);

CREATE INDEX IF NOT EXISTS idx_results_image ON results(image_name);
`
