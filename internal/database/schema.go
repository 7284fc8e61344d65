package database

// schemaStatements are applied in order by EnsureSchema. The partial unique
// index is the authoritative guard against two SUCCESS rows for one alert.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS alert_records (
		record_id         UUID PRIMARY KEY,
		alert_id          TEXT NULL,
		client_id         TEXT NULL,
		alert_type        TEXT NOT NULL,
		message           TEXT NOT NULL,
		severity          TEXT NULL CHECK (severity IN ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL')),
		source            TEXT NULL,
		event_ts          TIMESTAMPTZ NOT NULL,
		processed_at      TIMESTAMPTZ NOT NULL,
		processing_status TEXT NOT NULL CHECK (processing_status IN ('SUCCESS', 'FAILURE')),
		failure_reason    TEXT NULL,
		raw_payload       BYTEA NULL,
		CONSTRAINT alert_records_failure_reason_chk
			CHECK ((processing_status = 'FAILURE') = (failure_reason IS NOT NULL))
	)`,
	`ALTER TABLE alert_records ADD COLUMN IF NOT EXISTS raw_payload BYTEA NULL`,
	`ALTER TABLE alert_records ALTER COLUMN client_id DROP NOT NULL`,
	`ALTER TABLE alert_records ALTER COLUMN client_id DROP DEFAULT`,
	`CREATE UNIQUE INDEX IF NOT EXISTS alert_records_success_alert_id_key
		ON alert_records (alert_id) WHERE processing_status = 'SUCCESS'`,
	`CREATE INDEX IF NOT EXISTS alert_records_alert_id_idx ON alert_records (alert_id)`,
	`CREATE INDEX IF NOT EXISTS alert_records_status_processed_at_idx
		ON alert_records (processing_status, processed_at)`,
}

const recordColumns = `record_id, alert_id, client_id, alert_type, message, severity, source,
		event_ts, processed_at, processing_status, failure_reason, raw_payload`

const findSuccessByAlertIDQuery = `
		SELECT ` + recordColumns + `
		FROM alert_records
		WHERE alert_id = $1 AND processing_status = 'SUCCESS'
	`

const getRecordQuery = `
		SELECT ` + recordColumns + `
		FROM alert_records
		WHERE record_id = $1
	`

// ON CONFLICT targets the partial unique index, so it only ever fires for SUCCESS rows.
const insertRecordQuery = `
		INSERT INTO alert_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (alert_id) WHERE processing_status = 'SUCCESS' DO NOTHING
		RETURNING record_id
	`

const countByStatusQuery = `
		SELECT processing_status, COUNT(*)
		FROM alert_records
		GROUP BY processing_status
	`
