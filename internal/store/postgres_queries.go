package store

// SQL query constants used by PostgresStore.

// Stock ledger queries.
const (
	pgListStockBySource = `
		SELECT id, source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		FROM stock_records
		WHERE source_id = $1
		ORDER BY id`

	pgListAllStock = `
		SELECT id, source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		FROM stock_records
		ORDER BY source_id, id`

	pgInsertStock = `
		INSERT INTO stock_records (
			source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		) VALUES (
			@source_id, @title, @price, @stock_label, @detail_url, @image_url, @last_seen_at
		)
		RETURNING id`

	pgUpdateStockPrice = `
		UPDATE stock_records
		SET price = $3, last_seen_at = $4
		WHERE id = $1 AND source_id = $2`

	pgDeleteStock = `DELETE FROM stock_records WHERE id = $1 AND source_id = $2`

	// pgLockSource serializes reconciliation of one source across
	// concurrent processes sharing the database.
	pgLockSource = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// Failure and sync state queries.
const (
	pgIncrementFailure = `
		INSERT INTO failure_state (source_id, consecutive_failures, last_failure_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (source_id) DO UPDATE SET
			consecutive_failures = failure_state.consecutive_failures + 1,
			last_failure_at = EXCLUDED.last_failure_at
		RETURNING consecutive_failures`

	pgResetFailure = `
		UPDATE failure_state
		SET consecutive_failures = 0, last_success_at = $2
		WHERE source_id = $1 AND consecutive_failures > 0`

	pgGetFailureState = `
		SELECT source_id, consecutive_failures, last_failure_at, last_success_at
		FROM failure_state
		WHERE source_id = $1`

	pgTouchSync = `
		INSERT INTO source_sync_state (source_id, last_attempt_at)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO UPDATE SET last_attempt_at = EXCLUDED.last_attempt_at`

	pgGetSyncState = `
		SELECT source_id, last_attempt_at
		FROM source_sync_state
		WHERE source_id = $1`
)

// Reporting queries.
const (
	pgGetStats = `
		SELECT
			(SELECT COUNT(*) FROM stock_records),
			(SELECT COUNT(DISTINCT source_id) FROM stock_records),
			(SELECT COUNT(*) FROM failure_state WHERE consecutive_failures > 0)`

	pgListSourceStatus = `
		WITH ids AS (
			SELECT source_id FROM source_sync_state
			UNION SELECT source_id FROM failure_state
			UNION SELECT source_id FROM stock_records
		)
		SELECT ids.source_id,
			(SELECT COUNT(*) FROM stock_records r WHERE r.source_id = ids.source_id),
			s.last_attempt_at,
			COALESCE(f.consecutive_failures, 0),
			f.last_failure_at,
			f.last_success_at
		FROM ids
		LEFT JOIN source_sync_state s ON s.source_id = ids.source_id
		LEFT JOIN failure_state f ON f.source_id = ids.source_id
		ORDER BY ids.source_id`
)
