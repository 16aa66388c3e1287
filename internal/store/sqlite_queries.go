package store

// SQL query constants used by SQLiteStore. Timestamps are stored as
// fixed-width UTC text so they sort lexically.

const (
	sqliteListStockBySource = `
		SELECT id, source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		FROM stock_records
		WHERE source_id = ?
		ORDER BY id`

	sqliteListAllStock = `
		SELECT id, source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		FROM stock_records
		ORDER BY source_id, id`

	sqliteInsertStock = `
		INSERT INTO stock_records (
			source_id, title, price, stock_label, detail_url, image_url, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	sqliteUpdateStockPrice = `
		UPDATE stock_records
		SET price = ?, last_seen_at = ?
		WHERE id = ? AND source_id = ?`

	sqliteDeleteStock = `DELETE FROM stock_records WHERE id = ? AND source_id = ?`
)

const (
	sqliteIncrementFailure = `
		INSERT INTO failure_state (source_id, consecutive_failures, last_failure_at)
		VALUES (?, 1, ?)
		ON CONFLICT (source_id) DO UPDATE SET
			consecutive_failures = failure_state.consecutive_failures + 1,
			last_failure_at = excluded.last_failure_at
		RETURNING consecutive_failures`

	sqliteResetFailure = `
		UPDATE failure_state
		SET consecutive_failures = 0, last_success_at = ?
		WHERE source_id = ? AND consecutive_failures > 0`

	sqliteGetFailureState = `
		SELECT source_id, consecutive_failures, last_failure_at, last_success_at
		FROM failure_state
		WHERE source_id = ?`

	sqliteTouchSync = `
		INSERT INTO source_sync_state (source_id, last_attempt_at)
		VALUES (?, ?)
		ON CONFLICT (source_id) DO UPDATE SET last_attempt_at = excluded.last_attempt_at`

	sqliteGetSyncState = `
		SELECT source_id, last_attempt_at
		FROM source_sync_state
		WHERE source_id = ?`
)

const (
	sqliteGetStats = `
		SELECT
			(SELECT COUNT(*) FROM stock_records),
			(SELECT COUNT(DISTINCT source_id) FROM stock_records),
			(SELECT COUNT(*) FROM failure_state WHERE consecutive_failures > 0)`

	sqliteListSourceStatus = `
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
