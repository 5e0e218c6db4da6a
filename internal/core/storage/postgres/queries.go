package postgres

// SQL queries for catalog lookups and audit log writes.

const (
	// queryGetVariation loads one product variation with its price and
	// the adjustments the commerce layer attached to it (JSONB array).
	queryGetVariation = `
		SELECT
			id, product_id, sku, title,
			price_number, price_currency, adjustments
		FROM product_variations
		WHERE id = $1
	`

	// queryInsertSendRecord appends one audit entry for a dispatched event.
	queryInsertSendRecord = `
		INSERT INTO tracking_log (
			uid, event_name, ip_address, user_agent, source_url,
			fbp, fbc, user_data, custom_data, event_data, response_data, created
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// queryPruneSendRecords deletes a bounded batch of expired audit entries.
	// ctid-based subselect keeps the delete batched without an extra index.
	queryPruneSendRecords = `
		DELETE FROM tracking_log
		WHERE ctid IN (
			SELECT ctid FROM tracking_log
			WHERE created < $1
			LIMIT $2
		)
	`

	// queryAuditTableExists guards audit writes: the log table is optional
	// and the recorder degrades to a no-op when it is absent.
	queryAuditTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'tracking_log'
		)
	`
)
