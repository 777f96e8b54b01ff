package postgres

const (
	queryCreateSchema = `
		CREATE TABLE IF NOT EXISTS meeting_transitions (
			session_id  text        NOT NULL,
			version     bigint      NOT NULL,
			command     text        NOT NULL,
			status      text        NOT NULL,
			speaker     text,
			emitted     text[]      NOT NULL DEFAULT '{}',
			recorded_at timestamptz NOT NULL,
			PRIMARY KEY (session_id, version)
		);
	`
	queryInsertTransition = `
		INSERT INTO meeting_transitions (
			session_id, version, command, status, speaker, emitted, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, version) DO NOTHING;
	`
	queryListTransitions = `
		SELECT session_id, version, command, status, COALESCE(speaker, ''), emitted, recorded_at
		FROM meeting_transitions
		WHERE session_id = $1
		ORDER BY version DESC
		LIMIT $2;
	`
)
