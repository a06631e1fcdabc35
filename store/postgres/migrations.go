package postgres

// migrations run in order inside Migrate. Statements are idempotent.
//
// The partial unique index on vitrine_payments is the durable guarantee that
// at most one completed record ever exists per (user, artifact) pair.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS vitrine_users (
    id              TEXT PRIMARY KEY,
    username        TEXT NOT NULL,
    credential_hash TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vitrine_users_username ON vitrine_users (username);`,
	`
CREATE TABLE IF NOT EXISTS vitrine_artifacts (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    image_ref      TEXT NOT NULL DEFAULT '',
    model_ref      TEXT NOT NULL DEFAULT '',
    price_amount   BIGINT NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT 'usd',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vitrine_artifacts_name ON vitrine_artifacts (name);`,
	`
CREATE TABLE IF NOT EXISTS vitrine_payments (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    artifact_id     TEXT NOT NULL,
    amount          BIGINT NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL DEFAULT 'usd',
    status          TEXT NOT NULL DEFAULT 'pending',
    transaction_ref TEXT NOT NULL DEFAULT '',
    failure_reason  TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`,
	`CREATE INDEX IF NOT EXISTS idx_vitrine_payments_user ON vitrine_payments (user_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_vitrine_payments_pair ON vitrine_payments (user_id, artifact_id, status);`,
	`
CREATE UNIQUE INDEX IF NOT EXISTS idx_vitrine_payments_one_completed
    ON vitrine_payments (user_id, artifact_id)
    WHERE status = 'completed';
`,
}
