package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name     TEXT NOT NULL DEFAULT '',
	package_name TEXT NOT NULL,
	app_icon     TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL DEFAULT '',
	timestamp    INTEGER NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications(timestamp);
CREATE INDEX IF NOT EXISTS idx_notifications_package ON notifications(package_name);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE notifications ADD COLUMN tag TEXT NOT NULL DEFAULT '';
ALTER TABLE notifications ADD COLUMN notes TEXT NOT NULL DEFAULT '';

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS notification_groups (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon_name   TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	group_type  TEXT NOT NULL DEFAULT 'custom',
	app_count   INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS app_group_memberships (
	package_name TEXT NOT NULL,
	group_id     TEXT NOT NULL REFERENCES notification_groups(id) ON DELETE CASCADE,
	app_name     TEXT NOT NULL DEFAULT '',
	added_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (package_name, group_id)
);

CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON app_group_memberships(group_id);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
