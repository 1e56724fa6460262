package sqlite

// schema is applied on open. Every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS roster_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    revision INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS item (
    position INTEGER NOT NULL,
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS player (
    position INTEGER NOT NULL,
    name TEXT PRIMARY KEY,
    active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS player_count (
    player TEXT NOT NULL REFERENCES player(name) ON DELETE CASCADE,
    item TEXT NOT NULL,
    count INTEGER NOT NULL CHECK (count >= 0),
    PRIMARY KEY (player, item)
);

CREATE TABLE IF NOT EXISTS history (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    player TEXT NOT NULL,
    item TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    action TEXT NOT NULL
);
`
