package storage

const schema = `
-- Violations, keyed by identity hash
CREATE TABLE IF NOT EXISTS violations (
    hash TEXT PRIMARY KEY,
    file TEXT NOT NULL,
    line INTEGER NOT NULL DEFAULT 0,
    col INTEGER NOT NULL DEFAULT 0,
    code TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    severity TEXT NOT NULL CHECK(severity IN ('error', 'warn', 'info')),
    source TEXT NOT NULL,
    rule TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    fix_suggestion TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'resolved')),
    first_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_violations_file ON violations(file);
CREATE INDEX IF NOT EXISTS idx_violations_severity ON violations(severity);
CREATE INDEX IF NOT EXISTS idx_violations_source ON violations(source);
CREATE INDEX IF NOT EXISTS idx_violations_status ON violations(status);

-- Rule schedules; never deleted, only disabled
CREATE TABLE IF NOT EXISTS rule_schedules (
    rule TEXT NOT NULL,
    engine TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    priority INTEGER NOT NULL DEFAULT 100,
    check_frequency_ms INTEGER NOT NULL DEFAULT 30000,
    last_checked DATETIME,
    next_check DATETIME,
    PRIMARY KEY (rule, engine)
);

CREATE INDEX IF NOT EXISTS idx_rule_schedules_next ON rule_schedules(enabled, next_check);

-- Rule check history
CREATE TABLE IF NOT EXISTS rule_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rule TEXT NOT NULL,
    engine TEXT NOT NULL,
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running', 'completed', 'failed')),
    violations_found INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_rule_checks_rule ON rule_checks(rule, engine);

-- Performance metrics
CREATE TABLE IF NOT EXISTS performance_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    value REAL NOT NULL,
    unit TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_performance_metrics_name ON performance_metrics(name);
`
