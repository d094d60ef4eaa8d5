package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagnostic_records (
	record_id    UUID PRIMARY KEY,
	resident_id  TEXT NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL,
	heart_rate   INTEGER,
	heart_rhythm TEXT,
	risk_level   TEXT,
	note         TEXT
);

CREATE INDEX IF NOT EXISTS idx_diagnostic_records_resident_time
	ON diagnostic_records (resident_id, recorded_at DESC);

CREATE TABLE IF NOT EXISTS sleep_reports (
	resident_id   TEXT NOT NULL,
	report_date   DATE NOT NULL,
	hours_slept   DOUBLE PRECISION NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (resident_id, report_date)
);

CREATE TABLE IF NOT EXISTS rooms (
	room_id   TEXT PRIMARY KEY,
	room_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS room_devices (
	room_id     TEXT NOT NULL REFERENCES rooms(room_id),
	device_id   TEXT NOT NULL,
	device_name TEXT NOT NULL,
	device_type TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'off',
	properties  JSONB,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (room_id, device_id)
);
`

func main() {
	// 连接数据库
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnvInt("DB_PORT", 5432),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "bedside"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	// 执行建表 SQL
	if _, err := db.Exec(schema); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ bedside tables created successfully!")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
