package history

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"raidcast/internal/reliability"
)

// Open opens (or creates) the history database and runs migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the forecast history tables.
func Migrate(db *sql.DB) error {
	statements := []struct {
		label string
		sql   string
	}{
		{"forecast_passes", `
			CREATE TABLE IF NOT EXISTS forecast_passes (
				pass_id        TEXT PRIMARY KEY,
				disk_count     INTEGER NOT NULL,
				array_afr      REAL    NOT NULL,
				array_afp      REAL    NOT NULL,
				timestamp      DATETIME DEFAULT CURRENT_TIMESTAMP
			);`},
		{"device_forecasts", `
			CREATE TABLE IF NOT EXISTS device_forecasts (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				pass_id   TEXT NOT NULL,
				serial    TEXT NOT NULL,
				name      TEXT,
				member    INTEGER NOT NULL,
				afr       REAL NOT NULL,
				afp       REAL NOT NULL,
				timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(pass_id, serial)
			);`},
		{"device_forecasts indexes", `
			CREATE INDEX IF NOT EXISTS idx_device_forecasts_serial    ON device_forecasts(serial);
			CREATE INDEX IF NOT EXISTS idx_device_forecasts_timestamp ON device_forecasts(timestamp);`},
	}

	for _, s := range statements {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("history migration failed at [%s]: %w", s.label, err)
		}
	}
	return nil
}

// StorePass persists a forecast pass and returns the generated pass ID.
func StorePass(db *sql.DB, f *reliability.Forecast) (string, error) {
	passID := uuid.NewString()
	now := time.Now().UTC().Format(timeFormat)

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO forecast_passes (pass_id, disk_count, array_afr, array_afp, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, passID, f.DiskCount, f.ArrayFailureRate, f.ArrayFailureProbability, now)
	if err != nil {
		return "", err
	}

	for i := range f.Devices {
		df := &f.Devices[i]
		_, err = tx.Exec(`
			INSERT INTO device_forecasts (pass_id, serial, name, member, afr, afp, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, passID, df.Device.Serial, df.Device.Name, df.Device.ArrayMember, df.AFR, df.AFP, now)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return passID, nil
}

// LatestPass returns the most recent pass summary, or nil when the
// database is empty.
func LatestPass(db *sql.DB) (*PassRecord, error) {
	row := db.QueryRow(`
		SELECT pass_id, disk_count, array_afr, array_afp, timestamp
		FROM forecast_passes
		ORDER BY timestamp DESC, pass_id DESC LIMIT 1
	`)

	var p PassRecord
	var ts string
	err := row.Scan(&p.PassID, &p.DiskCount, &p.ArrayFailureRate, &p.ArrayFailureProbability, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Timestamp, _ = time.Parse(timeFormat, ts)
	return &p, nil
}

// DeviceHistory returns a drive's forecast records within the day range,
// oldest first.
func DeviceHistory(db *sql.DB, serial string, days int) ([]DeviceRecord, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(timeFormat)

	rows, err := db.Query(`
		SELECT id, pass_id, serial, name, member, afr, afp, timestamp
		FROM device_forecasts
		WHERE serial = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, serial, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeviceRecord
	for rows.Next() {
		var r DeviceRecord
		var ts string
		var name sql.NullString
		if err := rows.Scan(&r.ID, &r.PassID, &r.Serial, &name, &r.Member, &r.AFR, &r.AFP, &ts); err != nil {
			log.Printf("history: skipping unreadable row for %s: %v", serial, err)
			continue
		}
		r.Name = name.String
		r.Timestamp, _ = time.Parse(timeFormat, ts)
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestDeviceRecords returns the most recent forecast for every drive.
func LatestDeviceRecords(db *sql.DB) ([]DeviceRecord, error) {
	rows, err := db.Query(`
		SELECT d.id, d.pass_id, d.serial, d.name, d.member, d.afr, d.afp, d.timestamp
		FROM device_forecasts d
		INNER JOIN (
			SELECT serial, MAX(timestamp) AS max_ts
			FROM device_forecasts
			GROUP BY serial
		) latest ON d.serial = latest.serial AND d.timestamp = latest.max_ts
		ORDER BY d.afp DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeviceRecord
	for rows.Next() {
		var r DeviceRecord
		var ts string
		var name sql.NullString
		if err := rows.Scan(&r.ID, &r.PassID, &r.Serial, &name, &r.Member, &r.AFR, &r.AFP, &ts); err != nil {
			continue
		}
		r.Name = name.String
		r.Timestamp, _ = time.Parse(timeFormat, ts)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes records older than the retention window.
func Prune(db *sql.DB, retainDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retainDays).UTC().Format(timeFormat)

	if _, err := db.Exec(`DELETE FROM device_forecasts WHERE timestamp < ?`, cutoff); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM forecast_passes WHERE timestamp < ?`, cutoff)
	return err
}
