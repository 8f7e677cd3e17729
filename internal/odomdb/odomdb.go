// Package odomdb persists per-scan odometry poses to SQLite so recorded
// runs can be inspected and compared offline.
package odomdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/odometry.report/internal/so3"
)

type OdomDB struct {
	*sql.DB
}

// schema.sql defines the run and pose tables.
//
//go:embed schema.sql
var schemaSQL string

// NewOdomDB opens (creating if necessary) an odometry database at path.
func NewOdomDB(path string) (*OdomDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, err
	}

	log.Println("initialized odometry database schema")

	return &OdomDB{db}, nil
}

// Pose is one estimated scan-end pose.
type Pose struct {
	ScanIndex   int
	ScanEndTime float64
	Pos         so3.Vec3
	Vel         so3.Vec3
	Rot         so3.Mat3
}

// StartRun creates a new run record and returns its ID.
func (db *OdomDB) StartRun(notes string) (string, error) {
	runID := uuid.NewString()
	_, err := db.Exec(`INSERT INTO odom_runs (id, notes) VALUES (?, ?)`, runID, notes)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %v", err)
	}
	return runID, nil
}

// EndRun closes a run and records its scan count.
func (db *OdomDB) EndRun(runID string) error {
	_, err := db.Exec(`
		UPDATE odom_runs
		SET
			end_timestamp = UNIXEPOCH('subsec'),
			scan_count = (SELECT COUNT(*) FROM odom_poses WHERE run_id = ?)
		WHERE id = ?
	`, runID, runID)
	if err != nil {
		return fmt.Errorf("failed to end run: %v", err)
	}
	return nil
}

// RecordPose stores one scan-end pose for a run.
func (db *OdomDB) RecordPose(runID string, p Pose) error {
	query := `
		INSERT INTO odom_poses (
			run_id, scan_index, scan_end_time,
			px, py, pz, vx, vy, vz,
			r00, r01, r02, r10, r11, r12, r20, r21, r22
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		runID, p.ScanIndex, p.ScanEndTime,
		p.Pos[0], p.Pos[1], p.Pos[2],
		p.Vel[0], p.Vel[1], p.Vel[2],
		p.Rot[0], p.Rot[1], p.Rot[2],
		p.Rot[3], p.Rot[4], p.Rot[5],
		p.Rot[6], p.Rot[7], p.Rot[8],
	)
	if err != nil {
		return fmt.Errorf("failed to insert pose: %v", err)
	}
	return nil
}

// Poses returns all poses of a run ordered by scan index.
func (db *OdomDB) Poses(runID string) ([]Pose, error) {
	rows, err := db.Query(`
		SELECT scan_index, scan_end_time,
			px, py, pz, vx, vy, vz,
			r00, r01, r02, r10, r11, r12, r20, r21, r22
		FROM odom_poses WHERE run_id = ? ORDER BY scan_index
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []Pose
	for rows.Next() {
		var p Pose
		if err := rows.Scan(
			&p.ScanIndex, &p.ScanEndTime,
			&p.Pos[0], &p.Pos[1], &p.Pos[2],
			&p.Vel[0], &p.Vel[1], &p.Vel[2],
			&p.Rot[0], &p.Rot[1], &p.Rot[2],
			&p.Rot[3], &p.Rot[4], &p.Rot[5],
			&p.Rot[6], &p.Rot[7], &p.Rot[8],
		); err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}
	return poses, rows.Err()
}
