package odomdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/odometry.report/internal/so3"
)

func openTestDB(t *testing.T) *OdomDB {
	t.Helper()
	db, err := NewOdomDB(filepath.Join(t.TempDir(), "odom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartRunCreatesDistinctIDs(t *testing.T) {
	db := openTestDB(t)

	a, err := db.StartRun("first")
	require.NoError(t, err)
	b, err := db.StartRun("second")
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestRecordAndReadBackPoses(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("replay")
	require.NoError(t, err)

	want := []Pose{
		{
			ScanIndex:   0,
			ScanEndTime: 100.1,
			Pos:         so3.Vec3{1, 2, 3},
			Vel:         so3.Vec3{0.1, 0.2, 0.3},
			Rot:         so3.Identity(),
		},
		{
			ScanIndex:   1,
			ScanEndTime: 100.2,
			Pos:         so3.Vec3{1.5, 2.5, 3.5},
			Vel:         so3.Vec3{0.15, 0.25, 0.35},
			Rot:         so3.Exp(so3.Vec3{0, 0, 0.1}),
		},
	}
	for _, p := range want {
		require.NoError(t, db.RecordPose(runID, p))
	}

	got, err := db.Poses(runID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPosesScopedToRun(t *testing.T) {
	db := openTestDB(t)

	runA, err := db.StartRun("a")
	require.NoError(t, err)
	runB, err := db.StartRun("b")
	require.NoError(t, err)

	require.NoError(t, db.RecordPose(runA, Pose{ScanIndex: 0, Rot: so3.Identity()}))
	require.NoError(t, db.RecordPose(runB, Pose{ScanIndex: 0, Rot: so3.Identity()}))
	require.NoError(t, db.RecordPose(runB, Pose{ScanIndex: 1, Rot: so3.Identity()}))

	gotA, err := db.Poses(runA)
	require.NoError(t, err)
	gotB, err := db.Poses(runB)
	require.NoError(t, err)

	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)
}

func TestEndRunRecordsScanCount(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("counted")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.RecordPose(runID, Pose{ScanIndex: i, Rot: so3.Identity()}))
	}
	require.NoError(t, db.EndRun(runID))

	var count int
	var end sql.NullFloat64
	err = db.QueryRow(`SELECT scan_count, end_timestamp FROM odom_runs WHERE id = ?`, runID).Scan(&count, &end)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.True(t, end.Valid, "end_timestamp should be set after EndRun")
}
