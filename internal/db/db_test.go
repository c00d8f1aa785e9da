package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/armlink/internal/arm"
	"github.com/banshee-data/armlink/internal/monitoring"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	database, err := Open(filepath.Join(t.TempDir(), "history.db"), "arm-test")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpenRegistersRun(t *testing.T) {
	database := openTestDB(t)
	assert.NotEmpty(t, database.RunID())

	var count int
	require.NoError(t, database.QueryRow(
		"SELECT COUNT(*) FROM runs WHERE run_id = ? AND arm_id = 'arm-test'",
		database.RunID()).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, database.MigrateUp())

	version, dirty, err := database.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestRecordAndListCommands(t *testing.T) {
	database := openTestDB(t)

	database.RecordCommand("ops,1,power,on;")
	database.RecordCommand("ops,2,brakes;")
	database.RecordAck("ops,1,power,on,0;")

	records, err := database.RecentCommands(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ops,2,brakes;", records[0].Line) // newest first
	assert.Equal(t, database.RunID(), records[0].RunID)

	var acks int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM acks").Scan(&acks))
	assert.Equal(t, 1, acks)
}

func TestRecordEventAndStatus(t *testing.T) {
	database := openTestDB(t)

	database.RecordEvent("auto_init_start", "force limit 40.0 N")
	events, err := database.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "auto_init_start", events[0].Kind)

	st := &arm.Status{
		TimeMS:    1234,
		Joints:    [arm.JointCount]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		RobotMode: arm.RobotModeRunning,
	}
	database.RecordStatus(st)

	var mode int32
	var joint0 float64
	require.NoError(t, database.QueryRow(
		"SELECT robot_mode, joint_0 FROM status_samples").Scan(&mode, &joint0))
	assert.Equal(t, arm.RobotModeRunning, mode)
	assert.InDelta(t, 0.1, joint0, 1e-12)
}

func TestRecentCommandsDefaultLimit(t *testing.T) {
	database := openTestDB(t)
	database.RecordCommand("ops,1,set_home;")

	records, err := database.RecentCommands(0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
