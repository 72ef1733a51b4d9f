package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema())
	return s
}

func TestStore_RecordAndListBuilds(t *testing.T) {
	s := openStore(t)

	id, err := s.RecordBuild(Build{
		InputPath:  "model.txt",
		InputHash:  HashInput("A binds B --> AB"),
		Species:    3,
		Reactions:  1,
		Parameters: 2,
		Status:     StatusOK,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.RecordBuild(Build{
		InputPath: "broken.txt",
		InputHash: HashInput("A glows"),
		Status:    StatusFailed,
		Error:     "unregistered words in line 1: A glows",
	})
	require.NoError(t, err)

	builds, err := s.ListBuilds(10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	for _, b := range builds {
		assert.NotEmpty(t, b.ID)
		assert.False(t, b.CreatedAt.IsZero())
	}
}

func TestStore_CohortRuns(t *testing.T) {
	s := openStore(t)

	buildID, err := s.RecordBuild(Build{InputPath: "model.txt", InputHash: "x", Status: StatusOK})
	require.NoError(t, err)

	_, err = s.RecordCohortRun(CohortRun{
		BuildID:  buildID,
		Patient:  "patient_1",
		Status:   StatusOK,
		Duration: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = s.RecordCohortRun(CohortRun{
		BuildID: buildID,
		Patient: "patient_2",
		Status:  StatusFailed,
		Error:   "solver diverged",
	})
	require.NoError(t, err)

	runs, err := s.ListCohortRuns(buildID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "patient_1", runs[0].Patient)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.Equal(t, StatusFailed, runs[1].Status)
}

func TestStore_NotOpened(t *testing.T) {
	s := New(nil)
	require.Error(t, s.InitSchema())
	_, err := s.RecordBuild(Build{})
	require.Error(t, err)
	_, err = s.ListBuilds(1)
	require.Error(t, err)
}

func TestHashInput_Deterministic(t *testing.T) {
	assert.Equal(t, HashInput("abc"), HashInput("abc"))
	assert.NotEqual(t, HashInput("abc"), HashInput("abd"))
}
