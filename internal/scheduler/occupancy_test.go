package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceOccupancy_ReserveAndIsFree(t *testing.T) {
	o := NewResourceOccupancy()
	require.True(t, o.IsFree(ResourceClassroom, "R1", Monday, 10*60, 1.0))

	require.NoError(t, o.Reserve(ResourceClassroom, "R1", Monday, 10*60, 1.0, "sess-1"))
	assert.False(t, o.IsFree(ResourceClassroom, "R1", Monday, 10*60, 1.0))
	assert.True(t, o.IsFree(ResourceClassroom, "R1", Tuesday, 10*60, 1.0), "a different day must stay free")
}

// Sc-F: a session Mon 10:00-11:00 blocks a later attempt at Mon 10:30-11:30
// in the same classroom, because the 10:30 segment is shared.
func TestResourceOccupancy_Sc_F_HalfHourOverlapRejected(t *testing.T) {
	o := NewResourceOccupancy()
	require.NoError(t, o.Reserve(ResourceClassroom, "R1", Monday, 10*60, 1.0, "sess-1"))

	err := o.Reserve(ResourceClassroom, "R1", Monday, 10*60+30, 1.0, "sess-2")
	assert.Error(t, err)
	assert.False(t, o.IsFree(ResourceClassroom, "R1", Monday, 10*60+30, 1.0))
}

func TestResourceOccupancy_ReleaseFreesSegments(t *testing.T) {
	o := NewResourceOccupancy()
	require.NoError(t, o.Reserve(ResourceTeacher, "T1", Monday, 9*60, 1.5, "sess-1"))
	o.Release(ResourceTeacher, "T1", Monday, 9*60, 1.5)
	assert.True(t, o.IsFree(ResourceTeacher, "T1", Monday, 9*60, 1.5))
}

func TestResourceOccupancy_MoveRollsBackOnConflict(t *testing.T) {
	o := NewResourceOccupancy()
	require.NoError(t, o.Reserve(ResourceTeacher, "T1", Monday, 9*60, 1.0, "sess-1"))
	require.NoError(t, o.Reserve(ResourceTeacher, "T1", Tuesday, 9*60, 1.0, "sess-2"))

	legs := []ReservationMove{{Kind: ResourceTeacher, ResourceID: "T1"}}
	err := o.Move(legs, "sess-1", Monday, 9*60, Tuesday, 9*60, 1.0)
	assert.Error(t, err, "moving into sess-2's slot must fail")
	assert.False(t, o.IsFree(ResourceTeacher, "T1", Monday, 9*60, 1.0), "old reservation must be restored")
}

func TestResourceOccupancy_Clone_IsIndependent(t *testing.T) {
	o := NewResourceOccupancy()
	require.NoError(t, o.Reserve(ResourceClassroom, "R1", Monday, 10*60, 1.0, "sess-1"))

	clone := o.Clone()
	clone.Release(ResourceClassroom, "R1", Monday, 10*60, 1.0)

	assert.True(t, clone.IsFree(ResourceClassroom, "R1", Monday, 10*60, 1.0))
	assert.False(t, o.IsFree(ResourceClassroom, "R1", Monday, 10*60, 1.0), "original must be unaffected")
}
