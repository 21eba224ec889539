package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yihuitong/internal/domain"
)

func TestPageID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/login", "P-LOGIN"},
		{"/meeting-select", "P-MEETING-SELECT"},
		{"/meeting-room", "P-MEETING-ROOM"},
		{"/meeting-record/meeting-001", "P-MEETING-RECORD/MEETING-001"},
		{"/", "P-"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PageID(tt.path))
		})
	}
}

func TestNewPathChange(t *testing.T) {
	change := NewPathChange("/meeting-room", "roomNumber=1234&role=host")
	assert.Equal(t, PathChangeType, change.Type)
	assert.Equal(t, "P-MEETING-ROOM", change.PageID)
	assert.Equal(t, "/meeting-room", change.Pathname)
	assert.Equal(t, "?roomNumber=1234&role=host", change.Search)

	empty := NewPathChange("/login", "")
	assert.Equal(t, "", empty.Search)
}

func TestPathChangeFromTarget(t *testing.T) {
	change, err := PathChangeFromTarget(MeetingRoomURL("1234", domain.RoleParticipant))
	require.NoError(t, err)
	assert.Equal(t, "/meeting-room", change.Pathname)
	assert.Equal(t, "?roomNumber=1234&role=participant", change.Search)
}

func TestMeetingRoomURL(t *testing.T) {
	assert.Equal(t, "/meeting-room?roomNumber=1234&role=participant", MeetingRoomURL("1234", domain.RoleParticipant))
	assert.Equal(t, "/meeting-room?roomNumber=0042&role=host", MeetingRoomURL("0042", domain.RoleHost))
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("/meeting-record/meeting-001")
	require.True(t, ok)
	assert.Equal(t, PathMeetingRecord, s.Path)

	s, ok = Lookup("/meeting-room")
	require.True(t, ok)
	assert.Equal(t, "译会通 - 会议进行中", s.Title)

	_, ok = Lookup("/meeting-roomx")
	assert.False(t, ok)
	_, ok = Lookup("/nowhere")
	assert.False(t, ok)
}

func TestScreensReturnsCopy(t *testing.T) {
	all := Screens()
	require.Len(t, all, 6)
	all[0].Title = "changed"
	assert.Equal(t, "译会通 - 登录", Screens()[0].Title)
}
