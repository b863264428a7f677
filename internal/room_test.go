package internal_test

import (
	"testing"

	"github.com/koopa0/arena-relay/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRoom 測試創建新房間
func TestNewRoom(t *testing.T) {
	room := internal.NewRoom("AB12XY", "conn_a")

	require.NotNil(t, room)
	assert.Equal(t, "AB12XY", room.Code)
	assert.Equal(t, internal.StateWaiting, room.State())
	assert.Equal(t, 1, room.MemberCount())
	assert.Equal(t, 1, room.Slot("conn_a"))
	assert.Equal(t, 0, room.VoteCount())
}

// TestRoom_AddMember 測試加入成員與槽位分配
func TestRoom_AddMember(t *testing.T) {
	tests := []struct {
		name      string
		setupRoom func() *internal.Room
		conn      internal.ConnID
		validate  func(t *testing.T, room *internal.Room, slot int, err error)
	}{
		{
			name: "second member gets slot 2 and room pairs",
			setupRoom: func() *internal.Room {
				return internal.NewRoom("AB12XY", "conn_a")
			},
			conn: "conn_b",
			validate: func(t *testing.T, room *internal.Room, slot int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2, slot)
				assert.Equal(t, 2, room.MemberCount())
				assert.Equal(t, internal.StatePairing, room.State())

				// 槽位由加入順序唯一決定
				assert.Equal(t, 1, room.Slot("conn_a"))
				assert.Equal(t, 2, room.Slot("conn_b"))
			},
		},
		{
			name: "room full rejects third member",
			setupRoom: func() *internal.Room {
				room := internal.NewRoom("AB12XY", "conn_a")
				_, err := room.AddMember("conn_b")
				require.NoError(t, err)
				return room
			},
			conn: "conn_c",
			validate: func(t *testing.T, room *internal.Room, slot int, err error) {
				require.ErrorIs(t, err, internal.ErrRoomFull)
				// 失敗的加入不得改動成員序列
				assert.Equal(t, 2, room.MemberCount())
				assert.Equal(t, 0, room.Slot("conn_c"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := tt.setupRoom()
			slot, err := room.AddMember(tt.conn)
			tt.validate(t, room, slot, err)
		})
	}
}

// TestRoom_Opponent 測試對手查找
func TestRoom_Opponent(t *testing.T) {
	room := internal.NewRoom("AB12XY", "conn_a")

	t.Run("no opponent in waiting room", func(t *testing.T) {
		_, ok := room.Opponent("conn_a")
		assert.False(t, ok)
	})

	t.Run("opponent after pairing", func(t *testing.T) {
		_, err := room.AddMember("conn_b")
		require.NoError(t, err)

		opp, ok := room.Opponent("conn_a")
		require.True(t, ok)
		assert.Equal(t, internal.ConnID("conn_b"), opp)

		opp, ok = room.Opponent("conn_b")
		require.True(t, ok)
		assert.Equal(t, internal.ConnID("conn_a"), opp)
	})
}

// TestRoom_Vote 測試重賽投票的集合語義
func TestRoom_Vote(t *testing.T) {
	setup := func() *internal.Room {
		room := internal.NewRoom("AB12XY", "conn_a")
		_, err := room.AddMember("conn_b")
		require.NoError(t, err)
		room.Start()
		return room
	}

	t.Run("single vote does not reach consensus", func(t *testing.T) {
		room := setup()
		agreed := room.Vote("conn_a")
		assert.False(t, agreed)
		assert.Equal(t, 1, room.VoteCount())
		assert.True(t, room.HasVoted("conn_a"))
	})

	t.Run("repeated vote is not double counted", func(t *testing.T) {
		room := setup()
		assert.False(t, room.Vote("conn_a"))
		assert.False(t, room.Vote("conn_a"))
		assert.Equal(t, 1, room.VoteCount())
	})

	t.Run("both votes reach consensus", func(t *testing.T) {
		room := setup()
		assert.False(t, room.Vote("conn_a"))
		assert.True(t, room.Vote("conn_b"))
		assert.Equal(t, 2, room.VoteCount())
	})

	t.Run("non member vote is rejected", func(t *testing.T) {
		room := setup()
		agreed := room.Vote("conn_x")
		assert.False(t, agreed)
		// rematchVotes ⊆ members 恆成立
		assert.Equal(t, 0, room.VoteCount())
	})
}

// TestRoom_VoteReset 測試投票集合在開局與結束時清空
func TestRoom_VoteReset(t *testing.T) {
	room := internal.NewRoom("AB12XY", "conn_a")
	_, err := room.AddMember("conn_b")
	require.NoError(t, err)

	room.Start()
	room.Vote("conn_a")
	require.Equal(t, 1, room.VoteCount())

	t.Run("EndGame clears votes", func(t *testing.T) {
		room.EndGame()
		assert.Equal(t, internal.StateGameOver, room.State())
		assert.Equal(t, 0, room.VoteCount())
	})

	t.Run("Start clears votes", func(t *testing.T) {
		room.Vote("conn_b")
		require.Equal(t, 1, room.VoteCount())

		room.Start()
		assert.Equal(t, internal.StateActive, room.State())
		assert.Equal(t, 0, room.VoteCount())
	})
}

// TestRoom_StateTransitions 測試狀態機轉換
func TestRoom_StateTransitions(t *testing.T) {
	room := internal.NewRoom("AB12XY", "conn_a")
	assert.Equal(t, internal.StateWaiting, room.State())

	_, err := room.AddMember("conn_b")
	require.NoError(t, err)
	assert.Equal(t, internal.StatePairing, room.State())

	room.Start()
	assert.Equal(t, internal.StateActive, room.State())

	room.EndGame()
	assert.Equal(t, internal.StateGameOver, room.State())

	room.Start() // 重賽成立後再次開局
	assert.Equal(t, internal.StateActive, room.State())

	room.Close()
	assert.Equal(t, internal.StateClosed, room.State())
}
