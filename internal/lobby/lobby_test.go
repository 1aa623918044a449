package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysticgrid/go-server/internal/game"
)

func TestNewLobbyHostJoins(t *testing.T) {
	host := game.NewPlayer("host")
	l := New("lobby_1", host)

	st := l.State()
	assert.Equal(t, "lobby_1", st.LobbyID)
	assert.Equal(t, host.ID, st.HostID)
	require.Len(t, st.Players, 1)
	assert.Equal(t, StatusWaiting, st.Status)
	assert.True(t, st.CanStart)
	assert.Equal(t, game.DefaultBoardSize, st.Settings.BoardSize)
	assert.Equal(t, "lobby_1", host.LobbyID())
}

func TestAddPlayerCapAndDuplicates(t *testing.T) {
	host := game.NewPlayer("host")
	l := New("lobby_1", host)
	assert.False(t, l.AddPlayer(host), "host is already a member")

	for i := 0; i < MaxPlayers-1; i++ {
		assert.True(t, l.AddPlayer(game.NewPlayer("")))
	}
	assert.False(t, l.AddPlayer(game.NewPlayer("late")), "lobby is full")
	assert.Len(t, l.State().Players, MaxPlayers)
}

func TestHostReassignmentOnLeave(t *testing.T) {
	host := game.NewPlayer("host")
	second := game.NewPlayer("second")
	l := New("lobby_1", host)
	require.True(t, l.AddPlayer(second))

	require.True(t, l.RemovePlayer(host.ID))
	assert.Equal(t, "", host.LobbyID())
	assert.Equal(t, second.ID, l.State().HostID, "longest-waiting player inherits the lobby")

	assert.False(t, l.RemovePlayer("nobody"))
	require.True(t, l.RemovePlayer(second.ID))
	assert.True(t, l.Empty())
}

func TestSetBoardSizeHostOnly(t *testing.T) {
	host := game.NewPlayer("host")
	guest := game.NewPlayer("guest")
	l := New("lobby_1", host)
	require.True(t, l.AddPlayer(guest))

	assert.False(t, l.SetBoardSize(guest.ID, 4))
	assert.True(t, l.SetBoardSize(host.ID, 4))
	assert.Equal(t, 4, l.State().Settings.BoardSize)
}

func TestMarkStartedIsTerminal(t *testing.T) {
	host := game.NewPlayer("host")
	guest := game.NewPlayer("guest")
	l := New("lobby_1", host)
	require.True(t, l.AddPlayer(guest))
	require.True(t, l.CanStart())

	roster := l.MarkStarted()
	require.Len(t, roster, 2)
	assert.Equal(t, host.ID, roster[0].ID, "roster keeps join order")
	assert.Equal(t, guest.ID, roster[1].ID)

	assert.Equal(t, StatusStarted, l.State().Status)
	assert.False(t, l.CanStart())
	assert.Nil(t, l.MarkStarted(), "a lobby starts at most once")
}
