package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_AppendAndRecent(t *testing.T) {
	a := openTestArchive(t)

	sess, err := a.CreateSession("test")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	_, err = a.AppendMessage(sess.ID, Turn{Role: RoleUser, Content: "turn the volume up"})
	require.NoError(t, err)
	_, err = a.AppendMessage(sess.ID, Turn{Role: RoleAssistant, Content: "Volume set to 60%"})
	require.NoError(t, err)

	msgs, err := a.RecentMessages(sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, RoleUser, msgs[0].Role)
	require.Equal(t, "turn the volume up", msgs[0].Content)
	require.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestArchive_RecentLimit(t *testing.T) {
	a := openTestArchive(t)

	sess, err := a.CreateSession("")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := a.AppendMessage(sess.ID, Turn{Role: RoleUser, Content: string(rune('a' + i))})
		require.NoError(t, err)
	}

	msgs, err := a.RecentMessages(sess.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Oldest-first ordering over the most recent window.
	require.Equal(t, "d", msgs[0].Content)
	require.Equal(t, "e", msgs[1].Content)
}

func TestArchive_Search(t *testing.T) {
	a := openTestArchive(t)

	sess, err := a.CreateSession("search")
	require.NoError(t, err)

	_, err = a.AppendMessage(sess.ID, Turn{Role: RoleUser, Content: "dim the screen brightness"})
	require.NoError(t, err)
	_, err = a.AppendMessage(sess.ID, Turn{Role: RoleUser, Content: "what time is it"})
	require.NoError(t, err)

	hits, err := a.Search("brightness", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Contains(t, hits[0].Content, "brightness")
}

func TestArchive_SessionsAndDelete(t *testing.T) {
	a := openTestArchive(t)

	s1, err := a.CreateSession("first")
	require.NoError(t, err)
	s2, err := a.CreateSession("second")
	require.NoError(t, err)

	_, err = a.AppendMessage(s1.ID, Turn{Role: RoleUser, Content: "hello"})
	require.NoError(t, err)

	sessions, err := a.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	var found bool
	for _, s := range sessions {
		if s.ID == s1.ID {
			found = true
			require.Equal(t, 1, s.MessageCount)
		}
	}
	require.True(t, found)

	require.NoError(t, a.DeleteSession(s1.ID))
	sessions, err = a.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, s2.ID, sessions[0].ID)
}
