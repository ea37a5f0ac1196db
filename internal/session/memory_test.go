package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnknownChatIsFreshIdle(t *testing.T) {
	store := NewMemoryStore()

	sess := store.Get(42)
	assert.Equal(t, int64(42), sess.ChatID)
	assert.Equal(t, StateIdle, sess.State)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, StateIdle, store.GetState(42))
}

func TestUpdateCreatesAndMutates(t *testing.T) {
	store := NewMemoryStore()

	store.Update(42, func(s *Session) {
		s.Token = "tok"
		s.State = StateAuthenticated
	})

	assert.True(t, store.Authenticated(42))
	assert.Equal(t, StateAuthenticated, store.GetState(42))
}

func TestGetReturnsACopy(t *testing.T) {
	store := NewMemoryStore()
	store.Update(42, func(s *Session) {
		s.Transfer = &TransferDraft{Recipient: "a@b.com"}
	})

	sess := store.Get(42)
	sess.Transfer.Recipient = "mutated"

	assert.Equal(t, "a@b.com", store.Get(42).Transfer.Recipient)
}

func TestDeleteForgetsEverything(t *testing.T) {
	store := NewMemoryStore()
	store.Update(42, func(s *Session) { s.Token = "tok" })

	store.Delete(42)

	assert.False(t, store.Authenticated(42))
	assert.Equal(t, StateIdle, store.GetState(42))
}

func TestInProgress(t *testing.T) {
	store := NewMemoryStore()

	assert.False(t, store.InProgress(42))

	store.SetState(42, StateAwaitEmail)
	assert.True(t, store.InProgress(42))

	store.SetState(42, StateAuthenticated)
	assert.False(t, store.InProgress(42))

	store.SetState(42, StateBulkMenu)
	assert.True(t, store.InProgress(42))
}

func TestClearDraftsDropsAllScratchData(t *testing.T) {
	s := &Session{
		Token:       "tok",
		PendingAuth: &PendingAuth{Email: "a@b.com"},
		Transfer:    &TransferDraft{Recipient: "a@b.com"},
		Bulk:        &BulkDraft{},
		Withdrawal:  &WithdrawalDraft{},
	}

	s.ClearDrafts()

	assert.Nil(t, s.PendingAuth)
	assert.Nil(t, s.Transfer)
	assert.Nil(t, s.Bulk)
	assert.Nil(t, s.Withdrawal)
	assert.Equal(t, "tok", s.Token, "credentials survive draft clearing")
}

func TestSweepEvictsOnlyIdleSessions(t *testing.T) {
	now := time.Now()
	store := &memoryStore{
		sessions: make(map[int64]*Session),
		now:      func() time.Time { return now },
	}

	store.Update(1, func(s *Session) { s.Token = "a" })
	store.Update(2, func(s *Session) { s.Token = "b" })

	// Chat 2 comes back later; chat 1 goes stale.
	store.now = func() time.Time { return now.Add(30 * time.Minute) }
	store.Update(2, func(s *Session) {})

	evicted := store.Sweep(20 * time.Minute)
	require.Equal(t, []int64{1}, evicted)
	assert.False(t, store.Authenticated(1))
	assert.True(t, store.Authenticated(2))
}

func TestSweepDisabledWithZeroTTL(t *testing.T) {
	store := NewMemoryStore()
	store.Update(1, func(s *Session) { s.Token = "a" })

	assert.Nil(t, store.Sweep(0))
	assert.True(t, store.Authenticated(1))
}
