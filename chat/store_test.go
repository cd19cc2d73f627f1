package chat

import (
	"sync"
	"testing"

	"github.com/datachat-cli/datachat/backend"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendMessageAssignsMonotonicIDs(t *testing.T) {
	s := NewStore()

	first := s.AppendMessage("hello", OriginUser)
	second := s.AppendMessage("hi there", OriginAssistant)

	require.Less(t, first.ID, second.ID)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Text)
	require.Equal(t, OriginUser, msgs[0].Origin)
	require.Equal(t, "hi there", msgs[1].Text)
	require.Equal(t, OriginAssistant, msgs[1].Origin)
}

func TestStoreBeginSubmissionRejectsWhileInFlight(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.BeginSubmission())
	require.True(t, s.InFlight())

	err := s.BeginSubmission()
	require.ErrorIs(t, err, ErrAlreadyInFlight)
}

func TestStoreBeginSubmissionClearsPriorState(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.BeginSubmission())
	s.AppendStreamToken("partial")
	s.CompleteStreaming("partial answer", &backend.QueryResult{SQLQuery: "SELECT 1"})
	require.NotNil(t, s.Result())

	require.NoError(t, s.BeginSubmission())
	require.Nil(t, s.Result())

	text, active := s.StreamingText()
	require.Empty(t, text)
	require.False(t, active)
}

func TestStoreStreamTokensAccumulate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BeginSubmission())

	s.AppendStreamToken("The answer")
	s.AppendStreamToken(" is")
	s.AppendStreamToken(" 42.")

	text, active := s.StreamingText()
	require.True(t, active)
	require.Equal(t, "The answer is 42.", text)
}

func TestStoreLateTokensAreDropped(t *testing.T) {
	s := NewStore()

	// Idle store: no active submission, tokens must vanish.
	s.AppendStreamToken("ghost")
	text, active := s.StreamingText()
	require.Empty(t, text)
	require.False(t, active)

	// Settled submission: same rule.
	require.NoError(t, s.BeginSubmission())
	s.CompleteStreaming("done", nil)
	s.AppendStreamToken("late")

	text, active = s.StreamingText()
	require.Empty(t, text)
	require.False(t, active)
	require.Len(t, s.Messages(), 1)
}

func TestStoreCompleteStreamingSettles(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BeginSubmission())
	s.AppendStreamToken("partial")

	result := &backend.QueryResult{
		SQLQuery: "SELECT name FROM users",
		Table:    &backend.Table{Columns: []string{"name"}},
	}
	s.CompleteStreaming("full answer", result)

	require.False(t, s.InFlight())
	require.Same(t, result, s.Result())

	text, active := s.StreamingText()
	require.Empty(t, text)
	require.False(t, active)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "full answer", msgs[0].Text)
	require.Equal(t, OriginAssistant, msgs[0].Origin)
}

func TestStoreCompleteStreamingIdempotentWhenIdle(t *testing.T) {
	s := NewStore()

	s.CompleteStreaming("nobody asked", &backend.QueryResult{})

	require.Empty(t, s.Messages())
	require.Nil(t, s.Result())
}

func TestStoreCompleteSynchronousSettles(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BeginSubmission())

	result := &backend.QueryResult{ChartPNG: []byte{0x89, 'P', 'N', 'G'}}
	s.CompleteSynchronous("here is your chart", result)

	require.False(t, s.InFlight())
	require.Same(t, result, s.Result())

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "here is your chart", msgs[0].Text)
}

func TestStoreFailSubmissionLeavesResultCleared(t *testing.T) {
	s := NewStore()

	// Seed a result from an earlier submission.
	require.NoError(t, s.BeginSubmission())
	s.CompleteStreaming("first", &backend.QueryResult{SQLQuery: "SELECT 1"})

	// The next submission clears it and then fails.
	require.NoError(t, s.BeginSubmission())
	s.AppendStreamToken("doomed")
	s.FailSubmission("something went wrong")

	require.False(t, s.InFlight())
	require.Nil(t, s.Result())

	text, active := s.StreamingText()
	require.Empty(t, text)
	require.False(t, active)

	msgs := s.Messages()
	require.Equal(t, "something went wrong", msgs[len(msgs)-1].Text)
	require.Equal(t, OriginAssistant, msgs[len(msgs)-1].Origin)
}

func TestStoreFailSubmissionIdempotentWhenIdle(t *testing.T) {
	s := NewStore()

	s.FailSubmission("late failure")
	s.FailSubmission("later failure")

	require.Empty(t, s.Messages())
}

func TestStoreResetStartsFreshConversation(t *testing.T) {
	s := NewStore()
	oldID := s.ConversationID()

	s.AppendMessage("hello", OriginUser)
	require.NoError(t, s.BeginSubmission())
	s.CompleteStreaming("hi", &backend.QueryResult{})

	require.True(t, s.Reset())
	require.Empty(t, s.Messages())
	require.Nil(t, s.Result())
	require.NotEqual(t, oldID, s.ConversationID())
}

func TestStoreResetRefusedWhileInFlight(t *testing.T) {
	s := NewStore()
	s.AppendMessage("hello", OriginUser)
	require.NoError(t, s.BeginSubmission())

	require.False(t, s.Reset())
	require.Len(t, s.Messages(), 1)
	require.True(t, s.InFlight())
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AppendMessage("original", OriginUser)

	msgs := s.Messages()
	msgs[0].Text = "mutated"

	require.Equal(t, "original", s.Messages()[0].Text)
}

func TestStoreConcurrentTokenAppends(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BeginSubmission())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendStreamToken("x")
		}()
	}
	wg.Wait()

	text, active := s.StreamingText()
	require.True(t, active)
	require.Len(t, text, 50)
}
