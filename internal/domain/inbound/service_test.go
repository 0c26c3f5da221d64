package inbound_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubtit/support-api/internal/domain/channel"
	"doubtit/support-api/internal/domain/channel/channeltest"
	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/inbound"
	"doubtit/support-api/internal/domain/llm/llmtest"
	repo "doubtit/support-api/internal/infrastructure/repository/conversation"
	"doubtit/support-api/internal/utils/redact"
)

type harness struct {
	repo      *repo.InMemoryRepository
	store     *conversation.Store
	engine    *conversation.Engine
	messenger *channeltest.Recorder
	responder *llmtest.Responder
	svc       *inbound.Service
}

func newHarness() *harness {
	h := &harness{
		repo:      repo.NewInMemoryRepository(),
		messenger: &channeltest.Recorder{},
		responder: &llmtest.Responder{Reply: "Try restarting the dev server."},
	}
	cfg := conversation.StoreConfig{Timeout: time.Second}
	h.store = conversation.NewStore(h.repo, cfg, zerolog.Nop())
	h.engine = conversation.NewEngine(h.repo, cfg, zerolog.Nop())
	h.svc = inbound.NewService(h.store, h.engine, h.messenger, h.responder, redact.New(redact.LevelHashed, "t"), zerolog.Nop())
	return h
}

func (h *harness) messages(t *testing.T, id string) []*conversation.Message {
	t.Helper()
	page, err := h.store.ListMessages(context.Background(), id, 100, "")
	require.NoError(t, err)
	// newest first from the store; flip for readability
	out := make([]*conversation.Message, len(page.Items))
	for i, m := range page.Items {
		out[len(page.Items)-1-i] = m
	}
	return out
}

func (h *harness) conversation(t *testing.T, thread string) *conversation.Conversation {
	t.Helper()
	conv, err := h.store.FindByThreadID(context.Background(), thread)
	require.NoError(t, err)
	return conv
}

func inboundText(thread, text string) channel.InboundMessage {
	return channel.InboundMessage{ThreadID: thread, SenderName: "Ann", Text: text, ChannelMessageID: "100"}
}

func TestNewThreadGetsAssistantReply(t *testing.T) {
	h := newHarness()

	outcome, err := h.svc.HandleInboundMessage(context.Background(), inboundText("T1", "Hi"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeAIReply, outcome)

	conv := h.conversation(t, "T1")
	assert.Equal(t, conversation.StatusAI, conv.Status)
	assert.Equal(t, "Ann", conv.UserName)

	msgs := h.messages(t, conv.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.SenderUser, msgs[0].SenderType)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, "100", msgs[0].ChannelMessageID)
	assert.Equal(t, conversation.SenderAI, msgs[1].SenderType)
	assert.Equal(t, "Try restarting the dev server.", msgs[1].Content)

	assert.Equal(t, []string{"Hi"}, h.responder.Prompts())
	assert.Equal(t, []channeltest.Sent{{ThreadID: "T1", Text: "Try restarting the dev server."}}, h.messenger.Sent())
}

func TestHumanRequestQueuesConversation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "Hi"))
	require.NoError(t, err)

	outcome, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "agent please"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeHumanRequested, outcome)

	conv := h.conversation(t, "T1")
	assert.Equal(t, conversation.StatusWaiting, conv.Status)
	assert.Empty(t, conv.CurrentAgentID)

	msgs := h.messages(t, conv.ID)
	require.Len(t, msgs, 3)
	assert.Equal(t, conversation.SenderUser, msgs[2].SenderType)
	assert.Equal(t, "agent please", msgs[2].Content)

	assert.Equal(t, 1, h.responder.Calls())
	texts := h.messenger.Texts()
	assert.Equal(t, inbound.HumanRequestAck, texts[len(texts)-1])
}

func TestHumanRequestIsIdempotentWhileQueuedOrOwned(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "/help"))
	require.NoError(t, err)
	require.Equal(t, conversation.StatusWaiting, h.conversation(t, "T1").Status)

	outcome, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "help"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeHumanRequested, outcome)
	assert.Equal(t, conversation.StatusWaiting, h.conversation(t, "T1").Status)

	conv := h.conversation(t, "T1")
	_, err = h.engine.SetStatus(ctx, conv, conversation.StatusHuman, "agent-42", conversation.Guard{})
	require.NoError(t, err)

	outcome, err = h.svc.HandleInboundMessage(ctx, inboundText("T1", "AGENT"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeHumanRequested, outcome)
	owned := h.conversation(t, "T1")
	assert.Equal(t, conversation.StatusHuman, owned.Status)
	assert.Equal(t, "agent-42", owned.CurrentAgentID)
	assert.Zero(t, h.responder.Calls())
}

func TestNoAutoReplyWhileWaitingOrHuman(t *testing.T) {
	for _, status := range []conversation.Status{conversation.StatusWaiting, conversation.StatusHuman} {
		h := newHarness()
		ctx := context.Background()
		conv, err := h.store.CreateConversation(ctx, "T1", "Ann")
		require.NoError(t, err)
		_, err = h.engine.SetStatus(ctx, conv, status, "agent-1", conversation.Guard{})
		require.NoError(t, err)

		outcome, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "are you there?"))
		require.NoError(t, err)
		assert.Equal(t, inbound.OutcomeAwaitingHuman, outcome, status)
		assert.Zero(t, h.responder.Calls())
		assert.Empty(t, h.messenger.Sent())
		assert.Len(t, h.messages(t, conv.ID), 1)
	}
}

func TestAssistantFailureUsesFallback(t *testing.T) {
	h := newHarness()
	h.responder.Err = errors.New("deadline exceeded")

	outcome, err := h.svc.HandleInboundMessage(context.Background(), inboundText("T1", "how do I deploy?"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeFallbackReply, outcome)

	msgs := h.messages(t, h.conversation(t, "T1").ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, inbound.FallbackReply, msgs[1].Content)
	assert.Equal(t, []string{inbound.FallbackReply}, h.messenger.Texts())
}

func TestReplyDiscardedWhenClaimedDuringGeneration(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.responder.Hook = func(ctx context.Context) {
		conv, err := h.store.FindByThreadID(ctx, "T1")
		require.NoError(t, err)
		_, err = h.engine.SetStatus(ctx, conv, conversation.StatusHuman, "agent-9", conversation.Guard{})
		require.NoError(t, err)
	}

	outcome, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "question"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeSuperseded, outcome)
	assert.Len(t, h.messages(t, h.conversation(t, "T1").ID), 1)
	assert.Empty(t, h.messenger.Sent())
}

func TestStartCommandWelcomes(t *testing.T) {
	h := newHarness()
	outcome, err := h.svc.HandleInboundMessage(context.Background(), inboundText("T1", "/start"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeWelcome, outcome)
	assert.Equal(t, []string{inbound.WelcomeReply}, h.messenger.Texts())
	assert.Zero(t, h.responder.Calls())
}

func TestHumanRequestOnClosedConversation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	conv, err := h.store.CreateConversation(ctx, "T1", "Ann")
	require.NoError(t, err)
	_, err = h.engine.SetStatus(ctx, conv, conversation.StatusClosed, "", conversation.Guard{})
	require.NoError(t, err)

	outcome, err := h.svc.HandleInboundMessage(ctx, inboundText("T1", "agent"))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeClosedNotice, outcome)
	assert.Equal(t, conversation.StatusClosed, h.conversation(t, "T1").Status)
	assert.Equal(t, []string{inbound.ClosedNotice}, h.messenger.Texts())
}

func TestEmptyTextIsStoredWithoutReply(t *testing.T) {
	h := newHarness()
	outcome, err := h.svc.HandleInboundMessage(context.Background(), inboundText("T1", "   "))
	require.NoError(t, err)
	assert.Equal(t, inbound.OutcomeIgnored, outcome)
	assert.Len(t, h.messages(t, h.conversation(t, "T1").ID), 1)
	assert.Zero(t, h.responder.Calls())
}

func TestDeliveryFailureKeepsUserMessage(t *testing.T) {
	h := newHarness()
	h.messenger.Err = errors.New("telegram down")

	outcome, err := h.svc.HandleInboundMessage(context.Background(), inboundText("T1", "Hi"))
	require.Error(t, err)
	assert.Equal(t, inbound.OutcomeFailed, outcome)

	msgs := h.messages(t, h.conversation(t, "T1").ID)
	require.NotEmpty(t, msgs)
	assert.Equal(t, conversation.SenderUser, msgs[0].SenderType)
}

func TestConcurrentFirstMessagesCreateOneConversation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.HandleInboundMessage(ctx, inboundText("T-new", "Hi"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conv := h.conversation(t, "T-new")
	total, err := h.store.CountByStatus(ctx, conversation.StatusAI, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	users := 0
	for _, m := range h.messages(t, conv.ID) {
		if m.SenderType == conversation.SenderUser {
			users++
		}
	}
	assert.Equal(t, senders, users)
}
