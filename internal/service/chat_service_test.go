package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"testing"
)

func TestAskRequiresStyle(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "ada@example.com", "")

	if _, err := env.chat.Ask(context.Background(), u.ID, "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("empty question: %v", err)
	}
	if _, err := env.chat.Ask(context.Background(), u.ID, "What is recursion?"); !errors.Is(err, util.ErrLearningStyleNotSet) {
		t.Fatalf("no style: %v", err)
	}
}

func TestAskPersistsHistory(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "ada@example.com", model.StyleAuditory)

	reply, err := env.chat.Ask(context.Background(), u.ID, "What is recursion?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.ResponseType != model.StyleAuditory || reply.AIUsed || reply.ChatID == 0 {
		t.Fatalf("reply = %+v", reply)
	}
	if _, ok := reply.Assets.(*model.AuditoryAssets); !ok {
		t.Fatalf("assets = %T", reply.Assets)
	}

	env.provider.text = "Recursion is a function calling itself."
	reply, err = env.chat.Ask(context.Background(), u.ID, "And base cases?")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.AIUsed {
		t.Fatal("ai text not flagged")
	}

	history, err := env.chat.History(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d", len(history))
	}
	if history[0].Question != "And base cases?" || !history[0].AIUsed || history[1].AIUsed {
		t.Fatalf("history = %+v", history)
	}
	if history[0].LearningStyleUsed != model.StyleAuditory {
		t.Fatalf("style used = %s", history[0].LearningStyleUsed)
	}
}

func TestFeedbackOnlyOnOwnChat(t *testing.T) {
	env := newTestEnv(t)
	ada := env.seedUser(t, "ada@example.com", model.StyleVisual)
	bob := env.seedUser(t, "bob@example.com", model.StyleVisual)

	reply, err := env.chat.Ask(context.Background(), ada.ID, "Explain loops")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.chat.Feedback(bob.ID, reply.ChatID, true, ""); !errors.Is(err, util.ErrChatNotFound) {
		t.Fatalf("foreign chat: %v", err)
	}
	if _, err := env.chat.Feedback(ada.ID, 999, true, ""); !errors.Is(err, util.ErrChatNotFound) {
		t.Fatalf("missing chat: %v", err)
	}
	fb, err := env.chat.Feedback(ada.ID, reply.ChatID, false, "  too long  ")
	if err != nil {
		t.Fatal(err)
	}
	if fb.Helpful || fb.Comment != "too long" {
		t.Fatalf("feedback = %+v", fb)
	}
}
