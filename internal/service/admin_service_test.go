package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"testing"
	"time"
)

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", "")
	user := env.seedUser(t, "user@example.com", "")

	if err := env.admin.RequireAdmin(admin.ID); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := env.admin.RequireAdmin(user.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("user: %v", err)
	}
	if err := env.admin.RequireAdmin(999); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("missing: %v", err)
	}

	env.admin.Policy.UpdateConfig(config.AdminConfig{Emails: []string{"USER@example.com"}})
	if err := env.admin.RequireAdmin(user.ID); err != nil {
		t.Fatalf("reloaded whitelist not applied: %v", err)
	}
	if err := env.admin.RequireAdmin(admin.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("old admin still allowed: %v", err)
	}
}

func TestAdminUsersAndSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", "")
	learner := env.seedUser(t, "learner@example.com", model.StyleKinesthetic)

	if _, err := env.chat.Ask(ctx, learner.ID, "How do Java loops work?"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.practice.Submit(learner.ID, "Loop task", "", "", 120); err != nil {
		t.Fatal(err)
	}
	if _, err := env.download.Create(ctx, learner.ID, DownloadRequest{ContentType: model.ContentSolution}); err != nil {
		t.Fatal(err)
	}

	users, err := env.admin.Users(ctx, "learner")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("search returned %d users", len(users))
	}
	got := users[0]
	if got.LearningStyle == nil || *got.LearningStyle != model.StyleKinesthetic {
		t.Fatalf("style = %v", got.LearningStyle)
	}
	if got.Stats == nil || got.Stats.Chats != 1 || got.Stats.Practice != 1 || got.Stats.Downloads != 1 {
		t.Fatalf("stats = %+v", got.Stats)
	}

	all, err := env.admin.Users(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("all users = %d %v", len(all), err)
	}
	for _, u := range all {
		if u.UserID == admin.ID && (!u.IsAdmin || u.LearningStyle != nil) {
			t.Fatalf("admin row = %+v", u)
		}
	}

	summary, err := env.admin.Summary()
	if err != nil {
		t.Fatal(err)
	}
	want := AdminMetrics{Users: 2, LearningStyles: 1, ChatMessages: 1, PracticeSubmissions: 1, Downloads: 1}
	if summary.Metrics != want {
		t.Fatalf("metrics = %+v", summary.Metrics)
	}
	if len(summary.LatestChats) != 1 || summary.LatestChats[0].ResponseType != model.StyleKinesthetic {
		t.Fatalf("latest chats = %+v", summary.LatestChats)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", "")
	learner := env.seedUser(t, "learner@example.com", model.StyleKinesthetic)
	if _, err := env.download.Create(ctx, learner.ID, DownloadRequest{ContentType: model.ContentTaskSheet}); err != nil {
		t.Fatal(err)
	}

	if err := env.admin.DeleteUser(ctx, admin.ID, admin.ID); !errors.Is(err, ErrDeleteSelf) {
		t.Fatalf("self delete: %v", err)
	}
	if err := env.admin.DeleteUser(ctx, admin.ID, learner.ID); err != nil {
		t.Fatal(err)
	}
	if files := storedFiles(t, env); len(files) != 0 {
		t.Fatalf("objects left after account delete: %v", files)
	}
	if _, err := env.styles.Mine(learner.ID); !errors.Is(err, util.ErrLearningStyleNotSet) {
		t.Fatalf("style survived: %v", err)
	}
	if err := env.admin.DeleteUser(ctx, admin.ID, learner.ID); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestAdminAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "v@example.com", model.StyleVisual)
	env.seedUser(t, "a@example.com", model.StyleAuditory)

	reply, err := env.chat.Ask(ctx, u.ID, "What is polymorphism in Java?")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.chat.Feedback(u.ID, reply.ChatID, true, ""); err != nil {
		t.Fatal(err)
	}

	out, err := env.admin.Analytics(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if out.StyleDistribution[model.StyleVisual] != 1 || out.StyleDistribution[model.StyleAuditory] != 1 {
		t.Fatalf("distribution = %v", out.StyleDistribution)
	}
	if len(out.DailySignups) != insightSeriesDays {
		t.Fatalf("series length = %d", len(out.DailySignups))
	}
	last := func(s []DailyCount) int { return s[len(s)-1].Count }
	if last(out.DailySignups) != 2 || last(out.DailyChats) != 1 || last(out.DailyFeedback) != 1 {
		t.Fatalf("today counts: signups=%d chats=%d feedback=%d",
			last(out.DailySignups), last(out.DailyChats), last(out.DailyFeedback))
	}
	if out.FeedbackSummary.Total != 1 || out.FeedbackSummary.Helpful != 1 {
		t.Fatalf("feedback summary = %+v", out.FeedbackSummary)
	}
}
