package repository

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/pkg/database"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, PasswordHash: "x"}
	if err := NewUserRepository(db).Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func count(t *testing.T, db *gorm.DB, m any, userID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestDeleteWithRelatedRemovesAllRows(t *testing.T) {
	db := newTestDB(t)
	target := seedUser(t, db, "Ada", "ada@example.com")
	other := seedUser(t, db, "Bob", "bob@example.com")

	for _, uid := range []uint{target.ID, other.ID} {
		db.Create(&model.LearningStyle{UserID: uid, LearningStyle: model.StyleVisual, VisualScore: 20})
		chat := &model.ChatHistory{UserID: uid, Question: "q", Response: "r", ResponseType: model.StyleVisual, LearningStyleUsed: model.StyleVisual}
		db.Create(chat)
		db.Create(&model.ChatFeedback{UserID: uid, ChatID: chat.ID, Helpful: true})
		db.Create(&model.PracticeActivity{UserID: uid, TaskName: "t", Status: "completed"})
		db.Create(&model.Download{UserID: uid, ContentType: model.ContentPDF, FilePath: fmt.Sprintf("u%d_pdf.txt", uid)})
	}

	downloads, err := NewUserRepository(db).DeleteWithRelated(target.ID)
	if err != nil {
		t.Fatalf("DeleteWithRelated: %v", err)
	}
	if len(downloads) != 1 || downloads[0].FilePath != fmt.Sprintf("u%d_pdf.txt", target.ID) {
		t.Fatalf("unexpected downloads returned: %+v", downloads)
	}

	tables := []any{&model.LearningStyle{}, &model.ChatHistory{}, &model.ChatFeedback{}, &model.PracticeActivity{}, &model.Download{}}
	for _, m := range tables {
		if n := count(t, db, m, target.ID); n != 0 {
			t.Errorf("%T: %d rows left for deleted user", m, n)
		}
		if n := count(t, db, m, other.ID); n != 1 {
			t.Errorf("%T: other user has %d rows, want 1", m, n)
		}
	}
	if _, err := NewUserRepository(db).FindByID(target.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("user still present: %v", err)
	}
}

func TestDeleteWithRelatedUnknownUser(t *testing.T) {
	db := newTestDB(t)
	if _, err := NewUserRepository(db).DeleteWithRelated(42); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestUserSearchMatchesNameOrEmail(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Grace Hopper", "grace@navy.mil")
	seedUser(t, db, "Alan", "alan@example.com")
	repo := NewUserRepository(db)

	users, err := repo.Search("HOPPER", 10)
	if err != nil || len(users) != 1 || users[0].Name != "Grace Hopper" {
		t.Fatalf("search by name: %+v %v", users, err)
	}
	users, err = repo.Search("example.com", 10)
	if err != nil || len(users) != 1 || users[0].Name != "Alan" {
		t.Fatalf("search by email: %+v %v", users, err)
	}
	users, _ = repo.Search("", 10)
	if len(users) != 2 {
		t.Fatalf("empty query returned %d users", len(users))
	}
}

func TestFindByEmailNormalizes(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Ada", "ada@example.com")
	if _, err := NewUserRepository(db).FindByEmail("  ADA@Example.com "); err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
}

func TestSaveFeedbackKeepsLatest(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "Ada", "ada@example.com")
	repo := NewChatRepository(db)
	chat := &model.ChatHistory{UserID: u.ID, Question: "q", Response: "r", ResponseType: model.StyleAuditory, LearningStyleUsed: model.StyleAuditory}
	if err := repo.Create(chat); err != nil {
		t.Fatal(err)
	}

	if err := repo.SaveFeedback(&model.ChatFeedback{UserID: u.ID, ChatID: chat.ID, Helpful: false}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveFeedback(&model.ChatFeedback{UserID: u.ID, ChatID: chat.ID, Helpful: true}); err != nil {
		t.Fatal(err)
	}

	summary, err := repo.FeedbackSummary()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 || summary.Helpful != 1 || summary.NeedsWork != 0 || summary.AvgRating != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestFeedbackSummaryAverage(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	for i, helpful := range []bool{true, true, false} {
		db.Create(&model.ChatFeedback{UserID: 1, ChatID: uint(i + 1), Helpful: helpful})
	}
	summary, err := repo.FeedbackSummary()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 3 || summary.NeedsWork != 1 || summary.AvgRating != 0.33 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestLearningStyleSaveOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewLearningStyleRepository(db)
	if err := repo.Save(&model.LearningStyle{UserID: 7, LearningStyle: model.StyleVisual, VisualScore: 20}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(&model.LearningStyle{UserID: 7, LearningStyle: model.StyleKinesthetic, KinestheticScore: 20}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.FindByUserID(7)
	if err != nil {
		t.Fatal(err)
	}
	if got.LearningStyle != model.StyleKinesthetic || got.VisualScore != 0 || got.KinestheticScore != 20 {
		t.Fatalf("record = %+v", got)
	}
	if n, _ := repo.Count(); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}

	dist, err := repo.Distribution()
	if err != nil || len(dist) != 1 || dist[0].LearningStyle != model.StyleKinesthetic || dist[0].Count != 1 {
		t.Fatalf("distribution = %+v %v", dist, err)
	}

	removed, err := repo.Delete(7)
	if err != nil || !removed {
		t.Fatalf("delete = %v %v", removed, err)
	}
	removed, _ = repo.Delete(7)
	if removed {
		t.Fatal("second delete reported a removal")
	}
}

func TestLatestQuestion(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	q, err := repo.LatestQuestion(1)
	if err != nil || q != "" {
		t.Fatalf("empty history: %q %v", q, err)
	}
	repo.Create(&model.ChatHistory{UserID: 1, Question: "first", Response: "r", ResponseType: model.StyleKinesthetic, LearningStyleUsed: model.StyleKinesthetic})
	repo.Create(&model.ChatHistory{UserID: 1, Question: "second", Response: "r", ResponseType: model.StyleKinesthetic, LearningStyleUsed: model.StyleKinesthetic})
	q, _ = repo.LatestQuestion(1)
	if q != "second" {
		t.Fatalf("latest = %q", q)
	}
}
