package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"strings"
	"time"
	"unicode"
)

const (
	insightRowLimit     = 120
	insightKeywordChats = 25
	insightSeriesDays   = 7
	fallbackRecommended = "Object-oriented programming fundamentals"
)

var recommendationStopWords = map[string]bool{
	"explain": true, "about": true, "what": true, "does": true,
	"java": true, "with": true, "from": true, "into": true,
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Insights 学习看板
type Insights struct {
	MasteryScore     int          `json:"mastery_score"`
	StreakDays       int          `json:"streak_days"`
	RecommendedTopic string       `json:"recommended_topic"`
	DailyChat        []DailyCount `json:"daily_chat"`
	DailyPractice    []DailyCount `json:"daily_practice"`
	DailyDownloads   []DailyCount `json:"daily_downloads"`
}

type DashboardService struct {
	ChatRepo     *repository.ChatRepository
	PracticeRepo *repository.PracticeRepository
	DownloadRepo *repository.DownloadRepository
}

func NewDashboardService(chatRepo *repository.ChatRepository, practiceRepo *repository.PracticeRepository, downloadRepo *repository.DownloadRepository) *DashboardService {
	return &DashboardService{
		ChatRepo:     chatRepo,
		PracticeRepo: practiceRepo,
		DownloadRepo: downloadRepo,
	}
}

func (s *DashboardService) Insights(userID uint) (*Insights, error) {
	chats, err := s.ChatRepo.FindByUser(userID, insightRowLimit)
	if err != nil {
		return nil, err
	}
	practices, err := s.PracticeRepo.FindByUser(userID, insightRowLimit)
	if err != nil {
		return nil, err
	}
	downloads, err := s.DownloadRepo.FindByUser(userID, insightRowLimit)
	if err != nil {
		return nil, err
	}
	return BuildInsights(chats, practices, downloads, time.Now().UTC()), nil
}

// BuildInsights 根据最近的问答、练习和下载记录计算看板数据，日期按 UTC
func BuildInsights(chats []model.ChatHistory, practices []model.PracticeActivity, downloads []model.Download, now time.Time) *Insights {
	now = now.UTC()

	chatDays := make([]time.Time, len(chats))
	for i, c := range chats {
		chatDays[i] = c.Timestamp
	}
	practiceDays := make([]time.Time, len(practices))
	for i, p := range practices {
		practiceDays[i] = p.UpdatedAt
	}
	downloadDays := make([]time.Time, len(downloads))
	for i, d := range downloads {
		downloadDays[i] = d.Timestamp
	}

	questions := make([]string, 0, insightKeywordChats)
	for i := 0; i < len(chats) && i < insightKeywordChats; i++ {
		questions = append(questions, chats[i].Question)
	}

	return &Insights{
		MasteryScore:     MasteryScore(practices),
		StreakDays:       StreakDays(now, chatDays, practiceDays, downloadDays),
		RecommendedTopic: RecommendTopic(questions),
		DailyChat:        dailySeries(chatDays, now, insightSeriesDays),
		DailyPractice:    dailySeries(practiceDays, now, insightSeriesDays),
		DailyDownloads:   dailySeries(downloadDays, now, insightSeriesDays),
	}
}

// MasteryScore 每完成一个练习 12 分，练习时长最多加 45 分，总分不超过 100
func MasteryScore(practices []model.PracticeActivity) int {
	completed, totalTime := 0, 0
	for _, p := range practices {
		if strings.EqualFold(p.Status, DefaultActivityStatus) {
			completed++
		}
		totalTime += p.TimeSpent
	}
	bonus := float64(totalTime) / 45
	if bonus > 45 {
		bonus = 45
	}
	return min(100, int(float64(completed*12)+bonus))
}

// RecommendTopic 取最近提问中出现最多的关键词，次数相同取先出现的
func RecommendTopic(questions []string) string {
	counts := map[string]int{}
	var order []string
	for _, q := range questions {
		for _, token := range strings.Fields(strings.ToLower(q)) {
			clean := strings.Map(func(r rune) rune {
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					return r
				}
				return -1
			}, token)
			if len([]rune(clean)) < 4 || recommendationStopWords[clean] {
				continue
			}
			if counts[clean] == 0 {
				order = append(order, clean)
			}
			counts[clean]++
		}
	}
	if len(order) == 0 {
		return fallbackRecommended
	}

	top := order[0]
	for _, w := range order[1:] {
		if counts[w] > counts[top] {
			top = w
		}
	}
	runes := []rune(top)
	runes[0] = unicode.ToUpper(runes[0])
	return "Advanced " + string(runes) + " in Java"
}

// StreakDays 以今天为终点连续有活动的天数
func StreakDays(now time.Time, series ...[]time.Time) int {
	active := map[string]bool{}
	for _, times := range series {
		for _, t := range times {
			active[t.UTC().Format(util.DateFormat)] = true
		}
	}
	streak := 0
	for day := now.UTC(); active[day.Format(util.DateFormat)]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func dailySeries(times []time.Time, now time.Time, days int) []DailyCount {
	counts := map[string]int{}
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		counts[t.UTC().Format(util.DateFormat)]++
	}
	out := make([]DailyCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format(util.DateFormat)
		out = append(out, DailyCount{Date: key, Count: counts[key]})
	}
	return out
}
