package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	_ "embed"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

const maxKeywords = 5

var (
	//go:embed data/catalog.yaml
	catalogYAML []byte
	//go:embed data/quiz.yaml
	quizYAML []byte

	keywordStopWords = map[string]bool{
		"about": true, "explain": true, "learn": true, "with": true, "from": true,
		"that": true, "this": true, "what": true, "how": true, "the": true,
		"and": true, "for": true, "into": true, "does": true, "is": true,
		"are": true, "an": true, "to": true, "of": true, "in": true,
		"on": true, "me": true, "my": true, "please": true, "tell": true,
	}
	genericKeywords = []string{"Concept", "Flow", "Example", "Errors", "Practice"}

	lowSignalTopics = map[string]bool{
		"i want learn new things": true,
		"learn new things":        true,
		"new things":              true,
		"hello":                   true,
		"hi":                      true,
		"help me":                 true,
		"anything":                true,
	}
)

type catalogTopic struct {
	Key   string               `yaml:"key"`
	Tasks []model.PracticeTask `yaml:"tasks"`
}

type taskCatalog struct {
	Default []model.PracticeTask `yaml:"default"`
	Topics  []catalogTopic       `yaml:"topics"`
	Aliases map[string]string    `yaml:"aliases"`
}

type quizBank struct {
	Questions []model.QuizQuestion `yaml:"questions"`
}

// 内嵌数据只解析一次
var loadEmbeddedData = sync.OnceValues(func() (*taskCatalog, *quizBank) {
	var catalog taskCatalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		panic(fmt.Sprintf("parse task catalog: %v", err))
	}
	for i := range catalog.Default {
		catalog.Default[i].StarterCode = strings.TrimSpace(catalog.Default[i].StarterCode)
	}
	for i := range catalog.Topics {
		for j := range catalog.Topics[i].Tasks {
			catalog.Topics[i].Tasks[j].StarterCode = strings.TrimSpace(catalog.Topics[i].Tasks[j].StarterCode)
		}
	}

	var bank quizBank
	if err := yaml.Unmarshal(quizYAML, &bank); err != nil {
		panic(fmt.Sprintf("parse quiz bank: %v", err))
	}
	return &catalog, &bank
})

// FallbackSynthesizer 不访问网络、结果确定的兜底内容生成
type FallbackSynthesizer struct {
	catalog *taskCatalog
	quiz    *quizBank
}

func NewFallbackSynthesizer() *FallbackSynthesizer {
	catalog, quiz := loadEmbeddedData()
	return &FallbackSynthesizer{catalog: catalog, quiz: quiz}
}

// ExtractKeywords 提取最多 5 个主题关键词，为空时返回通用标签
func ExtractKeywords(topic string) []string {
	tokens := strings.FieldsFunc(topic, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if keywordStopWords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		keywords = append(keywords, titleCase(tok))
		if len(keywords) == maxKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		return append([]string(nil), genericKeywords...)
	}
	return keywords
}

// seededLabels 关键词不足时用通用标签补齐
func seededLabels(keywords []string, count int) []any {
	out := make([]any, 0, count)
	seen := make(map[string]bool)
	for _, k := range append(append([]string(nil), keywords...), genericKeywords...) {
		if len(out) == count {
			break
		}
		if seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	return out
}

func cleanTopic(topic string) string {
	return strings.TrimRight(strings.TrimSpace(topic), "?")
}

// Explanation 按学习风格返回固定模板的讲解
func (s *FallbackSynthesizer) Explanation(topic string, style model.Style) string {
	topic = cleanTopic(topic)
	switch style {
	case model.StyleVisual:
		return fmt.Sprintf("Visual Learning Plan for: %s\n\n"+
			"1. Big Picture\n"+
			"- Start with a concept diagram and identify key entities.\n\n"+
			"2. Process Flow\n"+
			"- Follow the sequence from input to output and mark error paths.\n\n"+
			"3. Worked Example\n"+
			"- Read one solved example and trace each step visually.\n\n"+
			"4. Revision Snapshot\n"+
			"- Use a one-page visual summary with keywords and arrows.", topic)
	case model.StyleAuditory:
		return fmt.Sprintf("Auditory Learning Script for: %s\n\n"+
			"- Listen to this in short chunks.\n"+
			"- Repeat each point out loud in your own words.\n"+
			"- Record a 30-second summary after each section.", topic)
	default:
		return fmt.Sprintf("Kinesthetic Practice Path for: %s\n\n"+
			"Step 1: Create a class with a main method.\n"+
			"Step 2: Write the smallest program that uses the idea.\n"+
			"Step 3: Run it and print every intermediate value.\n"+
			"Step 4: Break it on purpose and handle the failure.\n"+
			"Step 5: Change the input and test again.", topic)
	}
}

// Blueprint 由关键词确定性地生成蓝图
func (s *FallbackSynthesizer) Blueprint(topic string) model.VisualBlueprint {
	keywords := ExtractKeywords(topic)
	at := func(i int) string { return keywords[i%len(keywords)] }

	steps := []any{
		"Identify " + at(0),
		"Connect " + at(1) + " to " + at(0),
		"Trace " + at(2) + " in a worked example",
		"Check errors around " + at(3),
		"Practice " + at(4) + " end to end",
	}
	radar := normalizeLabels(seededLabels(keywords, model.BlueprintRadarCount), model.BlueprintRadarCount, maxChartLabel, "Skill", true)
	bars := normalizeLabels(seededLabels(keywords, model.BlueprintBarCount), model.BlueprintBarCount, maxChartLabel, "Metric", true)

	return model.VisualBlueprint{
		Title:        blueprintTitle(topic),
		ConceptNodes: normalizeLabels(seededLabels(keywords, model.BlueprintConceptCount), model.BlueprintConceptCount, maxConceptNode, "Concept", true),
		FlowSteps:    normalizeLabels(steps, model.BlueprintFlowCount, maxFlowStep, "Step", false),
		RadarLabels:  radar,
		RadarScores:  labelScores(radar),
		BarLabels:    bars,
		BarScores:    labelScores(bars),
	}
}

// labelScores 由标签文本哈希得到 [50,95] 内的分数
func labelScores(labels []string) []int {
	out := make([]int, len(labels))
	span := uint32(model.BlueprintScoreMax - model.BlueprintScoreMin + 1)
	for i, l := range labels {
		h := fnv.New32a()
		h.Write([]byte(strings.ToLower(l)))
		out[i] = model.BlueprintScoreMin + int(h.Sum32()%span)
	}
	return out
}

// Diagram 文本流程图
func (s *FallbackSynthesizer) Diagram(bp model.VisualBlueprint) string {
	parts := append([]string{"Input"}, bp.ConceptNodes...)
	return strings.Join(append(parts, "Result"), " -> ")
}

// NarrationScript 听觉型讲解稿
func (s *FallbackSynthesizer) NarrationScript(topic string) string {
	topic = cleanTopic(topic)
	if topic == "" {
		topic = "this concept"
	}
	keywords := ExtractKeywords(topic)
	var b strings.Builder
	fmt.Fprintf(&b, "Audio-style explanation for %s. ", topic)
	fmt.Fprintf(&b, "We will walk through %d ideas, one at a time. ", len(keywords))
	for i, k := range keywords {
		fmt.Fprintf(&b, "Idea %d is %s: say it out loud and connect it to the previous idea. ", i+1, k)
	}
	b.WriteString("Pause after each idea and explain it back in your own words.")
	return b.String()
}

// IsLowSignalTopic 空主题、少于三个词或寒暄语
func IsLowSignalTopic(topic string) bool {
	text := strings.ToLower(strings.TrimSpace(topic))
	if text == "" || lowSignalTopics[text] {
		return true
	}
	return len(strings.Fields(text)) < 3
}

// DefaultTasks 默认任务集的前 count 个
func (s *FallbackSynthesizer) DefaultTasks(count int) []model.PracticeTask {
	count = util.ClampInt(count, 1, len(s.catalog.Default))
	return append([]model.PracticeTask(nil), s.catalog.Default[:count]...)
}

// CatalogTasks 先做主题与目录键的双向子串匹配，再查关键词别名
func (s *FallbackSynthesizer) CatalogTasks(topic string) ([]model.PracticeTask, string, bool) {
	normalized := strings.Join(strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
	if normalized == "" {
		return nil, "", false
	}

	for _, entry := range s.catalog.Topics {
		if strings.Contains(normalized, entry.Key) || strings.Contains(entry.Key, normalized) {
			return append([]model.PracticeTask(nil), entry.Tasks...), entry.Key, true
		}
	}
	for _, k := range ExtractKeywords(topic) {
		key, ok := s.catalog.Aliases[strings.ToLower(k)]
		if !ok {
			continue
		}
		for _, entry := range s.catalog.Topics {
			if entry.Key == key {
				return append([]model.PracticeTask(nil), entry.Tasks...), entry.Key, true
			}
		}
	}
	return nil, "", false
}

// MergeWithDefaults 按任务名去重后用默认任务补齐到 count 个
func (s *FallbackSynthesizer) MergeWithDefaults(tasks []model.PracticeTask, count int) []model.PracticeTask {
	merged := make([]model.PracticeTask, 0, count)
	seen := make(map[string]bool)
	for _, t := range append(append([]model.PracticeTask(nil), tasks...), s.catalog.Default...) {
		key := strings.ToLower(strings.TrimSpace(t.TaskName))
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, t)
		if len(merged) >= count {
			break
		}
	}
	return merged
}

// TaskSheet 任务单文本
func (s *FallbackSynthesizer) TaskSheet(topic string, tasks []model.PracticeTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task Sheet: %s\n", cleanTopic(topic))
	for i, t := range tasks {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   Checkpoint: compile, run, then change one input and run again.\n", i+1, t.TaskName, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// AssetText 下载资源的兜底文本
func (s *FallbackSynthesizer) AssetText(style model.Style, contentType model.ContentType, topic, base string) string {
	lines := []string{
		"Topic: " + topic,
		"Learning style: " + string(style),
		"Asset type: " + string(contentType),
		"",
		"This is fallback generated content because AI output was unavailable.",
	}
	if base = strings.TrimSpace(base); base != "" {
		lines = append(lines, "", "Reference content:", truncateRunes(base, 3000))
	}
	return strings.Join(lines, "\n")
}

// QuizBank 内置的 20 道测评题
func (s *FallbackSynthesizer) QuizBank() []model.QuizQuestion {
	out := make([]model.QuizQuestion, len(s.quiz.Questions))
	for i, q := range s.quiz.Questions {
		q.Options = append([]model.QuizOption(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Tone 语音合成失败时的提示音
func (s *FallbackSynthesizer) Tone() ([]byte, error) {
	return util.FallbackTone()
}
