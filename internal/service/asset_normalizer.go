package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 各渲染位置的最大长度（字符）
const (
	maxChartLabel  = 14
	maxConceptNode = 16
	maxFlowStep    = 48
	maxTitle       = 42
	minLabelLength = 1
	scorePadBase   = 60
	scorePadStep   = 5
)

var (
	//go:embed data/task.schema.json
	taskSchemaJSON []byte
	//go:embed data/quiz.schema.json
	quizSchemaJSON []byte

	classDecl   = regexp.MustCompile(`\bclass\s+[A-Za-z_][A-Za-z0-9_]*`)
	entryPoint  = regexp.MustCompile(`\bmain\s*\(`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// AssetNormalizer 把 AI 返回的无类型 JSON 投影为强类型结构，从不返回错误
type AssetNormalizer struct {
	taskSchema *jsonschema.Schema
	quizSchema *jsonschema.Schema
}

func NewAssetNormalizer() *AssetNormalizer {
	return &AssetNormalizer{
		taskSchema: mustCompileSchema("mem://task.schema.json", taskSchemaJSON),
		quizSchema: mustCompileSchema("mem://quiz.schema.json", quizSchemaJSON),
	}
}

func mustCompileSchema(url string, raw []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", url, err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return schema
}

// Text 非空即有效
func (n *AssetNormalizer) Text(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	return text, text != ""
}

// Blueprint 规整可视化蓝图；payload 中没有任何可用字段时返回 false
func (n *AssetNormalizer) Blueprint(payload map[string]any, topic string) (model.VisualBlueprint, bool) {
	if payload == nil {
		return model.VisualBlueprint{}, false
	}

	used := false
	take := func(key, prefix string, count, limit int, title bool) []string {
		raw, _ := payload[key].([]any)
		kept := collectLabels(raw, count, limit, title)
		if len(kept) > 0 {
			used = true
		}
		return padLabels(kept, count, prefix)
	}
	scores := func(key string, count int) []int {
		raw, _ := payload[key].([]any)
		kept := collectScores(raw, count)
		if len(kept) > 0 {
			used = true
		}
		return padScores(kept, count)
	}

	bp := model.VisualBlueprint{
		ConceptNodes: take("concept_nodes", "Concept", model.BlueprintConceptCount, maxConceptNode, true),
		FlowSteps:    take("flow_steps", "Step", model.BlueprintFlowCount, maxFlowStep, false),
		RadarLabels:  take("radar_labels", "Skill", model.BlueprintRadarCount, maxChartLabel, true),
		RadarScores:  scores("radar_scores", model.BlueprintRadarCount),
		BarLabels:    take("bar_labels", "Metric", model.BlueprintBarCount, maxChartLabel, true),
		BarScores:    scores("bar_scores", model.BlueprintBarCount),
	}

	if title, ok := payload["title"].(string); ok {
		if t := clampRunes(sanitize(title), maxTitle); t != "" {
			bp.Title = t
			used = true
		}
	}
	if bp.Title == "" {
		bp.Title = blueprintTitle(topic)
	}
	return bp, used
}

// Tasks 校验任务列表，不合格的任务整体丢弃
func (n *AssetNormalizer) Tasks(payload map[string]any) []model.PracticeTask {
	if payload == nil {
		return nil
	}
	raw, ok := payload["tasks"].([]any)
	if !ok {
		return nil
	}

	var tasks []model.PracticeTask
	for _, item := range raw {
		if task, ok := n.task(item); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func (n *AssetNormalizer) task(item any) (model.PracticeTask, bool) {
	value, ok := toJSONValue(item)
	if !ok || n.taskSchema.Validate(value) != nil {
		return model.PracticeTask{}, false
	}
	obj := value.(map[string]any)
	task := model.PracticeTask{
		TaskName:    strings.TrimSpace(obj["task_name"].(string)),
		Description: strings.TrimSpace(obj["description"].(string)),
		StarterCode: strings.TrimSpace(obj["starter_code"].(string)),
	}
	if !validStarterCode(task.StarterCode) {
		return model.PracticeTask{}, false
	}
	return task, true
}

// Questions 校验测评题，每题保留三种风格各一个选项并重新编号 A/B/C
func (n *AssetNormalizer) Questions(payload map[string]any) []model.QuizQuestion {
	if payload == nil {
		return nil
	}
	raw, ok := payload["questions"].([]any)
	if !ok {
		return nil
	}

	var questions []model.QuizQuestion
	for _, item := range raw {
		value, ok := toJSONValue(item)
		if !ok || n.quizSchema.Validate(value) != nil {
			continue
		}
		obj := value.(map[string]any)
		q := model.QuizQuestion{
			ID:       len(questions) + 1,
			Question: clampRunes(sanitize(obj["question"].(string)), 200),
		}
		seen := map[model.Style]bool{}
		for _, o := range obj["options"].([]any) {
			opt := o.(map[string]any)
			style := model.Style(opt["style"].(string))
			text := clampRunes(sanitize(opt["text"].(string)), 120)
			if seen[style] || text == "" {
				continue
			}
			seen[style] = true
			q.Options = append(q.Options, model.QuizOption{Text: text, Style: style})
		}
		if len(q.Options) != len(model.StyleOrder) || q.Question == "" {
			continue
		}
		for i := range q.Options {
			q.Options[i].Key = string(rune('A' + i))
		}
		questions = append(questions, q)
	}
	return questions
}

func validStarterCode(code string) bool {
	return classDecl.MatchString(code) && entryPoint.MatchString(code)
}

// toJSONValue 统一为 encoding/json 解码后的类型，供 schema 校验
func toJSONValue(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	_, isObject := out.(map[string]any)
	return out, isObject
}

// normalizeLabels 截断或补齐到 count 个，占位符为 "<prefix> <序号>"
func normalizeLabels(raw []any, count, limit int, prefix string, title bool) []string {
	return padLabels(collectLabels(raw, count, limit, title), count, prefix)
}

// collectLabels 只保留合格的标签，不补齐
func collectLabels(raw []any, count, limit int, title bool) []string {
	out := make([]string, 0, count)
	for _, item := range raw {
		if len(out) == count {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = sanitize(s)
		if title {
			s = titleCase(s)
		}
		s = clampRunes(s, limit)
		if len([]rune(s)) < minLabelLength {
			continue
		}
		out = append(out, s)
	}
	return out
}

func padLabels(out []string, count int, prefix string) []string {
	for len(out) < count {
		out = append(out, fmt.Sprintf("%s %d", prefix, len(out)+1))
	}
	return out
}

// normalizeScores 解析整数并限制在 [50,95]，缺失位置用 60 起步、步长 5 的序列补齐
func normalizeScores(raw []any, count int) []int {
	return padScores(collectScores(raw, count), count)
}

func collectScores(raw []any, count int) []int {
	out := make([]int, 0, count)
	for _, item := range raw {
		if len(out) == count {
			break
		}
		v, ok := parseScore(item)
		if !ok {
			continue
		}
		out = append(out, clampScore(v))
	}
	return out
}

func padScores(out []int, count int) []int {
	for len(out) < count {
		out = append(out, clampScore(scorePadBase+scorePadStep*len(out)))
	}
	return out
}

func parseScore(item any) (int, bool) {
	switch v := item.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return roundScore(v), true
	case int:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return roundScore(f), true
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return roundScore(f), true
		}
	}
	return 0, false
}

// roundScore 先在浮点域截断再取整
func roundScore(f float64) int {
	f = math.Max(math.Min(f, model.BlueprintScoreMax), model.BlueprintScoreMin)
	return int(math.Round(f))
}

func clampScore(v int) int {
	return util.ClampInt(v, model.BlueprintScoreMin, model.BlueprintScoreMax)
}

// sanitize 去掉尖括号并折叠空白
func sanitize(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	return strings.TrimSpace(whitespaces.ReplaceAllString(s, " "))
}

func clampRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}

// titleCase 每个单词首字母大写，其余字符保持不变
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func blueprintTitle(topic string) string {
	title := clampRunes(titleCase(sanitize(strings.TrimRight(strings.TrimSpace(topic), "?"))), maxTitle)
	if title == "" {
		return "Learning Blueprint"
	}
	return title
}
