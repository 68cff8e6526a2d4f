package model

// Source 标签，记录内容来自 AI 还是兜底生成
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceCatalog  = "catalog"
	SourceDefault  = "default"
	SourceBank     = "bank"
)

// VisualBlueprint 可视化资源的结构化描述，各列表长度固定
type VisualBlueprint struct {
	Title        string   `json:"title"`
	ConceptNodes []string `json:"concept_nodes"`
	FlowSteps    []string `json:"flow_steps"`
	RadarLabels  []string `json:"radar_labels"`
	RadarScores  []int    `json:"radar_scores"`
	BarLabels    []string `json:"bar_labels"`
	BarScores    []int    `json:"bar_scores"`
}

const (
	BlueprintConceptCount = 4
	BlueprintFlowCount    = 5
	BlueprintRadarCount   = 5
	BlueprintBarCount     = 4
	BlueprintScoreMin     = 50
	BlueprintScoreMax     = 95
)

// AssetBundle 按学习风格区分的资源包，每个响应只会填充其中一种
type AssetBundle interface {
	Style() Style
}

type VisualAssets struct {
	Diagram            string          `json:"diagram"`
	Blueprint          VisualBlueprint `json:"blueprint"`
	BlueprintSource    string          `json:"blueprint_source"`
	RadarChart         string          `json:"radar_chart"`
	BarChart           string          `json:"bar_chart"`
	Illustration       string          `json:"illustration"`
	IllustrationSource string          `json:"illustration_source"`
	SuggestedDownloads []ContentType   `json:"suggested_downloads"`
}

func (*VisualAssets) Style() Style { return StyleVisual }

type AuditoryAssets struct {
	AudioScript        string        `json:"audio_script"`
	ScriptSource       string        `json:"script_source"`
	SuggestedDownloads []ContentType `json:"suggested_downloads"`
}

func (*AuditoryAssets) Style() Style { return StyleAuditory }

type KinestheticAssets struct {
	StarterCode        string         `json:"starter_code"`
	TaskSheet          string         `json:"task_sheet"`
	Tasks              []PracticeTask `json:"tasks"`
	TaskSource         string         `json:"task_source"`
	SuggestedDownloads []ContentType  `json:"suggested_downloads"`
}

func (*KinestheticAssets) Style() Style { return StyleKinesthetic }

// AdaptiveResponse 自适应回答，AIUsed 记录讲解文本是否来自 AI
type AdaptiveResponse struct {
	ResponseType Style       `json:"response_type"`
	Text         string      `json:"text"`
	Assets       AssetBundle `json:"assets"`
	AIUsed       bool        `json:"ai_used"`
}

// SpeechClip 语音合成结果
type SpeechClip struct {
	Audio  []byte
	Format string // mp3 / wav
}

// ImageAsset 图像合成结果，Data 与 URL 至少一个非空
type ImageAsset struct {
	Data     []byte
	MimeType string
	URL      string
}
