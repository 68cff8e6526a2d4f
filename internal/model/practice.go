package model

import "time"

// PracticeTask 练习任务，StarterCode 必须包含类声明与 main 入口
type PracticeTask struct {
	TaskName    string `json:"task_name" yaml:"task_name"`
	Description string `json:"description" yaml:"description"`
	StarterCode string `json:"starter_code" yaml:"starter_code"`
}

// PracticeActivity 练习提交记录
type PracticeActivity struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"activity_id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	TaskName      string    `gorm:"size:200;not null" json:"task_name"`
	Status        string    `gorm:"size:40;default:'started';not null" json:"status"`
	CodeSubmitted string    `gorm:"type:text" json:"code_submitted,omitempty"`
	TimeSpent     int       `gorm:"default:0;not null" json:"time_spent"` // 秒
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

func (PracticeActivity) TableName() string {
	return "practice_activity"
}

// ExecutionResult 代码运行结果，Runner 标识由哪一层产生
type ExecutionResult struct {
	Status      string `json:"status"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	JudgeStatus string `json:"judge0_status"`
	Runner      string `json:"runner"`
	Note        string `json:"note"`
}

const (
	ExecSuccess = "success"
	ExecError   = "error"

	RunnerRemote    = "remote"
	RunnerLocal     = "local"
	RunnerSimulated = "simulated"
)
