package task

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

// Job is an execution record for a background task run.
type Job struct {
	ID          string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	TaskType    string         `gorm:"column:task_type;index;type:varchar(100);not null" json:"task_type"`
	Status      JobStatus      `gorm:"column:status;type:varchar(20);not null;default:'running'" json:"status"`
	ErrorMsg    string         `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	StartedAt   *time.Time     `gorm:"column:started_at" json:"started_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

type SweepResult struct {
	Deleted int64 `json:"deleted"`
}
