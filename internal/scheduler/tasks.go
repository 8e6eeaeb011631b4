package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"fieldservice_backend/internal/metrics"

	"github.com/hibiken/asynq"
)

const TaskMetricsPrecompute = "metrics.precompute"

const precomputeMaxRetry = 3

type PrecomputePayload struct {
	MetricType string `json:"metricType"`
	Date       string `json:"date"`
}

// PrecomputeTaskID names the task for one snapshot key so duplicate enqueues
// collapse while one is pending.
func PrecomputeTaskID(t metrics.MetricType, anchor time.Time) string {
	return fmt.Sprintf("precompute:%s:%s", t, anchor.Format(time.DateOnly))
}

func NewPrecomputeTask(t metrics.MetricType, anchor time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(PrecomputePayload{MetricType: string(t), Date: anchor.Format(time.DateOnly)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsPrecompute, data,
		asynq.TaskID(PrecomputeTaskID(t, anchor)),
		asynq.MaxRetry(precomputeMaxRetry),
	), nil
}

func ParsePrecomputePayload(task *asynq.Task) (PrecomputePayload, error) {
	var payload PrecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PrecomputePayload{}, err
	}
	return payload, nil
}
