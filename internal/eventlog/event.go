// Package eventlog defines the simulator's event stream: the typed, dated,
// per-batch records every downstream consumer (assimilation, variance
// analysis, finance hooks) reads. Events are the single source of truth for
// population movement; assignment metadata is never re-read to reconstruct
// state.
package eventlog

import (
	"fmt"

	"github.com/aquarian247/aquasim/internal/stage"
)

// Type classifies an event.
type Type string

const (
	// TypeEnvReading is a sensor reading for one container.
	TypeEnvReading Type = "EnvReading"
	// TypeFeeding is one feeding of one container.
	TypeFeeding Type = "Feeding"
	// TypeFeedPurchase is an automatic FIFO inventory replenishment.
	TypeFeedPurchase Type = "FeedPurchase"
	// TypeMortality is the daily death record of one assignment.
	TypeMortality Type = "Mortality"
	// TypeGrowthSample is a weekly weight sample of one container.
	TypeGrowthSample Type = "GrowthSample"
	// TypeLiceCount is a weekly Adult-stage lice count.
	TypeLiceCount Type = "LiceCount"
	// TypeTransferAction is the authoritative record of fish moving between
	// containers. Day-zero placement is recorded as a transfer action with
	// no source assignment.
	TypeTransferAction Type = "TransferAction"
	// TypeWorkflowCompleted marks a transfer workflow reaching COMPLETED.
	TypeWorkflowCompleted Type = "WorkflowCompleted"
	// TypeStageTransition marks a batch entering a new lifecycle stage.
	TypeStageTransition Type = "StageTransition"
	// TypeScenarioCreated marks the from-batch scenario created at Parr.
	TypeScenarioCreated Type = "ScenarioCreated"
	// TypeProjectionRunCreated marks a completed projection run.
	TypeProjectionRunCreated Type = "ProjectionRunCreated"
	// TypeBatchStatus marks a batch status change (COMPLETED, TERMINATED).
	TypeBatchStatus Type = "BatchStatus"
)

// Event is a single dated record in a batch's stream. One flat shape covers
// all types; unused fields stay at their zero value and are omitted on the
// wire.
type Event struct {
	BatchNumber string `json:"batchNumber"`
	Day         int    `json:"day"`
	Date        string `json:"date"` // YYYY-MM-DD
	Seq         int    `json:"seq"`  // emission order within the batch
	Type        Type   `json:"type"`

	ContainerID  string      `json:"containerId,omitempty"`
	AssignmentID string      `json:"assignmentId,omitempty"`
	Stage        stage.Stage `json:"stage,omitempty"`

	// Count carries mortality deaths or transferred fish.
	Count int `json:"count,omitempty"`

	// Feeding and feed inventory.
	Feed        string  `json:"feed,omitempty"`
	AmountKg    float64 `json:"amountKg,omitempty"`
	FeedingTime string  `json:"feedingTime,omitempty"`
	FeedingPct  float64 `json:"feedingPct,omitempty"`
	Method      string  `json:"method,omitempty"`
	RecordedBy  string  `json:"recordedBy,omitempty"`

	// Assignment state snapshot after the day's growth step.
	AvgWeightG float64 `json:"avgWeightG,omitempty"`
	BiomassKg  float64 `json:"biomassKg,omitempty"`

	// Environmental readings.
	Sensor      string  `json:"sensor,omitempty"`
	ReadingTime string  `json:"readingTime,omitempty"`
	Value       float64 `json:"value,omitempty"`

	// Transfer linkage. Destination assignments start at population zero
	// and are populated exclusively by these records.
	WorkflowID              string `json:"workflowId,omitempty"`
	ActionID                string `json:"actionId,omitempty"`
	SourceAssignmentID      string `json:"sourceAssignmentId,omitempty"`
	DestAssignmentID        string `json:"destAssignmentId,omitempty"`
	MortalityDuringTransfer int    `json:"mortalityDuringTransfer,omitempty"`

	// Scenario and projection linkage.
	ScenarioID string `json:"scenarioId,omitempty"`
	RunNumber  int    `json:"runNumber,omitempty"`

	// Batch status changes.
	Status string `json:"status,omitempty"`
}

// identity computes a unique string identifier for deduplication on append.
func (e Event) identity() string {
	return fmt.Sprintf("%s|%d|%d|%s", e.BatchNumber, e.Day, e.Seq, e.Type)
}

// Topic is the outbound publisher channel an event maps to.
type Topic string

const (
	TopicFeeding                 Topic = "feeding"
	TopicMortality               Topic = "mortality"
	TopicGrowthSample            Topic = "growth_sample"
	TopicTransferActionCompleted Topic = "transfer_action_completed"
	TopicWorkflowCompleted       Topic = "workflow_completed"
	TopicProjectionRunCreated    Topic = "projection_run_created"
)

// TopicFor maps an event type onto its publisher topic. Not every event type
// is published; false means log-only.
func TopicFor(t Type) (Topic, bool) {
	switch t {
	case TypeFeeding:
		return TopicFeeding, true
	case TypeMortality:
		return TopicMortality, true
	case TypeGrowthSample:
		return TopicGrowthSample, true
	case TypeTransferAction:
		return TopicTransferActionCompleted, true
	case TypeWorkflowCompleted:
		return TopicWorkflowCompleted, true
	case TypeProjectionRunCreated:
		return TopicProjectionRunCreated, true
	default:
		return "", false
	}
}
