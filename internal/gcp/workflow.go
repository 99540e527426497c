package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/paperflow/internal/models"
)

// WorkflowJobs is the asynchronous analysis job capability, backed by
// Workflow executions. The workflow receives the uploaded document's
// reference plus the instruction template, runs the document-aware analysis
// server-side and leaves the summary in the execution result.
type WorkflowJobs struct {
	client *executions.Client
	parent string
}

// NewWorkflowJobs creates the executions client for one deployed workflow.
func NewWorkflowJobs(ctx context.Context, projectID, location, workflowID string) (*WorkflowJobs, error) {
	if projectID == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowJobs: projectID and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowJobs{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// CreateJob starts one analysis execution and returns its handle.
func (w *WorkflowJobs) CreateJob(ctx context.Context, uploadRef, instructions string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"documentUri":  uploadRef,
		"instructions": instructions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis job payload: %w", err)
	}
	exec, err := w.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent:    w.parent,
		Execution: &executionspb.Execution{Argument: string(payload)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create analysis execution: %w", err)
	}
	return exec.GetName(), nil
}

// PollStatus maps the execution's state onto the pipeline's job states.
// UNAVAILABLE means the execution is backlogged, so it is reported as
// requires_action: still pending, nothing for us to do.
func (w *WorkflowJobs) PollStatus(ctx context.Context, handle string) (models.JobState, error) {
	exec, err := w.client.GetExecution(ctx, &executionspb.GetExecutionRequest{Name: handle})
	if err != nil {
		return models.JobFailed, fmt.Errorf("failed to get execution %s: %w", handle, err)
	}
	switch exec.GetState() {
	case executionspb.Execution_QUEUED:
		return models.JobQueued, nil
	case executionspb.Execution_ACTIVE:
		return models.JobInProgress, nil
	case executionspb.Execution_UNAVAILABLE:
		return models.JobRequiresAction, nil
	case executionspb.Execution_SUCCEEDED:
		return models.JobCompleted, nil
	default:
		return models.JobFailed, nil
	}
}

// FetchResult returns the summary text left by a completed execution. The
// workflow returns either a bare JSON string or an object with a "summary"
// key; both are accepted.
func (w *WorkflowJobs) FetchResult(ctx context.Context, handle string) (string, error) {
	exec, err := w.client.GetExecution(ctx, &executionspb.GetExecutionRequest{Name: handle})
	if err != nil {
		return "", fmt.Errorf("failed to get execution %s: %w", handle, err)
	}
	if exec.GetState() != executionspb.Execution_SUCCEEDED {
		return "", fmt.Errorf("execution %s has no result in state %s", handle, exec.GetState())
	}
	raw := exec.GetResult()

	var asString string
	if err := json.Unmarshal([]byte(raw), &asString); err == nil {
		return asString, nil
	}
	var asObject struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &asObject); err == nil && asObject.Summary != "" {
		return asObject.Summary, nil
	}
	return raw, nil
}

// Close releases the underlying client.
func (w *WorkflowJobs) Close() error {
	return w.client.Close()
}
