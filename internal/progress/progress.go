// Package progress derives task and stage statuses and the 0-100 project
// progress from a loaded Stage -> Task -> Subtask tree. It performs no I/O.
//
// Every task contributes weight * fraction, where fraction is the share of
// completed subtasks when the task has any, otherwise 1 for a completed task
// and 0 for anything else. Progress is round(100 * sum(w*f) / sum(w)).
// With all weights at 1.00 this is the plain average of task progress.
package progress

import (
	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
)

// TaskChange is a status write for a single task.
type TaskChange struct {
	TaskID uint64
	From   models.TaskStatus
	To     models.TaskStatus
}

// StageChange is a status write for a single stage.
type StageChange struct {
	StageID uint64
	From    models.StageStatus
	To      models.StageStatus
}

// Result is everything a recalculation needs to persist.
type Result struct {
	Tasks    []TaskChange
	Stages   []StageChange
	Progress int
}

// Changed reports whether the result carries any status writes.
func (r Result) Changed() bool {
	return len(r.Tasks) > 0 || len(r.Stages) > 0
}

// CascadeTask returns the status a task should have given its subtasks.
// Tasks without subtasks keep their status.
func CascadeTask(task models.Task) (models.TaskStatus, bool) {
	total := len(task.Subtasks)
	if total == 0 {
		return task.Status, false
	}

	done := completedSubtasks(task)
	next := task.Status
	switch {
	case done == total:
		next = models.TaskStatusCompleted
	case task.Status == models.TaskStatusCompleted:
		next = models.TaskStatusInProgress
	}
	return next, next != task.Status
}

// CascadeStage returns the status a stage should have given its tasks.
func CascadeStage(stage models.Stage) (models.StageStatus, bool) {
	total := len(stage.Tasks)
	done := 0
	for _, t := range stage.Tasks {
		if t.Status == models.TaskStatusCompleted {
			done++
		}
	}

	next := stage.Status
	switch {
	case total > 0 && done == total:
		next = models.StageStatusCompleted
	case done > 0:
		next = models.StageStatusInProgress
	case stage.Status == models.StageStatusCompleted:
		next = models.StageStatusPending
	}
	return next, next != stage.Status
}

// TaskFraction is the completed share of a task in [0, 1].
func TaskFraction(task models.Task) decimal.Decimal {
	if total := len(task.Subtasks); total > 0 {
		return decimal.NewFromInt(int64(completedSubtasks(task))).
			Div(decimal.NewFromInt(int64(total)))
	}
	if task.Status == models.TaskStatusCompleted {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Compute returns the project progress for the tree as it stands.
// Negative weights count as zero.
func Compute(stages []models.Stage) int {
	earned := decimal.Zero
	weight := decimal.Zero
	for _, stage := range stages {
		for _, task := range stage.Tasks {
			w := money.ClampZero(task.Weight)
			weight = weight.Add(w)
			earned = earned.Add(w.Mul(TaskFraction(task)))
		}
	}
	return money.Percent(earned, weight)
}

// Plan cascades subtasks into tasks, tasks into stages, then computes progress.
// The project's stages are updated in place so the returned progress reflects
// the cascaded statuses.
func Plan(project *models.Project) Result {
	var res Result

	for si := range project.Stages {
		stage := &project.Stages[si]
		for ti := range stage.Tasks {
			task := &stage.Tasks[ti]
			if next, changed := CascadeTask(*task); changed {
				res.Tasks = append(res.Tasks, TaskChange{TaskID: task.ID, From: task.Status, To: next})
				task.Status = next
			}
		}
	}

	for si := range project.Stages {
		stage := &project.Stages[si]
		if next, changed := CascadeStage(*stage); changed {
			res.Stages = append(res.Stages, StageChange{StageID: stage.ID, From: stage.Status, To: next})
			stage.Status = next
		}
	}

	res.Progress = Compute(project.Stages)
	return res
}

func completedSubtasks(task models.Task) int {
	n := 0
	for _, s := range task.Subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}
