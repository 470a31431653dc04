// Package render formats plans, conflicts and run progress for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/batchplan/internal/batch"
	"github.com/aristath/batchplan/internal/events"
	"github.com/aristath/batchplan/internal/orchestrator"
	"github.com/aristath/batchplan/internal/scheduler"
)

const maxBarWidth = 40

// Title renders a heading underlined to its own width.
func Title(text string) string {
	title := StyleTitle.Render(text)
	return title + "\n" + strings.Repeat("=", lipgloss.Width(title)) + "\n"
}

// Plan renders the waves of a simulated run.
func Plan(plan *orchestrator.Plan) string {
	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Execution plan: %d tasks in %d waves", plan.Len(), len(plan.Waves))))

	for _, w := range plan.Waves {
		b.WriteString("\n")
		b.WriteString(StyleTitle.Render(fmt.Sprintf("Wave %d", w.Index+1)))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" (%d parallel)", len(w.Batch))))
		b.WriteString("\n")
		for _, t := range w.Batch {
			b.WriteString("  ")
			b.WriteString(taskLine(t))
			b.WriteString("\n")
		}
		if len(w.Deferred) > 0 {
			b.WriteString(StyleDim.Render("  deferred: " + strings.Join(w.Deferred, ", ")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Batches renders a partition of a ready set.
func Batches(batches []batch.Batch) string {
	var b strings.Builder
	for i, bt := range batches {
		fmt.Fprintf(&b, "%s %s\n", StyleTitle.Render(fmt.Sprintf("Batch %d:", i+1)), strings.Join(bt.IDs(), ", "))
	}
	return b.String()
}

func taskLine(t *scheduler.Task) string {
	line := StyleTaskID.Render(t.ID)
	if t.Name != "" {
		line += "  " + t.Name
	}
	var details []string
	if t.Backend != "" {
		details = append(details, "backend: "+t.Backend)
	}
	switch {
	case len(t.Writes) > 0:
		details = append(details, "writes: "+strings.Join(t.Writes, ", "))
	case !t.HasFileManifest():
		details = append(details, "no file manifest, runs alone")
	}
	if len(details) > 0 {
		line += "  " + StyleDim.Render("["+strings.Join(details, "; ")+"]")
	}
	return line
}

// Conflicts renders write-write conflicts, one per line.
func Conflicts(conflicts []batch.Conflict) string {
	if len(conflicts) == 0 {
		return StyleStatusDone.Render("No write-write conflicts") + "\n"
	}

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("%d write-write conflicts", len(conflicts))))
	for _, c := range conflicts {
		fmt.Fprintf(&b, "%s %s %s  %s\n",
			StyleTaskID.Render(c.TaskA),
			StyleStatusFailed.Render("<->"),
			StyleTaskID.Render(c.TaskB),
			strings.Join(c.Files, ", "))
	}
	return b.String()
}

// Progress renders status counts and a progress bar in a box of the given
// width.
func Progress(p scheduler.Progress, width int) string {
	width = max(width, 20)
	var b strings.Builder

	b.WriteString(Title("DAG Progress"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total:   %d\n", p.Total)
	fmt.Fprintf(&b, "Done:    %s\n", StatusStyle(scheduler.TaskDone).Render(fmt.Sprint(p.Done)))
	fmt.Fprintf(&b, "Running: %s\n", StatusStyle(scheduler.TaskRunning).Render(fmt.Sprint(p.Running+p.Ready)))
	fmt.Fprintf(&b, "Failed:  %s\n", StatusStyle(scheduler.TaskFailed).Render(fmt.Sprint(p.Failed)))
	fmt.Fprintf(&b, "Pending: %s\n", StatusStyle(scheduler.TaskPending).Render(fmt.Sprint(p.Pending)))

	if p.Total > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%s]  %d/%d", ProgressBar(p, min(width-4, maxBarWidth)), p.Done, p.Total)
	}

	return StyleBox.Width(width - 2).Render(b.String())
}

// ProgressBar draws done, failed, running and pending segments over width
// cells.
func ProgressBar(p scheduler.Progress, width int) string {
	if p.Total == 0 || width <= 0 {
		return ""
	}
	doneWidth := (p.Done * width) / p.Total
	failedWidth := (p.Failed * width) / p.Total
	runningWidth := ((p.Running + p.Ready) * width) / p.Total
	pendingWidth := width - doneWidth - failedWidth - runningWidth

	bar := StyleStatusDone.Render(strings.Repeat("=", max(0, doneWidth)))
	bar += StyleStatusFailed.Render(strings.Repeat("!", max(0, failedWidth)))
	bar += StyleStatusRunning.Render(strings.Repeat("-", max(0, runningWidth)))
	bar += StyleStatusPending.Render(strings.Repeat(".", max(0, pendingWidth)))
	return bar
}

// EventLine renders a one-line log entry for a run event.
func EventLine(ev events.Event) string {
	switch e := ev.(type) {
	case events.BatchPlannedEvent:
		line := StyleTitle.Render(fmt.Sprintf("batch %d:", e.Index+1)) + " " + strings.Join(e.TaskIDs, ", ")
		if e.Deferred > 0 {
			line += StyleDim.Render(fmt.Sprintf(" (%d deferred)", e.Deferred))
		}
		return line
	case events.TaskStartedEvent:
		return StatusStyle(scheduler.TaskRunning).Render("start ") + " " + StyleTaskID.Render(e.ID)
	case events.TaskCompletedEvent:
		return StatusStyle(scheduler.TaskDone).Render("done  ") + " " + StyleTaskID.Render(e.ID) + StyleDim.Render(" "+e.Duration.String())
	case events.TaskFailedEvent:
		line := StatusStyle(scheduler.TaskFailed).Render("fail  ") + " " + StyleTaskID.Render(e.ID)
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
		if len(e.Propagated) > 0 {
			line += StyleDim.Render(" (skipping " + strings.Join(e.Propagated, ", ") + ")")
		}
		return line
	case events.DAGProgressEvent:
		return StyleDim.Render(fmt.Sprintf("progress %d/%d done, %d failed", e.Done, e.Total, e.Failed))
	default:
		return ev.EventType()
	}
}
