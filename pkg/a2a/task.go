package a2a

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

/*
Task is the unit of conversational work. ID is chosen by the caller and
reused to continue a conversation, SessionID is assigned by the agent
once, at creation.
*/
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history"`
	Artifacts []Artifact `json:"artifacts"`
	Metadata  Metadata   `json:"metadata,omitempty"`
}

func NewTask(id, sessionID string, first Message) Task {
	return Task{
		ID:        id,
		SessionID: sessionID,
		Status:    NewTaskStatus(TaskStateSubmitted, nil),
		History:   []Message{first.Clone()},
		Artifacts: []Artifact{},
	}
}

func (task *Task) ToStatus(state TaskState, message *Message) {
	log.Debug("task status update", "task_id", task.ID, "from", task.Status.State, "to", state)
	task.Status = NewTaskStatus(state, message)
}

// AppendHistory adds messages after the existing history, oldest first.
func (task *Task) AppendHistory(messages ...Message) {
	for _, message := range messages {
		task.History = append(task.History, message.Clone())
	}
}

// Clone returns a deep copy suitable for handing out of a store.
func (task Task) Clone() Task {
	out := task
	out.Metadata = task.Metadata.Clone()

	if task.Status.Message != nil {
		message := task.Status.Message.Clone()
		out.Status.Message = &message
	}

	if task.History != nil {
		out.History = make([]Message, len(task.History))

		for i, message := range task.History {
			out.History[i] = message.Clone()
		}
	}

	if task.Artifacts != nil {
		out.Artifacts = make([]Artifact, len(task.Artifacts))

		for i, artifact := range task.Artifacts {
			out.Artifacts[i] = artifact.Clone()
		}
	}

	return out
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// String renders the task for a terminal: status, history and artifacts.
func (task *Task) String() string {
	var sb strings.Builder

	row := func(depth int, label, value string) {
		sb.WriteString(strings.Repeat("  ", depth) + "│ ")
		sb.WriteString(labelStyle.Render(label) + " " + valueStyle.Render(value) + "\n")
	}

	sb.WriteString(titleStyle.Render("task "+task.ID) + "\n")
	row(0, "session", task.SessionID)
	row(0, "state", string(task.Status.State))
	row(0, "updated", task.Status.Timestamp.Format(time.RFC3339))

	if task.Status.Message != nil {
		row(0, "status", task.Status.Message.String())
	}

	if len(task.History) > 0 {
		sb.WriteString(sectionStyle.Render("history") + "\n")

		for _, message := range task.History {
			row(1, message.Role, message.String())
		}
	}

	for _, artifact := range task.Artifacts {
		name := fmt.Sprintf("artifact %d", artifact.Index)

		if artifact.Name != nil {
			name = *artifact.Name
		}

		sb.WriteString(sectionStyle.Render(name) + "\n")
		row(1, "text", artifact.Text())
	}

	return sb.String()
}
