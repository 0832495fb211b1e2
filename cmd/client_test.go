package cmd

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/errors"
)

type scriptedAsker struct {
	prompts []string
	answers map[string]string
	err     error
}

func (agent *scriptedAsker) Ask(ctx context.Context, prompt string) (string, error) {
	agent.prompts = append(agent.prompts, prompt)

	if agent.err != nil {
		return "", agent.err
	}

	return agent.answers[prompt], nil
}

func TestChat(t *testing.T) {
	Convey("Given an agent that answers dice requests", t, func() {
		agent := &scriptedAsker{answers: map[string]string{
			"roll a die": "It was a 4!",
			"roll a d20": "It was a 17!",
		}}
		out := &bytes.Buffer{}

		Convey("When the user asks twice and exits", func() {
			err := chat(context.Background(), agent, strings.NewReader("roll a die\n\nroll a d20\nexit\nroll again\n"), out)

			Convey("Then each answer is printed and input after exit is ignored", func() {
				So(err, ShouldBeNil)
				So(agent.prompts, ShouldResemble, []string{"roll a die", "roll a d20"})
				So(out.String(), ShouldContainSubstring, "agent: It was a 4!")
				So(out.String(), ShouldContainSubstring, "agent: It was a 17!")
			})
		})

		Convey("When the input ends without exit", func() {
			err := chat(context.Background(), agent, strings.NewReader("roll a die"), out)

			Convey("Then the loop ends cleanly", func() {
				So(err, ShouldBeNil)
				So(agent.prompts, ShouldHaveLength, 1)
			})
		})

		Convey("When the agent fails", func() {
			agent.err = stderrors.New("connection refused")
			err := chat(context.Background(), agent, strings.NewReader("roll a die\nroll a d20\n"), out)

			Convey("Then the error is printed and ends the loop", func() {
				So(err, ShouldEqual, agent.err)
				So(agent.prompts, ShouldHaveLength, 1)
				So(out.String(), ShouldContainSubstring, "error: connection refused")
			})
		})
	})
}

type storedTasks map[string]a2a.Task

func (tasks storedTasks) GetTask(ctx context.Context, id string) (a2a.GetTaskResult, error) {
	task, ok := tasks[id]

	if !ok {
		return a2a.GetTaskResult{}, errors.ErrTaskNotFound
	}

	return a2a.NewGetTaskResult(task), nil
}

func TestShowTask(t *testing.T) {
	Convey("Given an agent holding a completed task", t, func() {
		task := a2a.NewTask("t1", "s1", *a2a.NewTextMessage(a2a.RoleUser, "roll a die"))
		task.Artifacts = []a2a.Artifact{a2a.NewTextArtifact("dice", "dice roll result", 0, "It was a 4!")}
		task.ToStatus(a2a.TaskStateCompleted, a2a.NewTextMessage(a2a.RoleAgent, "It was a 4!"))

		agent := storedTasks{"t1": task}
		out := &bytes.Buffer{}

		Convey("When the task is shown", func() {
			err := showTask(context.Background(), agent, "t1", out)

			Convey("Then its state and artifact are printed", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "t1")
				So(out.String(), ShouldContainSubstring, "completed")
				So(out.String(), ShouldContainSubstring, "It was a 4!")
			})
		})

		Convey("When an unknown task is shown", func() {
			err := showTask(context.Background(), agent, "missing", out)

			Convey("Then the lookup error is printed and returned", func() {
				So(err, ShouldEqual, errors.ErrTaskNotFound)
				So(out.String(), ShouldContainSubstring, "Task not found")
			})
		})
	})
}
