package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/ai"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/service"
	"github.com/theapemachine/dice-agent/pkg/stores"
	"github.com/theapemachine/dice-agent/pkg/tools"
)

func newTestAgent(prvdr provider.Interface) *httptest.Server {
	card := &a2a.AgentCard{Name: "dice-agent", Version: "1.0.0"}
	dice := tools.NewDice()
	dice.Roll = func(faces int) int { return 5 }

	manager, err := ai.NewTaskManager(
		card,
		ai.WithTaskStore(stores.NewInMemoryTaskStore()),
		ai.WithProvider(prvdr),
		ai.WithTools(tools.NewRegistry(dice.Tool())),
	)
	So(err, ShouldBeNil)

	dispatcher, err := service.NewDispatcher(manager)
	So(err, ShouldBeNil)

	srv := service.NewAgentServer(card, dispatcher)

	return httptest.NewServer(fiberadaptor.FiberApp(srv.App()))
}

type brokenProvider struct{}

func (prvdr brokenProvider) Name() string { return "broken" }

func (prvdr brokenProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	return provider.Response{}, stderrors.New("model unavailable")
}

func TestAgentClient(t *testing.T) {
	Convey("Given a running agent with the scripted provider", t, func() {
		ctx := context.Background()
		agent := newTestAgent(provider.NewScriptedProvider())
		defer agent.Close()

		client := NewAgentClient(agent.URL)

		Convey("When the card is fetched", func() {
			card, err := client.Card(ctx)

			Convey("Then the agent describes itself", func() {
				So(err, ShouldBeNil)
				So(card.Name, ShouldEqual, "dice-agent")
			})
		})

		Convey("When a prompt is asked", func() {
			answer, err := client.Ask(ctx, "roll a die")

			Convey("Then the artifact text comes back", func() {
				So(err, ShouldBeNil)
				So(answer, ShouldEqual, "The dice came up 5!")
			})
		})

		Convey("When a task is sent and read back", func() {
			params := a2a.TaskSendParams{ID: "t1", Message: a2a.NewTextMessage(a2a.RoleUser, "roll a d20")}
			sent, err := client.SendTask(ctx, params)
			So(err, ShouldBeNil)

			got, err := client.GetTask(ctx, "t1")
			So(err, ShouldBeNil)

			Convey("Then both views agree", func() {
				So(sent.Status, ShouldEqual, a2a.TaskStateCompleted)
				So(got.SessionID, ShouldEqual, sent.SessionID)
				So(got.Status.State, ShouldEqual, a2a.TaskStateCompleted)
				So(got.Artifacts[0].Text(), ShouldEqual, "The dice came up 5!")
			})

			Convey("And the same task is sent again", func() {
				_, err := client.SendTask(ctx, params)

				Convey("Then the bare error decodes into an RPC error", func() {
					So(stderrors.Is(err, errors.ErrTaskAlreadyCompleted), ShouldBeTrue)
				})
			})
		})

		Convey("When an unknown task is read", func() {
			_, err := client.GetTask(ctx, "missing")

			Convey("Then the task is not found", func() {
				So(stderrors.Is(err, errors.ErrTaskNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an agent whose completion fails", t, func() {
		agent := newTestAgent(brokenProvider{})
		defer agent.Close()

		Convey("When a prompt is asked", func() {
			_, err := NewAgentClient(agent.URL).Ask(context.Background(), "roll a die")

			Convey("Then the failure explanation is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed")
				So(err.Error(), ShouldContainSubstring, "model unavailable")
			})
		})
	})

	Convey("Given a server that is not an agent", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		Convey("When the card is fetched", func() {
			_, err := NewAgentClient(srv.URL).Card(context.Background())

			Convey("Then the status is reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "404")
			})
		})
	})
}
