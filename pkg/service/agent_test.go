package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/ai"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/stores"
)

type answerProvider struct {
	text string
	err  error
}

func (prvdr *answerProvider) Name() string {
	return "answer"
}

func (prvdr *answerProvider) Complete(
	ctx context.Context, req provider.Request,
) (provider.Response, error) {
	if prvdr.err != nil {
		return provider.Response{}, prvdr.err
	}

	return provider.Response{Text: prvdr.text}, nil
}

type spyManager struct {
	sends int
	gets  int
}

func (spy *spyManager) SendTask(
	ctx context.Context, params a2a.TaskSendParams,
) (a2a.SendTaskResult, error) {
	spy.sends++
	return a2a.SendTaskResult{ID: params.ID, Status: a2a.TaskStateCompleted}, nil
}

func (spy *spyManager) Get(ctx context.Context, id string) (a2a.Task, error) {
	spy.gets++
	return a2a.Task{ID: id}, nil
}

func newTestServer(prvdr provider.Interface) *AgentServer {
	card := &a2a.AgentCard{Name: "dice-agent", URL: "http://localhost:3000", Version: "1.0.0"}

	manager, err := ai.NewTaskManager(
		card,
		ai.WithTaskStore(stores.NewInMemoryTaskStore()),
		ai.WithProvider(prvdr),
	)
	So(err, ShouldBeNil)

	dispatcher, err := NewDispatcher(manager)
	So(err, ShouldBeNil)

	return NewAgentServer(card, dispatcher, WithMetrics(manager.Metrics()))
}

func post(srv *AgentServer, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := srv.App().Test(req)
	So(err, ShouldBeNil)

	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	So(err, ShouldBeNil)

	out := map[string]any{}
	So(json.Unmarshal(raw, &out), ShouldBeNil)

	return res.StatusCode, out
}

const rollDie = `{
  "jsonrpc": "2.0", "id": 1, "method": "tasks/send",
  "params": {
    "id": "t1",
    "message": {"role": "user", "parts": [{"type": "text", "text": "roll a die", "metadata": {}}]}
  }
}`

func TestAgentServerEndToEnd(t *testing.T) {
	Convey("Given an agent whose completion answers with a fixed roll", t, func() {
		srv := newTestServer(&answerProvider{text: "It was a 4!"})

		Convey("When a new task is sent", func() {
			status, body := post(srv, "/", rollDie)

			Convey("Then a completed result with one dice artifact is returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["jsonrpc"], ShouldEqual, "2.0")
				So(body["id"], ShouldEqual, float64(1))

				result := body["result"].(map[string]any)
				So(result["id"], ShouldEqual, "t1")
				So(result["status"], ShouldEqual, "completed")

				_, err := uuid.Parse(result["sessionId"].(string))
				So(err, ShouldBeNil)

				artifacts := result["artifacts"].([]any)
				So(artifacts, ShouldHaveLength, 1)

				artifact := artifacts[0].(map[string]any)
				So(artifact["name"], ShouldEqual, "dice")
				So(artifact["index"], ShouldEqual, float64(0))
				So(artifact["metadata"], ShouldResemble, map[string]any{})

				part := artifact["parts"].([]any)[0].(map[string]any)
				So(part["type"], ShouldEqual, "text")
				So(part["text"], ShouldEqual, "It was a 4!")
				So(part["metadata"], ShouldResemble, map[string]any{})
			})

			Convey("And the task is read back", func() {
				status, body := post(srv, "/rpc", `{"jsonrpc":"2.0","id":"g","method":"tasks/get","params":{"id":"t1"}}`)

				Convey("Then it reports the completed status", func() {
					So(status, ShouldEqual, http.StatusOK)
					So(body["id"], ShouldEqual, "g")

					result := body["result"].(map[string]any)
					taskStatus := result["status"].(map[string]any)
					So(taskStatus["state"], ShouldEqual, "completed")
					So(result["artifacts"], ShouldHaveLength, 1)
				})
			})

			Convey("And the same task is sent again", func() {
				status, body := post(srv, "/", rollDie)

				Convey("Then a bare already-completed error is returned", func() {
					So(status, ShouldEqual, http.StatusBadRequest)
					So(body["code"], ShouldEqual, float64(-32603))
					So(body["message"], ShouldEqual, "Task already completed")
					So(body, ShouldNotContainKey, "jsonrpc")
				})
			})
		})

		Convey("When an unknown task is read", func() {
			status, body := post(srv, "/", `{"jsonrpc":"2.0","id":2,"method":"tasks/get","params":{"id":"missing"}}`)

			Convey("Then the task is not found", func() {
				So(status, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, float64(-32603))
				So(body["message"], ShouldEqual, "Task not found")
			})
		})

		Convey("When an unknown method is called", func() {
			status, body := post(srv, "/", `{"jsonrpc":"2.0","id":3,"method":"tasks/cancel","params":{"id":"t1"}}`)

			Convey("Then the method is not found", func() {
				So(status, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, float64(-32601))
			})
		})

		Convey("When the envelope is malformed", func() {
			status, body := post(srv, "/", `{"jsonrpc":"1.0","id":4,"method":"tasks/get"}`)

			Convey("Then the request is invalid", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, float64(-32600))
			})
		})

		Convey("When the agent card is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil)
			res, err := srv.App().Test(req)
			So(err, ShouldBeNil)
			defer res.Body.Close()

			card := a2a.AgentCard{}
			So(json.NewDecoder(res.Body).Decode(&card), ShouldBeNil)

			Convey("Then the card is served", func() {
				So(res.StatusCode, ShouldEqual, http.StatusOK)
				So(card.Name, ShouldEqual, "dice-agent")
				So(card.URL, ShouldEqual, "http://localhost:3000")
			})
		})

		Convey("When the metrics are read after a send", func() {
			post(srv, "/", rollDie)

			res, err := srv.App().Test(httptest.NewRequest(http.MethodGet, metricsPath, nil))
			So(err, ShouldBeNil)
			defer res.Body.Close()

			snapshot := map[string]any{}
			So(json.NewDecoder(res.Body).Decode(&snapshot), ShouldBeNil)

			Convey("Then the completed run is counted", func() {
				So(res.StatusCode, ShouldEqual, http.StatusOK)
				So(snapshot["total_sends"], ShouldEqual, float64(1))
				So(snapshot["completed"], ShouldEqual, float64(1))
				So(snapshot["failed"], ShouldEqual, float64(0))
			})
		})

		Convey("When the liveness check is called", func() {
			res, err := srv.App().Test(httptest.NewRequest(http.MethodGet, livenessPath, nil))

			Convey("Then the agent is alive", func() {
				So(err, ShouldBeNil)
				So(res.StatusCode, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the readiness check is called", func() {
			res, err := srv.App().Test(httptest.NewRequest(http.MethodGet, readinessPath, nil))

			Convey("Then the agent is ready", func() {
				So(err, ShouldBeNil)
				So(res.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})

	Convey("Given an agent whose completion answers with no text", t, func() {
		srv := newTestServer(&answerProvider{text: ""})

		Convey("When a task is sent", func() {
			_, body := post(srv, "/", rollDie)

			Convey("Then the artifact part still carries an empty text", func() {
				result := body["result"].(map[string]any)
				So(result["status"], ShouldEqual, "completed")

				artifact := result["artifacts"].([]any)[0].(map[string]any)
				part := artifact["parts"].([]any)[0].(map[string]any)
				So(part, ShouldContainKey, "text")
				So(part["text"], ShouldEqual, "")
			})

			Convey("And the stored status message does too", func() {
				_, body := post(srv, "/", `{"jsonrpc":"2.0","id":5,"method":"tasks/get","params":{"id":"t1"}}`)

				status := body["result"].(map[string]any)["status"].(map[string]any)
				part := status["message"].(map[string]any)["parts"].([]any)[0].(map[string]any)
				So(part, ShouldContainKey, "text")
				So(part["text"], ShouldEqual, "")
			})
		})
	})

	Convey("Given an agent whose completion fails", t, func() {
		srv := newTestServer(&answerProvider{err: io.ErrUnexpectedEOF})

		Convey("When a task is sent", func() {
			status, body := post(srv, "/", rollDie)

			Convey("Then a success envelope carries the failed status", func() {
				So(status, ShouldEqual, http.StatusOK)

				result := body["result"].(map[string]any)
				So(result["status"], ShouldEqual, "failed")
				So(result["artifacts"], ShouldBeEmpty)
			})
		})
	})
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher in front of a spy task manager", t, func() {
		ctx := context.Background()
		spy := &spyManager{}
		dispatcher, err := NewDispatcher(spy)
		So(err, ShouldBeNil)

		Convey("When tasks/send lacks an id", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{"message":{"role":"user","parts":[]}}}`))

			Convey("Then the params are invalid and the manager is not called", func() {
				So(reply.Status, ShouldEqual, http.StatusBadRequest)
				So(reply.Body.(interface{ Error() string }).Error(), ShouldContainSubstring, "-32602")
				So(spy.sends, ShouldEqual, 0)
			})
		})

		Convey("When tasks/send lacks a message", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{"id":"t1"}}`))

			Convey("Then the params are invalid and the manager is not called", func() {
				So(reply.Status, ShouldEqual, http.StatusBadRequest)
				So(spy.sends, ShouldEqual, 0)
			})
		})

		Convey("When tasks/send has no params at all", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"tasks/send"}`))

			Convey("Then the params are invalid", func() {
				So(reply.Status, ShouldEqual, http.StatusBadRequest)
				So(spy.sends, ShouldEqual, 0)
			})
		})

		Convey("When tasks/get lacks an id", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{}}`))

			Convey("Then the params are invalid and the manager is not called", func() {
				So(reply.Status, ShouldEqual, http.StatusBadRequest)
				So(spy.gets, ShouldEqual, 0)
			})
		})

		Convey("When the envelope is missing its method", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1}`))

			Convey("Then the request is invalid before any manager call", func() {
				So(reply.Status, ShouldEqual, http.StatusBadRequest)
				So(spy.sends+spy.gets, ShouldEqual, 0)
			})
		})

		Convey("When a valid send arrives", func() {
			reply := dispatcher.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":"x","method":"tasks/send","params":{"id":"t1","message":{"role":"user","parts":[]}}}`))

			Convey("Then the result is wrapped with the request id", func() {
				So(reply.Status, ShouldEqual, http.StatusOK)
				So(spy.sends, ShouldEqual, 1)

				body, err := json.Marshal(reply.Body)
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `"id":"x"`)
			})
		})
	})

	Convey("A dispatcher needs a task manager", t, func() {
		_, err := NewDispatcher(nil)
		So(err, ShouldNotBeNil)
	})
}

func TestQuietPath(t *testing.T) {
	Convey("Health and metrics paths stay out of the access log", t, func() {
		So(quietPath(livenessPath), ShouldBeTrue)
		So(quietPath(readinessPath), ShouldBeTrue)
		So(quietPath(metricsPath), ShouldBeTrue)
		So(quietPath("/"), ShouldBeFalse)
		So(quietPath("/rpc"), ShouldBeFalse)
		So(quietPath("/.well-known/agent.json"), ShouldBeFalse)
	})
}
