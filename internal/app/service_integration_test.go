package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/worklog/internal/adapters/jira"
	service "github.com/okian/worklog/internal/app"
	"github.com/okian/worklog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubJira is a minimal Jira stand-in that accepts worklogs for known issues.
type stubJira struct {
	mu       sync.Mutex
	bodies   []map[string]any
	password string
}

func (s *stubJira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, pass, ok := r.BasicAuth()
	if !ok || pass != s.password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.URL.Path == "/rest/api/3/myself":
		_, _ = w.Write([]byte(`{"accountId":"abc"}`))
	case strings.HasPrefix(r.URL.Path, "/rest/internal/3/issue/AI-152/worklog"):
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		id := len(s.bodies)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "issueId": "10000", "self": "http://jira/worklog"})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`))
	}
}

func TestServiceIntegration_FallbackStaysHome(t *testing.T) {
	Convey("Given a fallback identity and a second host a caller could name", t, func() {
		ctx := context.Background()
		home := &stubJira{password: "env-secret"}
		homeSrv := httptest.NewServer(home)
		defer homeSrv.Close()

		var strayAuth []string
		stray := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, _ := r.BasicAuth()
			strayAuth = append(strayAuth, user+":"+pass)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer stray.Close()

		svc := service.New(
			service.WithClient(jira.NewClient()),
			service.WithFallbackCredentials(model.Credentials{Email: "ops@example.com", APIToken: "env-secret", Instance: homeSrv.URL}),
		)
		events := []model.CalendarEvent{{Start: "2024-01-01T09:00:00Z", End: "2024-01-01T10:00:00Z"}}

		Convey("When a request names only the other host", func() {
			outcome, err := svc.Submit(ctx, "AI-152", events, model.Credentials{Instance: stray.URL})

			Convey("Then the fallback credentials are only sent to their own instance", func() {
				So(err, ShouldBeNil)
				So(outcome.Results[0].Success, ShouldBeTrue)
				So(strayAuth, ShouldBeEmpty)
				So(home.bodies, ShouldHaveLength, 1)
			})
		})

		Convey("When a request names the other host and an email", func() {
			outcome, err := svc.Submit(ctx, "AI-152", events, model.Credentials{Email: "dev@example.com", Instance: stray.URL})

			Convey("Then nothing is sent anywhere", func() {
				So(err, ShouldBeNil)
				So(outcome.Error, ShouldEqual, service.MsgNoCredentials)
				So(strayAuth, ShouldBeEmpty)
				So(home.bodies, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to a real client and a stub Jira", t, func() {
		ctx := context.Background()
		stub := &stubJira{password: "secret"}
		srv := httptest.NewServer(stub)
		defer srv.Close()

		svc := service.New(service.WithClient(jira.NewClient()))
		creds := model.Credentials{Email: "dev@example.com", APIToken: "secret", Instance: srv.URL}

		Convey("When submitting a calendar selection", func() {
			events := []model.CalendarEvent{
				{Start: "2024-01-01T09:00:00Z", End: "2024-01-01T13:30:00Z", Comment: "Development work"},
				{Start: "2024-01-01T14:00:00Z", End: "2024-01-01T15:00:00Z"},
			}
			outcome, err := svc.Submit(ctx, "AI-152", events, creds)

			Convey("Then both worklogs are created with Jira's response passed through", func() {
				So(err, ShouldBeNil)
				So(outcome.Success, ShouldBeTrue)
				So(outcome.Results, ShouldHaveLength, 2)
				So(outcome.Results[0].Success, ShouldBeTrue)
				So(string(outcome.Results[0].Response), ShouldContainSubstring, `"self":"http://jira/worklog"`)
			})

			Convey("Then Jira receives the translated payloads", func() {
				So(stub.bodies, ShouldHaveLength, 2)
				So(stub.bodies[0]["timeSpent"], ShouldEqual, "270m")
				So(stub.bodies[0]["started"], ShouldEqual, "2024-01-01T09:00:00.000+0000")
				So(stub.bodies[1]["timeSpent"], ShouldEqual, "60m")
				comment := stub.bodies[1]["comment"].(map[string]any)
				So(comment["content"], ShouldBeEmpty)
			})
		})

		Convey("When the issue does not exist", func() {
			outcome, err := svc.Submit(ctx, "NOPE-1", []model.CalendarEvent{{Start: "2024-01-01T09:00:00Z", End: "2024-01-01T10:00:00Z"}}, creds)

			Convey("Then the Jira error is attached to the event", func() {
				So(err, ShouldBeNil)
				So(outcome.Success, ShouldBeTrue)
				So(outcome.Results[0].Success, ShouldBeFalse)
				So(outcome.Results[0].Error, ShouldContainSubstring, "status 404")
			})
		})

		Convey("When validating good and bad tokens", func() {
			good := svc.Validate(ctx, creds)
			bad := svc.Validate(ctx, model.Credentials{Email: "dev@example.com", APIToken: "wrong", Instance: srv.URL})

			Convey("Then only the good token is valid", func() {
				So(good.Valid, ShouldBeTrue)
				So(bad.Valid, ShouldBeFalse)
				So(bad.Error, ShouldEqual, "Authentication failed: 401")
			})
		})
	})
}
