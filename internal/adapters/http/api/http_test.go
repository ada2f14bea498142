package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/worklog/internal/adapters/http/api"
	service "github.com/okian/worklog/internal/app"
	"github.com/okian/worklog/internal/domain/model"
	"github.com/okian/worklog/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies records what the handlers pass through.
type mockDependencies struct {
	hasEnv       bool
	submitCalls  int
	lastIssueKey string
	lastEvents   []model.CalendarEvent
	lastCreds    model.Credentials
	outcome      model.SubmissionOutcome
	submitErr    error
	validation   model.ValidationResult
	validateArgs []model.Credentials
	panicOnCall  bool
}

func (m *mockDependencies) Submit(_ context.Context, issueKey string, events []model.CalendarEvent, creds model.Credentials) (model.SubmissionOutcome, error) {
	if m.panicOnCall {
		panic("boom")
	}
	m.submitCalls++
	m.lastIssueKey = issueKey
	m.lastEvents = events
	m.lastCreds = creds
	return m.outcome, m.submitErr
}

func (m *mockDependencies) Validate(_ context.Context, creds model.Credentials) model.ValidationResult {
	m.validateArgs = append(m.validateArgs, creds)
	return m.validation
}

func (m *mockDependencies) HasEnvCredentials() bool { return m.hasEnv }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"submissions": 3}}).Register(context.Background(), mux)
	return mux
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health endpoint should be accessible", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats endpoint should be accessible", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then check-credentials should be accessible", func() {
			req := httptest.NewRequest("GET", "/api/check-credentials", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then unknown paths are not found", func() {
			req := httptest.NewRequest("GET", "/unknown", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then log-work rejects GET", func() {
			req := httptest.NewRequest("GET", "/api/log-work", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCredentialsHandler(t *testing.T) {
	Convey("Given a credentials handler", t, func() {
		deps := &mockDependencies{hasEnv: true}
		mux := newMux(deps)

		Convey("When checking for env credentials", func() {
			req := httptest.NewRequest("GET", "/api/check-credentials", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the flag is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["hasEnvCredentials"], ShouldEqual, true)
			})
		})

		Convey("When validating credentials that Jira rejects", func() {
			deps.validation = model.ValidationResult{Valid: false, Error: "Authentication failed: 401"}
			body := `{"email":"dev@example.com","token":"t0k","instance":"acme.atlassian.net"}`
			req := httptest.NewRequest("POST", "/api/validate-credentials", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the result is returned with 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decodeBody(w)
				So(resp["valid"], ShouldEqual, false)
				So(resp["error"], ShouldEqual, "Authentication failed: 401")
				So(deps.validateArgs, ShouldResemble, []model.Credentials{{Email: "dev@example.com", APIToken: "t0k", Instance: "acme.atlassian.net"}})
			})
		})

		Convey("When validating good credentials", func() {
			deps.validation = model.ValidationResult{Valid: true}
			req := httptest.NewRequest("POST", "/api/validate-credentials", strings.NewReader(`{"email":"a","token":"b"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then no error field is present", func() {
				resp := decodeBody(w)
				So(resp["valid"], ShouldEqual, true)
				_, hasErr := resp["error"]
				So(hasErr, ShouldBeFalse)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest("POST", "/api/validate-credentials", strings.NewReader(`{`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a bad request and Jira is not called", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.validateArgs, ShouldBeEmpty)
			})
		})
	})
}

func TestWorklogHandler_HandleLogWork(t *testing.T) {
	Convey("Given a worklog handler", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)
		post := func(body string, headers map[string]string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/api/log-work", strings.NewReader(body))
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When submitting events with credential headers", func() {
			deps.outcome = model.SubmissionOutcome{Success: true, Results: []model.WorklogResult{
				{Success: true, Start: "2024-01-01T09:00:00Z", End: "2024-01-01T13:30:00Z", Response: json.RawMessage(`{"id":"1"}`)},
			}}
			w := post(`{"issueKey":"AI-152","events":[{"start":"2024-01-01T09:00:00Z","end":"2024-01-01T13:30:00Z","comment":"Dev"}]}`,
				map[string]string{
					api.HeaderJiraEmail:    "dev@example.com",
					api.HeaderJiraToken:    "t0k",
					api.HeaderJiraInstance: "acme.atlassian.net",
				})

			Convey("Then the request is passed through and the outcome returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastIssueKey, ShouldEqual, "AI-152")
				So(deps.lastEvents, ShouldResemble, []model.CalendarEvent{{Start: "2024-01-01T09:00:00Z", End: "2024-01-01T13:30:00Z", Comment: "Dev"}})
				So(deps.lastCreds, ShouldResemble, model.Credentials{Email: "dev@example.com", APIToken: "t0k", Instance: "acme.atlassian.net"})

				resp := decodeBody(w)
				So(resp["success"], ShouldEqual, true)
				results := resp["results"].([]interface{})
				So(results, ShouldHaveLength, 1)
				So(results[0].(map[string]interface{})["response"], ShouldResemble, map[string]interface{}{"id": "1"})
			})
		})

		Convey("When the issue key is missing", func() {
			deps.submitErr = service.ErrMissingIssueKey
			w := post(`{"events":[]}`, nil)

			Convey("Then it responds 400 with the error envelope", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				resp := decodeBody(w)
				So(resp["success"], ShouldEqual, false)
				So(resp["error"], ShouldEqual, "Issue key is required")
			})
		})

		Convey("When no credentials can be found", func() {
			deps.outcome = model.SubmissionOutcome{Success: false, Error: service.MsgNoCredentials}
			w := post(`{"issueKey":"AI-152","events":[{"start":"2024-01-01T09:00:00Z","end":"2024-01-01T10:00:00Z"}]}`, nil)

			Convey("Then it still responds 200 with the credential error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decodeBody(w)
				So(resp["success"], ShouldEqual, false)
				So(resp["error"], ShouldEqual, "No valid credentials found")
				_, hasResults := resp["results"]
				So(hasResults, ShouldBeFalse)
			})
		})

		Convey("When there are no events", func() {
			deps.outcome = model.SubmissionOutcome{Success: true}
			w := post(`{"issueKey":"AI-152","events":[]}`, nil)

			Convey("Then an empty results array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"success":true,"results":[]}`)
			})
		})

		Convey("When the body is not JSON", func() {
			w := post(`not json`, nil)

			Convey("Then it responds 500 without calling the service", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeBody(w)["success"], ShouldEqual, false)
				So(deps.submitCalls, ShouldEqual, 0)
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.submitErr = errors.New("database on fire")
			w := post(`{"issueKey":"AI-152","events":[]}`, nil)

			Convey("Then it responds 500 with the message", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeBody(w)["error"], ShouldEqual, "database on fire")
			})
		})

		Convey("When the service panics", func() {
			deps.panicOnCall = true
			w := post(`{"issueKey":"AI-152","events":[]}`, nil)

			Convey("Then the panic becomes a 500 envelope", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				resp := decodeBody(w)
				So(resp["success"], ShouldEqual, false)
				So(resp["error"], ShouldEqual, "boom")
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given a handler wrapped with RequestID", t, func() {
		var seen string
		h := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logger.RequestID(r.Context())
		}))

		Convey("When the client sends an id", func() {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed and placed in the context", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
				So(seen, ShouldEqual, "abc-123")
			})
		})

		Convey("When the client sends none", func() {
			req := httptest.NewRequest("GET", "/", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then a UUID is generated", func() {
				id := w.Header().Get(api.HeaderRequestID)
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)
				So(seen, ShouldEqual, id)
			})
		})
	})
}

func TestWrapKind(t *testing.T) {
	Convey("Given a wrapped error", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.test", api.ErrBadRequest, cause)

		Convey("Then it matches both the kind and the cause", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "unexpected EOF")
		})

		Convey("Then wrapping nil yields nil", func() {
			So(api.WrapKind("api.test", api.ErrBadRequest, nil), ShouldBeNil)
		})

		Convey("Then a bare kind reports the kind message", func() {
			So(api.NewKind("api.test", api.ErrMissingIssueKey).Error(), ShouldEqual, "Issue key is required")
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"submissions":    12,
				"worklogsFailed": 1,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["submissions"], ShouldEqual, 12.0)
				So(response["worklogsFailed"], ShouldEqual, 1.0)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			})
		})

		Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/stats", nil)
			w := httptest.NewRecorder()
			handler.HandleStats(w, req)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
