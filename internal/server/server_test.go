package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-contactform/internal/metrics"
	"github.com/goliatone/go-contactform/internal/server"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/jsonapi"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
	"github.com/goliatone/go-contactform/pkg/testsupport"
)

var csrfPattern = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
	csrf    string
}

func newTestServer(t *testing.T) (*server.Server, *prometheus.Registry) {
	t.Helper()

	vanillaRenderer, err := vanilla.New()
	require.NoError(t, err)

	registry := render.NewRegistry()
	require.NoError(t, registry.Register(vanillaRenderer))
	require.NoError(t, registry.Register(jsonapi.New()))

	reg := prometheus.NewRegistry()
	srv, err := server.New(server.Options{
		Form:     testsupport.ContactModel(),
		Registry: registry,
		Metrics:  metrics.NewFormMetrics(reg),
		Gatherer: reg,
		FormOptions: []contact.Option{
			contact.WithClock(testsupport.FixedClock),
			contact.WithIDGenerator(testsupport.SequentialIDs()),
		},
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)
	return srv, reg
}

func newClient(t *testing.T, srv *server.Server) *client {
	t.Helper()

	c := &client{t: t, handler: srv.Handler()}
	rec := c.do(http.MethodGet, "/contact", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == server.SessionCookie {
			c.cookie = cookie
		}
	}
	require.NotNil(t, c.cookie, "session cookie")

	match := csrfPattern.FindStringSubmatch(rec.Body.String())
	require.Len(t, match, 2, "csrf hidden field")
	c.csrf = match[1]
	return c
}

func (c *client) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	if form.Get(render.CSRFFieldName) == "" {
		form.Set(render.CSRFFieldName, c.csrf)
	}
	return c.do(http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func TestShowRendersPristineForm(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/contact", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Contact Form</h1>")
	assert.Contains(t, body, `placeholder="Edd"`)
	assert.Contains(t, body, `data-state="pristine"`)
	assert.NotContains(t, body, "Error:")
	assert.NotContains(t, body, "firstnameDisplay")
	assert.Equal(t, 1, srv.Sessions().Len(), "existing cookie reuses the session")
}

func TestSubmitEmptyFormShowsErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.post("/contact", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Error: firstName must have at least 5 characters.")
	assert.Contains(t, body, "Error: lastName is a required field.")
	assert.Contains(t, body, "Error: email must be a valid email address.")
	assert.Contains(t, body, `data-state="invalid"`)
	assert.NotContains(t, body, "firstnameDisplay")
}

func TestSubmitValidFormShowsSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.post("/contact", url.Values{
		contact.FieldFirstName: {"Ashley"},
		contact.FieldLastName:  {"Burke"},
		contact.FieldEmail:     {"ashley@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "Error:")
	assert.Contains(t, body, `<p data-testid="firstnameDisplay"><strong>First Name: </strong>Ashley</p>`)
	assert.Contains(t, body, `<p data-testid="lastnameDisplay"><strong>Last Name: </strong>Burke</p>`)
	assert.Contains(t, body, `<p data-testid="emailDisplay"><strong>Email: </strong>ashley@example.com</p>`)
	assert.NotContains(t, body, "messageDisplay")
}

func TestSnapshotSurvivesLaterEdits(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.post("/contact", url.Values{
		contact.FieldFirstName: {"Ashley"},
		contact.FieldLastName:  {"Burke"},
		contact.FieldEmail:     {"ashley@example.com"},
		contact.FieldMessage:   {"hello <there>"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello &lt;there&gt;")

	rec = c.post("/contact/fields/firstName", url.Values{"value": {"Bo"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data-state="editing"`)
	assert.Contains(t, body, "Error: firstName must have at least 5 characters.", "edits after a submit revalidate")
	assert.Contains(t, body, `<p data-testid="firstnameDisplay"><strong>First Name: </strong>Ashley</p>`)
	assert.Contains(t, body, `data-testid="messageDisplay"`)
}

func TestFieldEditRejectsUnknownField(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.post("/contact/fields/phone", url.Values{"value": {"555"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostsRequireCSRFToken(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.post("/contact", url.Values{render.CSRFFieldName: {"forged"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.post("/contact", url.Values{render.CSRFFieldName: {c.csrf[:len(c.csrf)-1]}})
	assert.Equal(t, http.StatusForbidden, rec.Code, "token prefix is rejected")

	rec = c.do(http.MethodPost, "/contact", "application/x-www-form-urlencoded", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "missing token is rejected")

	anonymous := &client{t: t, handler: srv.Handler()}
	rec = anonymous.post("/contact", url.Values{render.CSRFFieldName: {c.csrf}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResetReturnsToPristine(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	c.post("/contact", url.Values{})
	rec := c.post("/contact/reset", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-state="pristine"`)
	assert.NotContains(t, rec.Body.String(), "Error:")
}

func TestRendererQueryParameter(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/contact?renderer=json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload jsonapi.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "pristine", payload.State)

	rec = c.do(http.MethodGet, "/contact?renderer=missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPISubmit(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, handler: srv.Handler()}

	rec := c.do(http.MethodPost, "/api/contact", "application/json",
		`{"firstName":"Ashley","lastName":"Burke","email":"ashley@example.com","message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ok jsonapi.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	require.NotNil(t, ok.Submitted)
	assert.Equal(t, "submitted", ok.State)
	assert.Equal(t, "Ashley", ok.Submitted.Values.FirstName)
	assert.Equal(t, "hi", ok.Submitted.Values.Message)
	assert.Equal(t, testsupport.FixedTime, ok.Submitted.SubmittedAt)
	assert.Empty(t, ok.Errors)

	rec = c.do(http.MethodPost, "/api/contact", "application/json", `{"firstName":"Bo","email":"nope"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var invalid jsonapi.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	assert.Nil(t, invalid.Submitted)
	assert.Equal(t, []string{
		"firstName must have at least 5 characters",
		"lastName is a required field",
		"email must be a valid email address",
	}, invalid.Errors.Messages())
}

func TestAPISubmitRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, handler: srv.Handler()}

	rec := c.do(http.MethodPost, "/api/contact", "application/json", `{"phone":"555"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/contact", "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIValidate(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, handler: srv.Handler()}

	rec := c.do(http.MethodPost, "/api/contact/validate", "application/json",
		`{"firstName":"Ashley","lastName":"Burke","email":"ashley@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"errors":[]}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/contact/validate", "application/json",
		`{"firstName":"Ashley","email":"ashley@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":false,"errors":[{"field":"lastName","message":"lastName is a required field"}]}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	c.post("/contact", url.Values{})

	rec = c.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `contactform_form_submissions_total{channel="html",outcome="invalid"} 1`)
	assert.Contains(t, body, `contactform_form_validation_errors_total{field="lastName"} 1`)
	assert.Contains(t, body, "contactform_sessions_active 1")
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := server.New(server.Options{Form: testsupport.ContactModel()})
	require.Error(t, err)
}

func TestNewRejectsUnsupportedField(t *testing.T) {
	vanillaRenderer, err := vanilla.New()
	require.NoError(t, err)
	registry := render.NewRegistry()
	require.NoError(t, registry.Register(vanillaRenderer))
	require.NoError(t, registry.Register(jsonapi.New()))

	definition := testsupport.ContactModel()
	definition.Fields = append(definition.Fields, model.Field{Name: "phone", Type: model.FieldTypeString, Required: true})

	_, err = server.New(server.Options{Form: definition, Registry: registry})
	require.ErrorIs(t, err, contact.ErrUnknownField)
	assert.Contains(t, err.Error(), `"phone"`)
}
