package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]models.Actor

func (s stubResolver) Resolve(r *http.Request) (models.Actor, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if a, ok := s[token]; ok {
		return a, nil
	}
	if token == "inactive" {
		return models.Actor{}, utils.ErrAccountInactive
	}
	return models.Actor{}, utils.ErrInvalidCredentials
}

var testTokens = stubResolver{
	"admin-token":    {ID: 1, Role: models.RoleAdmin},
	"resident-token": {ID: 2, Role: models.RoleHomeowner},
}

type memAnnouncements struct {
	mu   sync.Mutex
	rows []*models.Announcement
}

func (m *memAnnouncements) Create(_ context.Context, a *models.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = len(m.rows) + 1
	m.rows = append(m.rows, a)
	return nil
}

func (m *memAnnouncements) List(context.Context) ([]*models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Announcement(nil), m.rows...), nil
}

func (m *memAnnouncements) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.rows {
		if a.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

type memProjects struct {
	mu   sync.Mutex
	rows map[int]*models.Project
	next int
}

func newMemProjects() *memProjects { return &memProjects{rows: map[int]*models.Project{}} }

func (m *memProjects) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = m.next
	p.RowVersion = 1
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProjects) Get(_ context.Context, id int) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) List(context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Project, 0, len(m.rows))
	for _, p := range m.rows {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memProjects) Update(_ context.Context, p *models.Project, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[p.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if cur.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	p.RowVersion = expectedVersion + 1
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProjects) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) errorMessage(t *testing.T) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &body))
	return body.Error
}

func newTestGateway() *GatewayHandler {
	return NewGatewayHandler(testTokens, GatewayServices{
		Announcements: services.NewAnnouncementService(&memAnnouncements{}),
		Projects:      services.NewProjectService(newMemProjects(), nil, nil),
	})
}

func post(t *testing.T, gw http.Handler, token, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/gateway", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(t, gw, req)
}

func serve(t *testing.T, gw http.Handler, req *http.Request) envelope {
	t.Helper()
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGateway_Rejections(t *testing.T) {
	gw := newTestGateway()

	tests := []struct {
		name  string
		token string
		body  string
		want  string
	}{
		{"unknown action", "admin-token", `{"action":"dropTables","payload":{}}`, "Unknown action: dropTables"},
		{"malformed body", "admin-token", `{"action":`, "Malformed request body"},
		{"missing token", "", `{"action":"getProjects"}`, "Session expired, please sign in again"},
		{"inactive account", "inactive", `{"action":"getProjects"}`, "Account is not active"},
		{"resident creating project", "resident-token", `{"action":"createProject","payload":{"name":"Gate","budget":"100"}}`, "You are not allowed to perform this action"},
		{"missing payload", "admin-token", `{"action":"createProject"}`, "Payload is required"},
		{"update without id", "admin-token", `{"action":"updateProject","payload":{"name":"Gate","budget":"100","expected_version":1}}`, "id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := post(t, gw, tt.token, tt.body)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.errorMessage(t))
		})
	}
}

func TestGateway_CreateProjectOverTextPlain(t *testing.T) {
	gw := newTestGateway()

	env := post(t, gw, "admin-token",
		`{"action":"createProject","payload":{"name":"Clubhouse roof","budget":"5000","funds_spent":"1000"}}`)
	require.True(t, env.Success, string(env.Data))

	var project struct {
		ID           int    `json:"id"`
		PercentSpent string `json:"percentSpent"`
		Remaining    string `json:"remaining"`
		RowVersion   int64  `json:"row_version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, "20", project.PercentSpent)
	assert.Equal(t, "4000", project.Remaining)

	// a second admin holding the old version loses
	update := `{"action":"updateProject","payload":{"id":1,"name":"Clubhouse roof","budget":"6000","expected_version":1}}`
	require.True(t, post(t, gw, "admin-token", update).Success)
	stale := post(t, gw, "admin-token", update)
	assert.False(t, stale.Success)
	assert.Equal(t, "Record was modified by someone else, refresh and try again", stale.errorMessage(t))
}

func TestGateway_ReadsOverGet(t *testing.T) {
	gw := newTestGateway()
	require.True(t, post(t, gw, "admin-token",
		`{"action":"createAnnouncement","payload":{"title":"Water interruption","body":"Tuesday 9-12"}}`).Success)

	req := httptest.NewRequest(http.MethodGet, "/api/gateway?action=getAnnouncements", nil)
	req.Header.Set("Authorization", "Bearer resident-token")
	env := serve(t, gw, req)
	require.True(t, env.Success)

	var list []models.Announcement
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Water interruption", list[0].Title)
}

func TestGateway_MethodNotAllowed(t *testing.T) {
	env := serve(t, newTestGateway(), httptest.NewRequest(http.MethodDelete, "/api/gateway", nil))
	assert.False(t, env.Success)
	assert.Equal(t, "Method not allowed", env.errorMessage(t))
}

func TestGatewayCall_ParamFallsBackToPayload(t *testing.T) {
	c := &gatewayCall{
		payload: json.RawMessage(`{"project_id":7,"status":"pending"}`),
		query:   url.Values{"status": {"verified"}},
	}
	assert.Equal(t, 7, c.intParam("project_id"))
	assert.Equal(t, "verified", c.param("status"))
	assert.Equal(t, "", c.param("missing"))
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}

	data, err := decodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	data, err = decodeDataURL(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	_, err = decodeDataURL("data:image/png;base64,@@@")
	var vErr *utils.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "proof", vErr.Field)

	big := base64.StdEncoding.EncodeToString(make([]byte, services.MaxProofBytes+1))
	_, err = decodeDataURL(big)
	assert.ErrorIs(t, err, services.ErrProofTooLarge)
}

type memContributions struct {
	mu   sync.Mutex
	rows map[int]*models.Contribution
}

func (m *memContributions) put(c *models.Contribution) {
	c.ID = len(m.rows) + 1
	c.RowVersion = 1
	cp := *c
	m.rows[c.ID] = &cp
}

func (m *memContributions) Create(_ context.Context, c *models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(c)
	return nil
}

func (m *memContributions) CreateVerified(ctx context.Context, c *models.Contribution) error {
	return m.Create(ctx, c)
}

func (m *memContributions) Get(_ context.Context, id int) (*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memContributions) List(_ context.Context, projectID int) ([]*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Contribution
	for _, c := range m.rows {
		if projectID == 0 || c.ProjectID == projectID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memContributions) SaveDecision(_ context.Context, c *models.Contribution, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if cur.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	c.RowVersion = expectedVersion + 1
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func TestGateway_ContributionFlow(t *testing.T) {
	projects := newMemProjects()
	gw := NewGatewayHandler(testTokens, GatewayServices{
		Projects:      services.NewProjectService(projects, nil, nil),
		Contributions: services.NewContributionService(&memContributions{rows: map[int]*models.Contribution{}}, projects, nil, nil, nil, nil),
	})

	require.True(t, post(t, gw, "admin-token",
		`{"action":"createProject","payload":{"name":"Gate lights","budget":"8000"}}`).Success)

	env := post(t, gw, "resident-token",
		`{"action":"createProjectContribution","payload":{"project_id":1,"amount":"500","method":"cash"}}`)
	require.True(t, env.Success, string(env.Data))
	var created models.Contribution
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.VerificationPending, created.Status)

	gcash := post(t, gw, "resident-token",
		`{"action":"createProjectContribution","payload":{"project_id":1,"amount":"500","method":"gcash"}}`)
	assert.False(t, gcash.Success)
	assert.Equal(t, "Proof of payment is required for this method", gcash.errorMessage(t))

	decide := `{"action":"updateContributionStatus","payload":{"id":1,"status":"verified","expected_version":1}}`
	denied := post(t, gw, "resident-token", decide)
	assert.False(t, denied.Success)
	assert.Equal(t, "You are not allowed to perform this action", denied.errorMessage(t))

	env = post(t, gw, "admin-token", decide)
	require.True(t, env.Success, string(env.Data))
	var verified models.Contribution
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, models.VerificationVerified, verified.Status)
}
