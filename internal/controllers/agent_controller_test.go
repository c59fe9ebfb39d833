package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
)

func createProspect(t *testing.T, s *testServer, tok string) models.Prospect {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/agent/prospects", dtos.CreateProspectRequest{
		FullName: "Fatou Diallo",
		Email:    "Fatou@Example.com",
		Phone:    "0708091011",
		City:     "Abidjan",
	}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[models.Prospect](t, rec)
}

func TestAgentProspectLifecycle(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("agent-1", models.RoleAgent)

	p := createProspect(t, s, tok)
	assert.Equal(t, "agent-1", p.AgentID)
	assert.Equal(t, "fatou@example.com", p.Email)
	assert.Equal(t, models.ProspectStatusPending, p.Status)

	rec := s.do(http.MethodGet, "/api/v1/agent/prospects", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listBody[models.Prospect]](t, rec).Data, 1)

	rec = s.do(http.MethodPost, "/api/v1/agent/prospects/"+p.ID+"/convert", nil, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decodeBody[models.Client](t, rec)
	assert.Equal(t, p.ID, client.ProspectID)

	rec = s.do(http.MethodPost, "/api/v1/agent/prospects/"+p.ID+"/convert", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Prospect already converted", decodeBody[dtos.ConfirmationResponse](t, rec).Message)

	pending := models.ProspectStatusPending
	rec = s.do(http.MethodPatch, "/api/v1/agent/prospects/"+p.ID, dtos.UpdateProspectRequest{Status: &pending}, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/agent/clients", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listBody[models.Client]](t, rec).Data, 1)

	rec = s.do(http.MethodPost, "/api/v1/agent/sales", dtos.CreateSaleRequest{ClientID: client.ID, Amount: 150000, Commission: 15000}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/agent/commission", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 15000, decodeBody[dtos.CommissionResponse](t, rec).Total, 0.001)

	rec = s.do(http.MethodGet, "/api/v1/agent/dashboard?tz=Africa/Abidjan", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[dtos.AgentDashboard](t, rec)
	assert.Equal(t, 1, dash.ClientsTotal)
	assert.Equal(t, 1, dash.SalesTotal)
}

func TestAgentCannotTouchAnotherAgentsRecords(t *testing.T) {
	s := newTestServer(t)
	p := createProspect(t, s, s.token("agent-1", models.RoleAgent))
	other := s.token("agent-2", models.RoleAgent)

	rec := s.do(http.MethodPost, "/api/v1/agent/prospects/"+p.ID+"/convert", nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	status := models.ProspectStatusContacted
	rec = s.do(http.MethodPatch, "/api/v1/agent/prospects/"+p.ID, dtos.UpdateProspectRequest{Status: &status}, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/agent/prospects/"+p.ID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/agent/prospects", nil, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[listBody[models.Prospect]](t, rec).Data)
}

func TestAgentArchiveProspect(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("agent-1", models.RoleAgent)
	p := createProspect(t, s, tok)

	rec := s.do(http.MethodDelete, "/api/v1/agent/prospects/"+p.ID, dtos.ArchiveProspectRequest{Reason: "Doublon"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/agent/prospects", nil, tok)
	prospects := decodeBody[listBody[models.Prospect]](t, rec).Data
	require.Len(t, prospects, 1)
	assert.Equal(t, models.ProspectStatusArchived, prospects[0].Status)
	assert.Equal(t, "Doublon", prospects[0].ArchiveReason)
}

func TestAgentUnknownTimeZone(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/agent/dashboard?tz=Mars/Olympus", nil, s.token("agent-1", models.RoleAgent))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoteLeadConfirmation(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("agent-1", models.RoleAgent)
	lead := dtos.PublicProspectRequest{AgentID: "agent-1", FullName: "Awa Koné", Email: "awa@example.com", Phone: "0102030405", City: "Yamoussoukro", Product: "Retraite"}
	rec := s.do(http.MethodPost, "/api/v1/public/prospects", lead, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[dtos.ConfirmationResponse](t, rec).ID

	rec = s.do(http.MethodPost, "/api/v1/agent/remote-prospects/"+id+"/confirm", nil, s.token("agent-2", models.RoleAgent))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/agent/remote-prospects/"+id+"/confirm", nil, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Awa Koné", decodeBody[models.Prospect](t, rec).FullName)

	rec = s.do(http.MethodGet, "/api/v1/agent/remote-prospects", nil, tok)
	assert.Empty(t, decodeBody[listBody[models.RemoteProspect]](t, rec).Data)
}
