package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/models"
)

func publicLead(agentID string) dtos.PublicProspectRequest {
	return dtos.PublicProspectRequest{
		AgentID:  agentID,
		FullName: "Aminata Sow",
		Email:    "aminata@example.com",
		Phone:    "0102030405",
		City:     "Abidjan",
		Product:  "Assurance santé",
	}
}

func TestAddRemoteLead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec := &topicRecorder{}
	rec.listen(h.bus)

	lead, err := h.Remote.AddRemoteLead(ctx, publicLead("agent-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.IsVerified)
	assert.Equal(t, "+225", lead.CountryCode)
	assert.Equal(t, "Côte d'Ivoire", lead.Country)
	assert.Equal(t, models.SourcePublicForm, lead.Source)
	assert.Equal(t, []events.Topic{events.TopicRemoteLeadsChanged}, rec.snapshot())

	assert.Len(t, h.Remote.ListRemoteProspectsByAgent(ctx, "agent-1").Items, 1)
	assert.Len(t, h.Notifications.ListNotifications(ctx, "agent-1").Items, 1)
}

func TestConfirmRemoteProspect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, err := h.Remote.AddRemoteLead(ctx, publicLead("agent-1"))
	require.NoError(t, err)

	p, err := h.Remote.ConfirmRemoteProspect(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.ProspectStatusPending, p.Status)
	assert.Equal(t, "agent-1", p.AgentID)
	assert.Equal(t, "Assurance santé", p.ProductOfInterest)

	assert.Empty(t, h.Remote.ListRemoteProspectsByAgent(ctx, "agent-1").Items)
	assert.Len(t, h.Prospects.ListProspectsByAgent(ctx, "agent-1").Items, 1)

	again, err := h.Remote.ConfirmRemoteProspect(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, h.Prospects.ListProspectsByAgent(ctx, "agent-1").Items, 1)
}

func TestRemoteProspectOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, err := h.Remote.AddRemoteLead(ctx, publicLead("agent-1"))
	require.NoError(t, err)

	ok, err := h.Remote.Owns(ctx, lead.ID, "agent-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.Remote.Owns(ctx, lead.ID, "agent-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.Remote.DeleteRemoteProspect(ctx, lead.ID))
	ok, err = h.Remote.Owns(ctx, lead.ID, "agent-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
