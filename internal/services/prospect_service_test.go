package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/docstore/memory"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

func newProspectReq(name string) dtos.CreateProspectRequest {
	return dtos.CreateProspectRequest{
		FullName:          name,
		Email:             "Contact@Example.com",
		Phone:             "0700000000",
		CountryCode:       "+225",
		ProductOfInterest: "Assurance auto",
	}
}

func TestAddProspectSetsDefaults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.clock.Now()

	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Awa Koné"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProspectStatusPending, p.Status)
	assert.False(t, p.CreatedAt.Before(before))
	assert.Equal(t, "contact@example.com", p.Email)
	assert.Equal(t, "Côte d'Ivoire", p.Country)

	stored := h.Prospects.GetProspect(ctx, p.ID)
	require.True(t, stored.Found())
	assert.True(t, stored.Item.CreatedAt.Equal(p.CreatedAt))
}

func TestConvertToClient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Koffi Yao"))
	require.NoError(t, err)

	client, err := h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, p.ID, client.ProspectID)
	assert.Equal(t, models.ClientStatusPending, client.Status)
	assert.Equal(t, "Assurance auto", client.Product)
	assert.Equal(t, "agent-1", client.AgentID)

	stored := h.Prospects.GetProspect(ctx, p.ID)
	assert.Equal(t, models.ProspectStatusConverted, stored.Item.Status)
	require.NotNil(t, stored.Item.ConvertedAt)

	// Converting again leaves exactly one client.
	again, err := h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	clients := h.Clients.ListClients(ctx)
	require.Len(t, clients.Items, 1)
	assert.Equal(t, p.ID, clients.Items[0].ProspectID)
}

func TestConvertMissingProspectIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	client, err := h.Prospects.ConvertToClient(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Empty(t, h.Clients.ListClients(ctx).Items)
}

func TestConvertRollsBackWhenClientWriteFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Fanta Diallo"))
	require.NoError(t, err)

	h.store.SetFault(func(op memory.Op, collection, _ string) error {
		if op == memory.OpAdd && collection == repositories.ClientsCollection {
			return errors.New("disk full")
		}
		return nil
	})
	_, err = h.Prospects.ConvertToClient(ctx, p.ID)
	require.Error(t, err)
	h.store.SetFault(nil)

	stored := h.Prospects.GetProspect(ctx, p.ID)
	assert.Equal(t, models.ProspectStatusPending, stored.Item.Status)
	assert.Empty(t, h.Clients.ListClients(ctx).Items)
}

func TestDeleteProspectArchives(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Ali Ouattara"))
	require.NoError(t, err)

	require.NoError(t, h.Prospects.DeleteProspect(ctx, p.ID, "doublon"))
	stored := h.Prospects.GetProspect(ctx, p.ID)
	require.True(t, stored.Found())
	assert.Equal(t, models.ProspectStatusArchived, stored.Item.Status)
	assert.Equal(t, "doublon", stored.Item.ArchiveReason)
}

func TestUpdateProspectKeepsConvertedStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Mariam Koné"))
	require.NoError(t, err)
	_, err = h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)

	pending := models.ProspectStatusPending
	err = h.Prospects.UpdateProspect(ctx, p.ID, dtos.UpdateProspectRequest{Status: &pending})
	assert.Equal(t, http.StatusConflict, statusOf(err))
	require.ErrorIs(t, err, utils.ErrProspectConverted)

	// Field edits without a status change are still allowed.
	city := "San-Pédro"
	require.NoError(t, h.Prospects.UpdateProspect(ctx, p.ID, dtos.UpdateProspectRequest{City: &city}))

	stored := h.Prospects.GetProspect(ctx, p.ID)
	assert.Equal(t, models.ProspectStatusConverted, stored.Item.Status)
	assert.Equal(t, city, stored.Item.City)

	again, err := h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
	require.Len(t, h.Clients.ListClients(ctx).Items, 1)
}

func TestConvertSkipsProspectThatAlreadyHasClient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Yao Kouassi"))
	require.NoError(t, err)
	_, err = h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)

	// Status reset behind the service's back.
	require.NoError(t, h.prospectRepo.Update(ctx, p.ID, docstore.Fields{"status": models.ProspectStatusPending}))

	again, err := h.Prospects.ConvertToClient(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
	require.Len(t, h.Clients.ListClients(ctx).Items, 1)
}

func TestUpdateProspectMissingIsNotFound(t *testing.T) {
	h := newHarness(t)
	name := "X"
	err := h.Prospects.UpdateProspect(context.Background(), "missing", dtos.UpdateProspectRequest{FullName: &name})
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCountProspectsTodayUsesLocalDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	loc := time.FixedZone("UTC+2", 2*60*60)

	// 15 June 2025 14:30 UTC is 16:30 local.
	localMidnight := time.Date(2025, 6, 15, 0, 0, 0, 0, loc)
	inside := localMidnight
	outside := localMidnight.Add(-time.Second)
	for _, created := range []time.Time{inside, outside, localMidnight.Add(23*time.Hour + 59*time.Minute)} {
		_, err := h.prospectRepo.Add(ctx, &models.Prospect{AgentID: "agent-1", Status: models.ProspectStatusPending, CreatedAt: created.UTC()})
		require.NoError(t, err)
	}
	_, err := h.prospectRepo.Add(ctx, &models.Prospect{AgentID: "agent-2", CreatedAt: inside.UTC()})
	require.NoError(t, err)

	n, degraded := h.Prospects.CountProspectsTodayByAgent(ctx, "agent-1", loc)
	assert.False(t, degraded)
	assert.Equal(t, 2, n)
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC) // 31 Dec 22:00 local
	start, end := DayWindow(now, loc)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), end)
}

func TestProspectReadsDegradeWhenStoreFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.Prospects.AddProspect(ctx, "agent-1", newProspectReq("Grace Mensah"))
	require.NoError(t, err)

	h.store.SetFault(func(memory.Op, string, string) error { return docstore.ErrPermissionDenied })
	all := h.Prospects.ListProspects(ctx)
	assert.True(t, all.Degraded())
	assert.Empty(t, all.Items)

	mine := h.Prospects.ListProspectsByAgent(ctx, "agent-1")
	assert.True(t, mine.Degraded())
	assert.Empty(t, mine.Items)

	one := h.Prospects.GetProspect(ctx, "whatever")
	assert.False(t, one.Found())

	n, degraded := h.Prospects.CountProspectsTodayByAgent(ctx, "agent-1", time.UTC)
	assert.Zero(t, n)
	assert.True(t, degraded)
}
