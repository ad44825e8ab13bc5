package rest_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mcladder/bedboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentJoin_FeeAndPool(t *testing.T) {
	r, db := newServerSetup(t)
	token, player := claimedPlayer(t, r, db, "Steve")
	require.NoError(t, db.Model(&model.Player{}).Where("id = ?", player.ID).Update("coins", 100).Error)

	tour := &model.Tournament{
		Name: "Weekly Cup", StartDate: time.Now().Add(24 * time.Hour),
		EntryFee: 40, MaxParticipants: 16,
		Status: model.TournamentUpcoming, IsActive: true,
	}
	require.NoError(t, db.Create(tour).Error)

	w := postJSON(r, "/api/tournaments/1/join", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var after model.Player
	require.NoError(t, db.First(&after, player.ID).Error)
	assert.Equal(t, 60, after.Coins)

	var tourAfter model.Tournament
	require.NoError(t, db.First(&tourAfter, tour.ID).Error)
	assert.Equal(t, 40, tourAfter.PrizePool)

	// Entering twice conflicts.
	w = postJSON(r, "/api/tournaments/1/join", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTournamentJoin_InsufficientCoins(t *testing.T) {
	r, db := newServerSetup(t)
	token, _ := claimedPlayer(t, r, db, "Poor")

	tour := &model.Tournament{
		Name: "Expensive Cup", StartDate: time.Now().Add(24 * time.Hour),
		EntryFee: 500, MaxParticipants: 16,
		Status: model.TournamentUpcoming, IsActive: true,
	}
	require.NoError(t, db.Create(tour).Error)

	w := postJSON(r, "/api/tournaments/1/join", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestTournamentJoin_AfterStart(t *testing.T) {
	r, db := newServerSetup(t)
	token, _ := claimedPlayer(t, r, db, "Late")

	tour := &model.Tournament{
		Name: "Started Cup", StartDate: time.Now().Add(-time.Hour),
		Status: model.TournamentUpcoming, IsActive: true, MaxParticipants: 16,
	}
	require.NoError(t, db.Create(tour).Error)

	w := postJSON(r, "/api/tournaments/1/join", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTournamentList_ByStatus(t *testing.T) {
	r, db := newServerSetup(t)

	require.NoError(t, db.Create(&model.Tournament{
		Name: "Upcoming", StartDate: time.Now().Add(time.Hour),
		Status: model.TournamentUpcoming, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&model.Tournament{
		Name: "Done", StartDate: time.Now().Add(-48 * time.Hour),
		Status: model.TournamentCompleted, IsActive: true,
	}).Error)

	w := getReq(r, "/api/tournaments?status=upcoming")
	require.Equal(t, http.StatusOK, w.Code)
	tournaments := decodeBody(t, w)["tournaments"].([]interface{})
	require.Len(t, tournaments, 1)
	assert.Equal(t, "Upcoming", tournaments[0].(map[string]interface{})["name"])
}
