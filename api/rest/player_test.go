package rest_test

import (
	"net/http"
	"testing"

	"github.com/mcladder/bedboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerGet_DerivedFields(t *testing.T) {
	r, db := newServerSetup(t)

	player := &model.Player{
		Nickname: "Herobrine",
		Kills:    10, Deaths: 4, Wins: 3, GamesPlayed: 10,
		Experience: 15000,
	}
	require.NoError(t, db.Create(player).Error)

	w := getReq(r, "/api/players/1")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "Herobrine", resp["nickname"])
	assert.Equal(t, float64(2), resp["level"]) // 15000 xp is past the 10000 threshold
	assert.Equal(t, 2.5, resp["kd_ratio"])
	assert.Equal(t, 30.0, resp["win_rate"])
	assert.Equal(t, 40.0, resp["level_progress"]) // 5000 into the 12500-wide level 2
}

func TestPlayerGet_NotFound(t *testing.T) {
	r, _ := newServerSetup(t)
	w := getReq(r, "/api/players/42")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayerList_SearchAndPaging(t *testing.T) {
	r, db := newServerSetup(t)

	for _, p := range []*model.Player{
		{Nickname: "alpha", Experience: 100},
		{Nickname: "alphabet", Experience: 300},
		{Nickname: "beta", Experience: 200},
	} {
		require.NoError(t, db.Create(p).Error)
	}

	w := getReq(r, "/api/players?search=alpha")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	players := resp["players"].([]interface{})
	require.Len(t, players, 2)
	// Ordered by experience, highest first.
	first := players[0].(map[string]interface{})
	assert.Equal(t, "alphabet", first["nickname"])
}

func TestPlayerClaim(t *testing.T) {
	r, db := newServerSetup(t)

	player := &model.Player{Nickname: "Steve"}
	require.NoError(t, db.Create(player).Error)

	token := loginToken(t, r, "steve_account")

	w := postJSON(r, "/api/players/claim", map[string]string{"nickname": "Steve"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var claimed model.Player
	require.NoError(t, db.First(&claimed, player.ID).Error)
	require.NotNil(t, claimed.AccountID)

	// The same account cannot claim twice.
	w = postJSON(r, "/api/players/claim", map[string]string{"nickname": "Steve"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Another account cannot take a claimed player.
	other := loginToken(t, r, "impostor")
	w = postJSON(r, "/api/players/claim", map[string]string{"nickname": "Steve"},
		"Authorization", "Bearer "+other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPlayerClaim_RequiresAuth(t *testing.T) {
	r, _ := newServerSetup(t)
	w := postJSON(r, "/api/players/claim", map[string]string{"nickname": "Steve"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
