package rest_test

import (
	"net/http"
	"testing"

	"github.com/mcladder/bedboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClanCreateAndGet(t *testing.T) {
	r, db := newServerSetup(t)
	token, player := claimedPlayer(t, r, db, "Steve")

	w := postJSON(r, "/api/clans", map[string]string{
		"name": "Dream Team", "tag": "DT", "description": "we break beds",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "Dream Team", resp["name"])
	assert.Equal(t, float64(1000), resp["rating"])
	assert.Equal(t, float64(player.ID), resp["leader_id"])

	w = getReq(r, "/api/clans/1")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	members := resp["members"].([]interface{})
	require.Len(t, members, 1)
	leader := members[0].(map[string]interface{})
	assert.Equal(t, "Steve", leader["nickname"])
	assert.Equal(t, model.ClanRoleLeader, leader["role"])
}

func TestClanCreate_OnePerPlayer(t *testing.T) {
	r, db := newServerSetup(t)
	token, _ := claimedPlayer(t, r, db, "Steve")

	w := postJSON(r, "/api/clans", map[string]string{"name": "First", "tag": "F1"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/clans", map[string]string{"name": "Second", "tag": "S2"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClanCreate_DuplicateName(t *testing.T) {
	r, db := newServerSetup(t)
	token1, _ := claimedPlayer(t, r, db, "Steve")
	token2, _ := claimedPlayer(t, r, db, "Alex")

	w := postJSON(r, "/api/clans", map[string]string{"name": "Unique", "tag": "U1"},
		"Authorization", "Bearer "+token1)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/clans", map[string]string{"name": "Unique", "tag": "U2"},
		"Authorization", "Bearer "+token2)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClanJoinAndKick(t *testing.T) {
	r, db := newServerSetup(t)
	leaderToken, _ := claimedPlayer(t, r, db, "Leader")
	memberToken, member := claimedPlayer(t, r, db, "Member")

	w := postJSON(r, "/api/clans", map[string]string{"name": "Open Clan", "tag": "OC"},
		"Authorization", "Bearer "+leaderToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/clans/1/join", nil, "Authorization", "Bearer "+memberToken)
	require.Equal(t, http.StatusOK, w.Code)

	// A member cannot kick.
	w = postJSON(r, "/api/clans/1/kick", map[string]int64{"player_id": 1},
		"Authorization", "Bearer "+memberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The leader kicks the member.
	w = postJSON(r, "/api/clans/1/kick", map[string]int64{"player_id": member.ID},
		"Authorization", "Bearer "+leaderToken)
	require.Equal(t, http.StatusOK, w.Code)

	var membership model.ClanMember
	require.NoError(t, db.Where("clan_id = ? AND player_id = ?", 1, member.ID).First(&membership).Error)
	assert.False(t, membership.IsActive)
}

func TestClanJoin_ClosedClan(t *testing.T) {
	r, db := newServerSetup(t)
	leaderToken, _ := claimedPlayer(t, r, db, "Leader")
	joinerToken, _ := claimedPlayer(t, r, db, "Joiner")

	w := postJSON(r, "/api/clans", map[string]string{
		"name": "Closed Clan", "tag": "CC", "clan_type": "invite_only",
	}, "Authorization", "Bearer "+leaderToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/clans/1/join", nil, "Authorization", "Bearer "+joinerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClanNotice_LeaderOnly(t *testing.T) {
	r, db := newServerSetup(t)
	leaderToken, _ := claimedPlayer(t, r, db, "Leader")
	memberToken, _ := claimedPlayer(t, r, db, "Member")

	w := postJSON(r, "/api/clans", map[string]string{"name": "Clan", "tag": "CL"},
		"Authorization", "Bearer "+leaderToken)
	require.Equal(t, http.StatusCreated, w.Code)
	w = postJSON(r, "/api/clans/1/join", nil, "Authorization", "Bearer "+memberToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = putJSON(r, "/api/clans/1/notice", map[string]string{"description": "practice at 8"},
		"Authorization", "Bearer "+memberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = putJSON(r, "/api/clans/1/notice", map[string]string{"description": "practice at 8"},
		"Authorization", "Bearer "+leaderToken)
	require.Equal(t, http.StatusOK, w.Code)

	var clan model.Clan
	require.NoError(t, db.First(&clan, 1).Error)
	assert.Equal(t, "practice at 8", clan.Description)
}
