package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"gorm.io/gorm"
)

// ClanHandler manages clans and memberships.
type ClanHandler struct {
	db *gorm.DB
}

func NewClanHandler(db *gorm.DB) *ClanHandler {
	return &ClanHandler{db: db}
}

var (
	errClanNotFound  = errors.New("clan not found")
	errAlreadyInClan = errors.New("player already in a clan")
	errClanFull      = errors.New("clan is full")
	errClanClosed    = errors.New("clan does not accept join requests")
	errNotClanLeader = errors.New("requires clan leader")
	errNotClanRank   = errors.New("requires officer or leader")
	errKickLeader    = errors.New("cannot kick the leader")
	errNotMember     = errors.New("not a member of this clan")
)

func clanView(clan *model.Clan, memberCount int64) gin.H {
	return gin.H{
		"id":           clan.ID,
		"name":         clan.Name,
		"tag":          clan.Tag,
		"description":  clan.Description,
		"clan_type":    clan.ClanType,
		"level":        clan.Level(),
		"experience":   clan.Experience,
		"rating":       clan.Rating,
		"leader_id":    clan.LeaderID,
		"max_members":  clan.MaxMembers,
		"member_count": memberCount,
		"created_at":   clan.CreatedAt,
	}
}

// List handles GET /api/clans.
func (h *ClanHandler) List(c *gin.Context) {
	var clans []model.Clan
	if err := h.db.Where("is_active = ?", true).Order("rating DESC").Find(&clans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	views := make([]gin.H, 0, len(clans))
	for i := range clans {
		var count int64
		h.db.Model(&model.ClanMember{}).
			Where("clan_id = ? AND is_active = ?", clans[i].ID, true).Count(&count)
		views = append(views, clanView(&clans[i], count))
	}
	c.JSON(http.StatusOK, gin.H{"clans": views})
}

// Get handles GET /api/clans/:id, including the member roster.
func (h *ClanHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clan id"})
		return
	}

	var clan model.Clan
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&clan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "clan not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	var members []model.ClanMember
	if err := h.db.Where("clan_id = ? AND is_active = ?", id, true).Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	playerIDs := make([]int64, 0, len(members))
	for _, m := range members {
		playerIDs = append(playerIDs, m.PlayerID)
	}
	nicknames := map[int64]string{}
	if len(playerIDs) > 0 {
		var players []model.Player
		if err := h.db.Select("id", "nickname").Where("id IN ?", playerIDs).Find(&players).Error; err == nil {
			for _, p := range players {
				nicknames[p.ID] = p.Nickname
			}
		}
	}

	roster := make([]gin.H, 0, len(members))
	for _, m := range members {
		roster = append(roster, gin.H{
			"player_id":    m.PlayerID,
			"nickname":     nicknames[m.PlayerID],
			"role":         m.Role,
			"contribution": m.Contribution,
			"joined_at":    m.JoinedAt,
		})
	}

	view := clanView(&clan, int64(len(members)))
	view["members"] = roster
	c.JSON(http.StatusOK, view)
}

type createClanRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Tag         string `json:"tag" binding:"required,min=2,max=8"`
	Description string `json:"description" binding:"max=1000"`
	ClanType    string `json:"clan_type" binding:"omitempty,oneof=open invite_only closed"`
}

// Create handles POST /api/clans. The creator's player becomes the
// leader and first member in the same transaction.
func (h *ClanHandler) Create(c *gin.Context) {
	var req createClanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ClanType == "" {
		req.ClanType = model.ClanTypeOpen
	}

	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	var clan model.Clan
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var membership model.ClanMember
		err := tx.Where("player_id = ? AND is_active = ?", player.ID, true).First(&membership).Error
		if err == nil {
			return errAlreadyInClan
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		clan = model.Clan{
			Name:        req.Name,
			Tag:         req.Tag,
			Description: req.Description,
			ClanType:    req.ClanType,
			LeaderID:    player.ID,
			MaxMembers:  50,
			Rating:      1000,
			IsActive:    true,
		}
		if err := tx.Create(&clan).Error; err != nil {
			return err
		}
		return tx.Create(&model.ClanMember{
			ClanID:   clan.ID,
			PlayerID: player.ID,
			Role:     model.ClanRoleLeader,
			IsActive: true,
		}).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusCreated, clanView(&clan, 1))
	case errors.Is(err, errAlreadyInClan):
		c.JSON(http.StatusConflict, gin.H{"error": "already in a clan"})
	case isUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "clan name or tag already taken"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Join handles POST /api/clans/:id/join. Only open clans accept direct
// joins; capacity is checked inside the transaction.
func (h *ClanHandler) Join(c *gin.Context) {
	clanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clan id"})
		return
	}

	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var clan model.Clan
		if err := tx.Where("id = ? AND is_active = ?", clanID, true).First(&clan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errClanNotFound
			}
			return err
		}
		if clan.ClanType != model.ClanTypeOpen {
			return errClanClosed
		}

		var membership model.ClanMember
		err := tx.Where("player_id = ? AND is_active = ?", player.ID, true).First(&membership).Error
		if err == nil {
			return errAlreadyInClan
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&model.ClanMember{}).
			Where("clan_id = ? AND is_active = ?", clanID, true).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(clan.MaxMembers) {
			return errClanFull
		}

		return tx.Create(&model.ClanMember{
			ClanID:   clanID,
			PlayerID: player.ID,
			Role:     model.ClanRoleMember,
			IsActive: true,
		}).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "joined clan"})
	case errors.Is(err, errClanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "clan not found"})
	case errors.Is(err, errClanClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "clan does not accept join requests"})
	case errors.Is(err, errAlreadyInClan):
		c.JSON(http.StatusConflict, gin.H{"error": "already in a clan"})
	case errors.Is(err, errClanFull):
		c.JSON(http.StatusConflict, gin.H{"error": "clan is full"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Kick handles POST /api/clans/:id/kick. Officers can kick members;
// only the leader can kick officers; the leader cannot be kicked.
func (h *ClanHandler) Kick(c *gin.Context) {
	clanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clan id"})
		return
	}

	var req struct {
		PlayerID int64 `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var actorMember model.ClanMember
		err := tx.Where("clan_id = ? AND player_id = ? AND is_active = ?", clanID, actor.ID, true).
			First(&actorMember).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotMember
			}
			return err
		}
		if actorMember.Role == model.ClanRoleMember {
			return errNotClanRank
		}

		var target model.ClanMember
		err = tx.Where("clan_id = ? AND player_id = ? AND is_active = ?", clanID, req.PlayerID, true).
			First(&target).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotMember
			}
			return err
		}
		if target.Role == model.ClanRoleLeader {
			return errKickLeader
		}
		if target.Role == model.ClanRoleOfficer && actorMember.Role != model.ClanRoleLeader {
			return errNotClanLeader
		}

		return tx.Model(&target).Update("is_active", false).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "member removed"})
	case errors.Is(err, errNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "membership not found"})
	case errors.Is(err, errNotClanRank), errors.Is(err, errNotClanLeader):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient clan rank"})
	case errors.Is(err, errKickLeader):
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot kick the leader"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// UpdateNotice handles PUT /api/clans/:id/notice. Leader only.
func (h *ClanHandler) UpdateNotice(c *gin.Context) {
	clanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clan id"})
		return
	}

	var req struct {
		Description string `json:"description" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	var clan model.Clan
	if err := h.db.Where("id = ? AND is_active = ?", clanID, true).First(&clan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "clan not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	if clan.LeaderID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "requires clan leader"})
		return
	}

	if err := h.db.Model(&clan).Update("description", req.Description).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notice updated"})
}
