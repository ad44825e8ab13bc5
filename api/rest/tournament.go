package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"gorm.io/gorm"
)

// TournamentHandler lists tournaments and handles entries.
type TournamentHandler struct {
	db *gorm.DB
}

func NewTournamentHandler(db *gorm.DB) *TournamentHandler {
	return &TournamentHandler{db: db}
}

var (
	errTournamentNotFound = errors.New("tournament not found")
	errTournamentClosed   = errors.New("tournament is not open for entries")
	errTournamentFull     = errors.New("tournament is full")
	errAlreadyEntered     = errors.New("already entered")
	errInsufficientCoins  = errors.New("not enough coins for the entry fee")
)

func tournamentView(t *model.Tournament, participants int64) gin.H {
	return gin.H{
		"id":               t.ID,
		"name":             t.Name,
		"description":      t.Description,
		"tournament_type":  t.TournamentType,
		"start_date":       t.StartDate,
		"end_date":         t.EndDate,
		"entry_fee":        t.EntryFee,
		"prize_pool":       t.PrizePool,
		"max_participants": t.MaxParticipants,
		"participants":     participants,
		"status":           t.Status,
	}
}

// List handles GET /api/tournaments. Supports ?status=.
func (h *TournamentHandler) List(c *gin.Context) {
	q := h.db.Where("is_active = ?", true)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var tournaments []model.Tournament
	if err := q.Order("start_date").Find(&tournaments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	views := make([]gin.H, 0, len(tournaments))
	for i := range tournaments {
		var count int64
		h.db.Model(&model.TournamentParticipant{}).
			Where("tournament_id = ? AND is_active = ?", tournaments[i].ID, true).Count(&count)
		views = append(views, tournamentView(&tournaments[i], count))
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": views})
}

// Join handles POST /api/tournaments/:id/join. The entry fee is taken
// from the player's coins and added to the prize pool atomically.
func (h *TournamentHandler) Join(c *gin.Context) {
	tournamentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
		return
	}

	player, err := playerForAccount(h.db, mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no claimed player"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var t model.Tournament
		if err := tx.Where("id = ? AND is_active = ?", tournamentID, true).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTournamentNotFound
			}
			return err
		}
		if t.Status != model.TournamentUpcoming || time.Now().After(t.StartDate) {
			return errTournamentClosed
		}

		var existing model.TournamentParticipant
		err := tx.Where("tournament_id = ? AND player_id = ? AND is_active = ?",
			tournamentID, player.ID, true).First(&existing).Error
		if err == nil {
			return errAlreadyEntered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&model.TournamentParticipant{}).
			Where("tournament_id = ? AND is_active = ?", tournamentID, true).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(t.MaxParticipants) {
			return errTournamentFull
		}

		var current model.Player
		if err := tx.First(&current, player.ID).Error; err != nil {
			return err
		}
		if current.Coins < t.EntryFee {
			return errInsufficientCoins
		}
		if t.EntryFee > 0 {
			if err := tx.Model(&current).Update("coins", current.Coins-t.EntryFee).Error; err != nil {
				return err
			}
			if err := tx.Model(&t).Update("prize_pool", t.PrizePool+t.EntryFee).Error; err != nil {
				return err
			}
		}

		entry := &model.TournamentParticipant{
			TournamentID: tournamentID,
			PlayerID:     player.ID,
			IsActive:     true,
		}
		if t.TournamentType == "clans" {
			var membership model.ClanMember
			err := tx.Where("player_id = ? AND is_active = ?", player.ID, true).First(&membership).Error
			if err == nil {
				entry.ClanID = &membership.ClanID
			}
		}
		return tx.Create(entry).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "entered tournament"})
	case errors.Is(err, errTournamentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
	case errors.Is(err, errTournamentClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "tournament is not open for entries"})
	case errors.Is(err, errAlreadyEntered):
		c.JSON(http.StatusConflict, gin.H{"error": "already entered"})
	case errors.Is(err, errTournamentFull):
		c.JSON(http.StatusConflict, gin.H{"error": "tournament is full"})
	case errors.Is(err, errInsufficientCoins):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "not enough coins"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
