package web

import (
	"net/http"
	"strconv"

	"coincafe/models"
	"coincafe/service"

	"github.com/gin-gonic/gin"
)

// Handler bundles the services behind the HTTP API
type Handler struct {
	accounts  service.AccountService
	transfers service.TransferService
	limits    service.LimitService
	rankings  service.RankingService
	rooms     service.RoomService
}

// NewHandler creates a handler over the given services
func NewHandler(
	accounts service.AccountService,
	transfers service.TransferService,
	limits service.LimitService,
	rankings service.RankingService,
	rooms service.RoomService,
) *Handler {
	return &Handler{
		accounts:  accounts,
		transfers: transfers,
		limits:    limits,
		rankings:  rankings,
		rooms:     rooms,
	}
}

func parseUserID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		respondBadRequest(c, param+" must be an integer")
		return 0, false
	}
	return id, true
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 200 {
		return fallback
	}
	return limit
}

// RegisterAccountRequest is the body of POST /accounts
type RegisterAccountRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// RegisterAccount gets or creates an account
// POST /api/v1/accounts
func (h *Handler) RegisterAccount(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.accounts.GetOrCreateAccount(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, account)
}

// GetAccount returns one account
// GET /api/v1/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, account)
}

// GetAccountTransactions returns a user's newest transactions
// GET /api/v1/accounts/:id/transactions
func (h *Handler) GetAccountTransactions(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	records, err := h.accounts.GetTransactions(c.Request.Context(), userID, parseLimit(c, 50))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, records)
}

// TransferRequest is the body of the transfer endpoints
type TransferRequest struct {
	SenderID    int64  `json:"sender_id" binding:"required"`
	ReceiverID  int64  `json:"receiver_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// Transfer moves coins between two accounts
// POST /api/v1/transfers
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.transfers.TransferGlobal(c.Request.Context(), req.SenderID, req.ReceiverID, req.Amount, req.Description)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, result)
}

// CheckTransferLimit pre-checks whether a transfer would pass the active
// limit rules without performing it
// GET /api/v1/transfers/check?sender_id=&receiver_id=
func (h *Handler) CheckTransferLimit(c *gin.Context) {
	senderID, err := strconv.ParseInt(c.Query("sender_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "sender_id must be an integer")
		return
	}
	receiverID, err := strconv.ParseInt(c.Query("receiver_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "receiver_id must be an integer")
		return
	}

	decision, err := h.limits.CheckTransactionLimit(c.Request.Context(), senderID, receiverID, models.LimitScopeGlobal)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, decision)
}

// GetRankings returns the leaderboard
// GET /api/v1/rankings
func (h *Handler) GetRankings(c *gin.Context) {
	entries, err := h.rankings.GetRankings(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, entries)
}

// GetUserRanking returns one user's leaderboard entry
// GET /api/v1/rankings/:id
func (h *Handler) GetUserRanking(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	entry, err := h.rankings.GetUserRanking(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if entry == nil {
		respondError(c, http.StatusNotFound, "user has no ranking entry")
		return
	}

	respondOK(c, entry)
}

// CreateRoomRequest is the body of POST /rooms
type CreateRoomRequest struct {
	HostID int64  `json:"host_id" binding:"required"`
	Name   string `json:"name"`
}

// CreateRoom opens a new room
// POST /api/v1/rooms
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), req.HostID, req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, room)
}

// GetRoom returns one room by join code
// GET /api/v1/rooms/:code
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, room)
}

// RoomMemberRequest carries the acting user for room membership endpoints
type RoomMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// JoinRoom adds the user to the room
// POST /api/v1/rooms/:code/join
func (h *Handler) JoinRoom(c *gin.Context) {
	var req RoomMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	room, err := h.rooms.JoinRoom(c.Request.Context(), c.Param("code"), req.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, room)
}

// LeaveRoom removes the user from the room
// POST /api/v1/rooms/:code/leave
func (h *Handler) LeaveRoom(c *gin.Context) {
	var req RoomMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.rooms.LeaveRoom(c.Request.Context(), c.Param("code"), req.UserID); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, nil)
}

// Heartbeat refreshes the user's presence in the room
// POST /api/v1/rooms/:code/heartbeat
func (h *Handler) Heartbeat(c *gin.Context) {
	var req RoomMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.rooms.Heartbeat(c.Request.Context(), c.Param("code"), req.UserID); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, nil)
}

// GetRoomMembers returns the room's active members
// GET /api/v1/rooms/:code/members
func (h *Handler) GetRoomMembers(c *gin.Context) {
	members, err := h.rooms.GetActiveMembers(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, members)
}

// GetRoomTransactions returns the newest transfers made inside the room
// GET /api/v1/rooms/:code/transactions
func (h *Handler) GetRoomTransactions(c *gin.Context) {
	records, err := h.rooms.GetTransactions(c.Request.Context(), c.Param("code"), parseLimit(c, 50))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, records)
}

// RoomTransfer moves coins between two active members of the room
// POST /api/v1/rooms/:code/transfers
func (h *Handler) RoomTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.transfers.TransferInRoom(c.Request.Context(), req.SenderID, req.ReceiverID, req.Amount, req.Description, c.Param("code"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, result)
}

// GetRules returns every configured limit rule
// GET /api/v1/admin/rules
func (h *Handler) GetRules(c *gin.Context) {
	rules, err := h.limits.GetRules(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, rules)
}

// CreateRuleRequest is the body of POST /admin/rules
type CreateRuleRequest struct {
	Scope             string  `json:"scope" binding:"required"`
	ScopeID           *string `json:"scope_id"`
	LimitType         string  `json:"limit_type" binding:"required"`
	MaxCount          int     `json:"max_count" binding:"required"`
	TimeWindowMinutes int     `json:"time_window_minutes"`
	Description       string  `json:"description"`
}

// CreateRule inserts a new limit rule
// POST /api/v1/admin/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	rule := &models.LimitRule{
		Scope:             models.LimitScope(req.Scope),
		ScopeID:           req.ScopeID,
		LimitType:         models.LimitType(req.LimitType),
		MaxCount:          req.MaxCount,
		TimeWindowMinutes: req.TimeWindowMinutes,
		Active:            true,
		Description:       req.Description,
	}
	if err := h.limits.CreateRule(c.Request.Context(), rule); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, rule)
}

// UpdateRuleRequest is the body of PATCH /admin/rules/:id; absent fields
// are left unchanged
type UpdateRuleRequest struct {
	MaxCount          *int    `json:"max_count"`
	TimeWindowMinutes *int    `json:"time_window_minutes"`
	Active            *bool   `json:"active"`
	Description       *string `json:"description"`
}

// UpdateRule applies partial changes to a limit rule
// PATCH /api/v1/admin/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "id must be an integer")
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	rule, err := h.limits.UpdateRule(c.Request.Context(), id, service.LimitRuleUpdate{
		MaxCount:          req.MaxCount,
		TimeWindowMinutes: req.TimeWindowMinutes,
		Active:            req.Active,
		Description:       req.Description,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, rule)
}

// AdjustRequest is the body of POST /admin/adjust
type AdjustRequest struct {
	UserID      int64  `json:"user_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// Adjust applies a signed system adjustment to one account
// POST /api/v1/admin/adjust
func (h *Handler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	record, err := h.transfers.Earn(c.Request.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, record)
}
