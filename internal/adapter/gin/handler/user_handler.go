package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-address-service/internal/usecase/user"
	apperrors "user-address-service/pkg/errors"
	"user-address-service/pkg/logger"
)

// UserHandler handles HTTP requests for users and their addresses
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// AddressRequest is the JSON body of an address
type AddressRequest struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Username  string           `json:"username"`
	Addresses []AddressRequest `json:"addresses"`
}

// UpdateUserRequest carries the version the client last read.
type UpdateUserRequest struct {
	Version  *int   `json:"version" binding:"required"`
	Username string `json:"username"`
}

// UpdateAddressRequest carries the version the client last read.
type UpdateAddressRequest struct {
	Version *int `json:"version" binding:"required"`
	AddressRequest
}

// AddressResponse represents the HTTP response for address data
type AddressResponse struct {
	ID      int64  `json:"id"`
	Version int    `json:"version"`
	UserID  int64  `json:"user_id"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	Line3   string `json:"line3"`
}

// UserResponse represents the HTTP response for user data. Addresses is
// omitted unless they were requested.
type UserResponse struct {
	ID        int64             `json:"id"`
	Version   int               `json:"version"`
	Username  string            `json:"username"`
	Addresses []AddressResponse `json:"addresses,omitempty"`
}

type CreateUserResponse struct {
	ID         int64   `json:"id"`
	Version    int     `json:"version"`
	AddressIDs []int64 `json:"address_ids"`
}

// VersionResponse is returned by update endpoints.
type VersionResponse struct {
	ID      int64 `json:"id"`
	Version int   `json:"version"`
}

type AddAddressResponse struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user_id"`
	UserVersion int   `json:"user_version"`
}

// SearchUsersResponse represents the HTTP response for searching users
type SearchUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"total_pages"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := user.CreateUserRequest{Username: req.Username}
	for _, a := range req.Addresses {
		in.Addresses = append(in.Addresses, toAddressInput(a))
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{
		ID:         resp.ID,
		Version:    resp.Version,
		AddressIDs: resp.AddressIDs,
	})
}

// GetUser handles GET /v1/users/:id?addresses=true
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	withAddresses, _ := strconv.ParseBool(c.DefaultQuery("addresses", "false"))

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id, WithAddresses: withAddresses})
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(resp.User))
}

// UpdateUser handles PUT /v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:       id,
		Version:  *req.Version,
		Username: req.Username,
	})
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusOK, VersionResponse{ID: resp.ID, Version: resp.Version})
}

// DeleteUser handles DELETE /v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id})
	if err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": resp.ID})
}

// SearchUsers handles GET /v1/users?property=username&query=jo&page=1&limit=10
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}

	resp, err := h.uc.SearchUsers(c.Request.Context(), user.SearchUsersRequest{
		Property: c.Query("property"),
		Query:    c.Query("query"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.handleError(c, "SearchUsers", err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toUserResponse(u)
	}

	var pagination *Pagination
	if resp.Pagination != nil {
		pagination = &Pagination{
			Total:      resp.Pagination.Total,
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			TotalPages: resp.Pagination.TotalPages,
		}
	}

	c.JSON(http.StatusOK, SearchUsersResponse{
		Users:      users,
		Pagination: pagination,
	})
}

// AddAddress handles POST /v1/users/:id/addresses
func (h *UserHandler) AddAddress(c *gin.Context) {
	userID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.AddAddress(c.Request.Context(), user.AddAddressRequest{
		UserID:       userID,
		AddressInput: toAddressInput(req),
	})
	if err != nil {
		h.handleError(c, "AddAddress", err)
		return
	}

	c.JSON(http.StatusCreated, AddAddressResponse{
		ID:          resp.ID,
		UserID:      resp.UserID,
		UserVersion: resp.UserVersion,
	})
}

// UpdateAddress handles PUT /v1/addresses/:id
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.UpdateAddress(c.Request.Context(), user.UpdateAddressRequest{
		ID:           id,
		Version:      *req.Version,
		AddressInput: toAddressInput(req.AddressRequest),
	})
	if err != nil {
		h.handleError(c, "UpdateAddress", err)
		return
	}

	c.JSON(http.StatusOK, VersionResponse{ID: resp.ID, Version: resp.Version})
}

// DeleteAddress handles DELETE /v1/addresses/:id
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteAddress(c.Request.Context(), user.DeleteAddressRequest{ID: id})
	if err != nil {
		h.handleError(c, "DeleteAddress", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": resp.ID})
}

func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.log.Warn("invalid path id", zap.String("id", raw))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "ID must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (h *UserHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return false
	}
	return true
}

// handleError converts usecase errors to HTTP responses. Internal errors are
// logged with their cause and answered with a generic message.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	var statuser apperrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status = statuser.HTTPStatus()
	}

	log := logger.WithContext(c.Request.Context(), h.log).With(zap.String("op", op), zap.Error(err))

	var code string
	switch status {
	case http.StatusBadRequest:
		code = "validation_error"
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusConflict:
		code = "conflict"
	default:
		log.Error("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	log.Info("request rejected", zap.Int("status", status))
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}

func toAddressInput(a AddressRequest) user.AddressInput {
	return user.AddressInput{Line1: a.Line1, Line2: a.Line2, Line3: a.Line3}
}

func toUserResponse(u user.User) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Version:  u.Version,
		Username: u.Username,
	}
	if u.Addresses != nil {
		resp.Addresses = make([]AddressResponse, len(u.Addresses))
		for i, a := range u.Addresses {
			resp.Addresses[i] = AddressResponse{
				ID:      a.ID,
				Version: a.Version,
				UserID:  a.UserID,
				Line1:   a.Line1,
				Line2:   a.Line2,
				Line3:   a.Line3,
			}
		}
	}
	return resp
}
