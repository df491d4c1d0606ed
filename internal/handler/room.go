package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecollab-backend/internal/coordinator"
	"codecollab-backend/internal/model"
	"codecollab-backend/internal/store"
)

// RoomHandler serves the REST surface for rooms. Realtime membership changes
// go over the websocket; these routes exist for room creation and for
// clients without a live connection.
type RoomHandler struct {
	store   store.RoomStore
	baseURL string
	log     *zap.SugaredLogger
}

// NewRoomHandler creates the room REST handler.
func NewRoomHandler(st store.RoomStore, baseURL string, log *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{store: st, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	ClientID string `json:"clientId"`
}

type memberRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	ClientID string `json:"clientId"`
}

// CreateRoom mints a short shareable room id and stores the creator as the
// first member.
func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.ClientID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and clientId are required")
	}
	if req.Language == "" {
		req.Language = "english"
	}

	roomID := uuid.New().String()[:6]
	room, err := h.store.CreateRoom(c.Context(), roomID, model.RoomMember{
		ClientID: req.ClientID,
		Name:     req.Name,
		Language: req.Language,
		IsActive: false,
	})
	if err != nil {
		h.log.Errorf("[Room] Create failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create room")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"roomId":   room.RoomID,
		"roomLink": fmt.Sprintf("%s/room/%s", h.baseURL, room.RoomID),
		"creator":  req.ClientID,
	})
}

// JoinRoom registers (or re-registers) a member over HTTP, without a live
// connection. The websocket join later fills in the connection state.
func (h *RoomHandler) JoinRoom(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	var req memberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.ClientID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and clientId are required")
	}
	if req.Language == "" {
		req.Language = "english"
	}

	room, created, err := h.store.UpsertMember(c.Context(), roomID, req.ClientID, store.MemberFields{
		Name:     store.String(req.Name),
		Language: store.String(req.Language),
	})
	if errors.Is(err, store.ErrRoomNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	if err != nil {
		h.log.Errorf("[Room] Join %s failed: %v", roomID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to join room")
	}

	return c.JSON(fiber.Map{
		"roomId":  room.RoomID,
		"created": created,
		"members": len(room.Members),
	})
}

// LeaveRoom marks the member inactive. The record is kept so the member's
// history and join order survive a later rejoin.
func (h *RoomHandler) LeaveRoom(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := c.BodyParser(&req); err != nil || req.ClientID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "clientId is required")
	}

	room, err := h.store.GetRoom(c.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	if err != nil {
		h.log.Errorf("[Room] Leave %s failed: %v", roomID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to leave room")
	}
	known := false
	for _, m := range room.Members {
		if m.ClientID == req.ClientID {
			known = true
			break
		}
	}
	if !known {
		return fiber.NewError(fiber.StatusNotFound, "member not found")
	}

	_, _, err = h.store.UpsertMember(c.Context(), roomID, req.ClientID, store.MemberFields{
		ConnectionID: store.String(""),
		IsActive:     store.Bool(false),
	})
	if err != nil {
		h.log.Errorf("[Room] Leave %s failed: %v", roomID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to leave room")
	}

	if err := h.store.ClearUserRoom(c.Context(), req.ClientID); err != nil {
		h.log.Warnf("[Room] Clear user room for %s failed: %v", req.ClientID, err)
	}

	return c.JSON(fiber.Map{"left": true})
}

// GetRoom returns the room snapshot: buffer plus member list in join order.
func (h *RoomHandler) GetRoom(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	room, err := h.store.GetRoom(c.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	if err != nil {
		h.log.Errorf("[Room] Get %s failed: %v", roomID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load room")
	}

	code := room.CurrentCode
	if code == "" {
		code = coordinator.DefaultCode
	}

	members := make([]fiber.Map, 0, len(room.Members))
	creator := ""
	for i, m := range room.Members {
		if i == 0 {
			creator = m.ClientID
		}
		members = append(members, fiber.Map{
			"clientId": m.ClientID,
			"name":     m.Name,
			"language": m.Language,
			"isActive": m.IsActive,
			"joinedAt": m.JoinedAt,
		})
	}

	return c.JSON(fiber.Map{
		"roomId":          room.RoomID,
		"code":            code,
		"members":         members,
		"creatorClientId": creator,
		"createdAt":       room.CreatedAt,
	})
}
