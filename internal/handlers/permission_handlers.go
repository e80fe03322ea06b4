package handlers

import (
	"net/http"
	"workTracker/internal/handlers/dto"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"

	"go.uber.org/zap"
)

type PermissionHandler struct {
	PermissionService PermissionService
}

func NewPermissionHandler(permissionService PermissionService) PermissionHandler {
	return PermissionHandler{
		PermissionService: permissionService,
	}
}

// PutMember - PUT /spaces/{spaceID}/members/{userID}
func (h *PermissionHandler) PutMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	spaceID, ok := parseUUIDParam(w, r, "spaceID")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	var request dto.GrantRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	p, err := h.PermissionService.Grant(r.Context(), actor, spaceID, userID, permission.Level(request.Level))
	if err != nil {
		handleServiceError(w, r, err, "grant_permission")
		return
	}

	logger.Info("HTTP_OUT: Права участника сохранены",
		zap.String("space_id", spaceID.String()),
		zap.String("user_id", userID.String()))

	responseWithData(w, http.StatusOK, dto.FromPermission(p))
}

// DeleteMember - DELETE /spaces/{spaceID}/members/{userID}
func (h *PermissionHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	spaceID, ok := parseUUIDParam(w, r, "spaceID")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.PermissionService.Revoke(r.Context(), actor, spaceID, userID); err != nil {
		handleServiceError(w, r, err, "revoke_permission")
		return
	}
	responseNoContent(w)
}
