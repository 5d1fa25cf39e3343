package settings

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/wardenbot/warden/internal/server/handlers/api"
	"github.com/wardenbot/warden/internal/server/settings"
)

type SettingsHandler struct {
	settingsSvc *settings.SettingsService
}

func New(svc *settings.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsSvc: svc,
	}
}

// Get returns the guild's settings, with defaults for unconfigured guilds.
func (h *SettingsHandler) Get(ctx *gin.Context) {
	cfg, err := h.settingsSvc.Get(ctx.Request.Context(), ctx.Param("guild"))
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, cfg)
}

// Update replaces the guild's settings.
func (h *SettingsHandler) Update(ctx *gin.Context) {
	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	cfg := req.ToSettings(ctx.Param("guild"))
	if err := h.settingsSvc.Update(ctx.Request.Context(), cfg); err != nil {
		if errors.Is(err, settings.ErrInvalidPrefix) || errors.Is(err, settings.ErrUnknownExtension) {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeSettingsInvalid, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeSettingsUpdateFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, cfg)
}

// ListExtensions returns the catalogue of extensions a guild may enable.
func (h *SettingsHandler) ListExtensions(ctx *gin.Context) {
	extensions := settings.KnownExtensions.ToSlice()
	sort.Strings(extensions)
	ctx.PureJSON(http.StatusOK, gin.H{"extensions": extensions})
}

// ListTimezones returns the guild's role timezone assignments.
func (h *SettingsHandler) ListTimezones(ctx *gin.Context) {
	zones, err := h.settingsSvc.ListRoleTimezones(ctx.Request.Context(), ctx.Param("guild"))
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{"timezones": zones})
}

// SetTimezone assigns an IANA timezone to a role.
func (h *SettingsHandler) SetTimezone(ctx *gin.Context) {
	var req SetTimezoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	guild, role := ctx.Param("guild"), ctx.Param("role")
	if err := h.settingsSvc.SetRoleTimezone(ctx.Request.Context(), guild, role, req.Zone); err != nil {
		if errors.Is(err, settings.ErrInvalidTimezone) {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeSettingsInvalid, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeSettingsUpdateFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &settings.RoleTimezone{Role: role, Zone: req.Zone})
}

// DeleteTimezone removes a role's timezone assignment.
func (h *SettingsHandler) DeleteTimezone(ctx *gin.Context) {
	guild, role := ctx.Param("guild"), ctx.Param("role")
	if err := h.settingsSvc.DeleteRoleTimezone(ctx.Request.Context(), guild, role); err != nil {
		if errors.Is(err, settings.ErrTimezoneNotFound) {
			api.AbortWithError(ctx, http.StatusNotFound, api.CodeTimezoneNotFound, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeSettingsUpdateFailed, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
