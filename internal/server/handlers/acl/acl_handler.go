package acl

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wardenbot/warden/internal/aclspec"
	"github.com/wardenbot/warden/internal/server/acl"
	"github.com/wardenbot/warden/internal/server/handlers/api"
)

type ACLHandler struct {
	aclSvc *acl.ACLService
}

func New(svc *acl.ACLService) *ACLHandler {
	return &ACLHandler{
		aclSvc: svc,
	}
}

// ListRules returns the guild's rules. ?deleted=true includes soft-deleted ones.
func (h *ACLHandler) ListRules(ctx *gin.Context) {
	guild := ctx.Param("guild")
	includeDeleted := ctx.Query("deleted") == "true"

	rules, err := h.aclSvc.ListRules(ctx.Request.Context(), guild, includeDeleted)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{"rules": toRuleResponses(rules)})
}

func (h *ACLHandler) CreateRule(ctx *gin.Context) {
	var req RuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	rule, err := req.ToRule("")
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLInvalidRule, err)
		return
	}

	if err := h.aclSvc.CreateRule(ctx.Request.Context(), ctx.Param("guild"), rule); err != nil {
		h.abortRuleWriteError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusCreated, toRuleResponse(rule))
}

func (h *ACLHandler) UpdateRule(ctx *gin.Context) {
	var req RuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	rule, err := req.ToRule(ctx.Param("id"))
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLInvalidRule, err)
		return
	}

	if err := h.aclSvc.UpdateRule(ctx.Request.Context(), ctx.Param("guild"), rule); err != nil {
		h.abortRuleWriteError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, toRuleResponse(rule))
}

func (h *ACLHandler) DeleteRule(ctx *gin.Context) {
	err := h.aclSvc.DeleteRule(ctx.Request.Context(), ctx.Param("guild"), ctx.Param("id"))
	if err != nil {
		h.abortRuleWriteError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Export streams the guild's live rules as a YAML ruleset download.
func (h *ACLHandler) Export(ctx *gin.Context) {
	guild := ctx.Param("guild")

	ruleset, err := h.aclSvc.ExportRuleSet(ctx.Request.Context(), guild)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="acl_%s.yaml"`, guild))
	ctx.Header("Content-Type", "application/yaml")
	ctx.Status(http.StatusOK)
	if err := ruleset.Save(ctx.Writer); err != nil {
		ctx.Error(err)
	}
}

// Import replaces the guild's live rules with an uploaded YAML ruleset.
func (h *ACLHandler) Import(ctx *gin.Context) {
	guild := ctx.Param("guild")

	ruleset, err := aclspec.LoadFromReader(ctx.Request.Body)
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLImportFailed, err)
		return
	}

	if err := h.aclSvc.ImportRuleSet(ctx.Request.Context(), guild, ruleset); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLImportFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{
		"guild": guild,
		"rules": len(ruleset.LiveRules()),
	})
}

// Can decides whether the invocation is permitted, serving repeat
// queries from the decision cache. This is the bot's hot path: it
// returns only the boolean and skips the inspector rate limit.
func (h *ACLHandler) Can(ctx *gin.Context) {
	var req CheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	allowed, err := h.aclSvc.CanUse(ctx.Request.Context(), ctx.Param("guild"), req.ToContext())
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeACLCheckFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &CanResponse{Allowed: allowed})
}

// Check evaluates an invocation context against the guild's rules and
// explains the outcome. This backs the console's interactive rule tester.
func (h *ACLHandler) Check(ctx *gin.Context) {
	var req CheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	expl, err := h.aclSvc.CheckAccess(ctx.Request.Context(), ctx.Param("guild"), req.ToContext())
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeACLCheckFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, toCheckResponse(expl))
}

func (h *ACLHandler) abortRuleWriteError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, acl.ErrRuleNotFound):
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeACLRuleNotFound, err)
	case errors.Is(err, aclspec.ErrDuplicateRuleName),
		errors.Is(err, aclspec.ErrEmptyRuleName),
		errors.Is(err, aclspec.ErrInvalidModifier),
		errors.Is(err, aclspec.ErrInvalidAction):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLInvalidRule, err)
	case strings.Contains(err.Error(), "UNIQUE constraint"):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeACLInvalidRule, err)
	default:
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeACLUpdateFailed, err)
	}
}
