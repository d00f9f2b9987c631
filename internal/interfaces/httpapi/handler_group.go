package httpapi

import (
	"net/http"

	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGroup")
	defer span.End()

	var req createGroupRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.groupService.CreateGroup(ctx, usecase.CreateGroupInput{
		Name:         req.Name,
		League:       req.League,
		PrivacyType:  req.PrivacyType,
		TrackedTeams: req.TrackedTeams,
		Description:  req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create group failed", "league", req.League, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, groupToDTO(created))
}

func (h *Handler) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyGroups")
	defer span.End()

	groups, err := h.groupService.ListMyGroups(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list my groups failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(groups, groupToDTO))
}

func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinGroup")
	defer span.End()

	var req joinGroupRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.groupService.JoinGroup(ctx, req.InviteCode)
	if err != nil {
		h.logger.WarnContext(ctx, "join group failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Status == group.MembershipPending {
		status = http.StatusAccepted
	}
	writeSuccessMessage(ctx, w, status, result.Message, joinResultDTO{
		GroupID: result.GroupID,
		Status:  string(result.Status),
	})
}

func (h *Handler) GetGroupOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGroupOverview")
	defer span.End()

	groupID, err := pathInt64(r, "groupID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.groupService.GetOverview(ctx, groupID)
	if err != nil {
		h.logger.WarnContext(ctx, "get group overview failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, overviewToDTO(overview))
}

func (h *Handler) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGroupMembers")
	defer span.End()

	groupID, err := pathInt64(r, "groupID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	members, err := h.groupService.ListMembers(ctx, groupID)
	if err != nil {
		h.logger.WarnContext(ctx, "list group members failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(members, memberToDTO))
}

func (h *Handler) ManageGroupMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ManageGroupMember")
	defer span.End()

	groupID, err := pathInt64(r, "groupID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req manageMemberRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.groupService.ManageMember(ctx, groupID, req.UserID, req.Action); err != nil {
		h.logger.WarnContext(ctx, "manage group member failed", "group_id", groupID, "member_id", req.UserID, "action", req.Action, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccessMessage(ctx, w, http.StatusOK, "Member updated", true)
}

func (h *Handler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegenerateInviteCode")
	defer span.End()

	groupID, err := pathInt64(r, "groupID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	code, err := h.groupService.RegenerateInviteCode(ctx, groupID)
	if err != nil {
		h.logger.WarnContext(ctx, "regenerate invite code failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, inviteCodeDTO{
		InviteCode:        code,
		InviteCodeDisplay: group.FormatInviteCode(code),
	})
}

func (h *Handler) ListTeamsByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamsByLeague")
	defer span.End()

	league := r.PathValue("league")
	teams, err := h.groupService.ListTeams(ctx, league)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "league", league, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(teams, teamToDTO))
}
