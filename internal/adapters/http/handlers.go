package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubdesk/internal/adapters/http/middleware"
	"clubdesk/internal/application/orchestrators"
	"clubdesk/internal/domain/fault"
	messageDomain "clubdesk/internal/domain/message"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// faultError maps a classified error to its HTTP status. Unclassified
// errors are treated as internal and their details stay server-side.
func faultError(w http.ResponseWriter, err error) {
	code := fault.CodeOf(err)
	if code == fault.Unknown {
		internalError(w, err)
		return
	}
	writeJSON(w, fault.HTTPStatus(code), map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// callerFromRequest builds the orchestrator caller from the session.
func callerFromRequest(r *http.Request) orchestrators.Caller {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		return orchestrators.Caller{}
	}
	return orchestrators.Caller{UserID: sess.UserID, Email: sess.Email}
}

func authzDeps() orchestrators.AuthzDeps {
	return orchestrators.AuthzDeps{
		IdentityStore: stores.IdentityStore,
		ProfileStore:  stores.ProfileStore,
	}
}

func claimsDeps() orchestrators.ClaimsDeps {
	return orchestrators.ClaimsDeps{
		IdentityStore: stores.IdentityStore,
		OutboxStore:   stores.OutboxStore,
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

func syncDeps() orchestrators.MembershipSyncDeps {
	return orchestrators.MembershipSyncDeps{
		MembershipStore: stores.MembershipStore,
		Now:             timeNow,
	}
}

func reconcileDeps() orchestrators.GoalReconcileDeps {
	return orchestrators.GoalReconcileDeps{
		GoalStore:   stores.GoalStore,
		RecordStore: stores.RecordStore,
		Now:         timeNow,
	}
}

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deps := orchestrators.LoginDeps{
		IdentityStore: stores.IdentityStore,
		TokenConfig:   tokenConfig,
		Now:           timeNow,
	}
	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	}, deps)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, orchestrators.ErrIdentityLocked) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	middleware.SetSessionCookie(w, result.Token, int(tokenConfig.TTL.Seconds()))
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": result.UserID,
		"email":   result.Email,
		"token":   result.Token,
	})
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshToken handles POST /api/token/refresh. This is where a
// caller picks up claims changes made since its token was minted.
func handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	deps := orchestrators.LoginDeps{
		IdentityStore: stores.IdentityStore,
		TokenConfig:   tokenConfig,
		Now:           timeNow,
	}
	result, err := orchestrators.ExecuteRefreshToken(r.Context(), sess.UserID, deps)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	middleware.SetSessionCookie(w, result.Token, int(tokenConfig.TTL.Seconds()))
	writeJSON(w, http.StatusOK, map[string]string{"token": result.Token})
}

// handleAdmins handles POST (assign) and DELETE (remove) on /api/admins.
func handleAdmins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		var body struct {
			ClubID string `json:"club_id"`
			Email  string `json:"email"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		deps := orchestrators.AssignAdminDeps{
			IdentityStore: stores.IdentityStore,
			Authz:         authzDeps(),
			Claims:        claimsDeps(),
			Sync:          syncDeps(),
			GenerateID:    generateID,
			Now:           timeNow,
		}
		uid, err := orchestrators.ExecuteAssignAdmin(r.Context(), orchestrators.AssignAdminInput{
			ClubID: body.ClubID,
			Email:  body.Email,
		}, callerFromRequest(r), deps)
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"user_id": uid})

	case "DELETE":
		var body struct {
			ClubID string `json:"club_id"`
			UserID string `json:"user_id"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		deps := orchestrators.RemoveAdminDeps{
			Authz:  authzDeps(),
			Claims: claimsDeps(),
			Sync:   syncDeps(),
		}
		err := orchestrators.ExecuteRemoveAdmin(r.Context(), orchestrators.RemoveAdminInput{
			ClubID: body.ClubID,
			UserID: body.UserID,
		}, callerFromRequest(r), deps)
		if err != nil {
			faultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func inviteDeps() orchestrators.CreateInviteDeps {
	return orchestrators.CreateInviteDeps{
		InviteStore: stores.InviteStore,
		OutboxStore: stores.OutboxStore,
		EmailSender: emailSender,
		EmailFrom:   emailFromAddress,
		Authz:       authzDeps(),
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// handleInvites handles GET (list) and POST (create) on /api/invites.
func handleInvites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		clubID := r.URL.Query().Get("club_id")
		if clubID == "" {
			http.Error(w, "club_id is required", http.StatusBadRequest)
			return
		}
		caller := callerFromRequest(r)
		if !orchestrators.IsClubAdmin(r.Context(), authzDeps(), caller.UserID, clubID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		invites, err := stores.InviteStore.ListByClub(r.Context(), clubID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invites)

	case "POST":
		var body struct {
			ClubID   string `json:"club_id"`
			ClubName string `json:"club_name"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		inv, err := orchestrators.ExecuteCreateInvite(r.Context(), orchestrators.CreateInviteInput{
			ClubID:   body.ClubID,
			ClubName: body.ClubName,
			Email:    body.Email,
			Role:     body.Role,
		}, callerFromRequest(r), inviteDeps())
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inv)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleInviteRevoke handles POST /api/invites/revoke.
func handleInviteRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		ClubID   string `json:"club_id"`
		InviteID string `json:"invite_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := orchestrators.ExecuteRevokeInvite(r.Context(), orchestrators.RevokeInviteInput{
		ClubID:   body.ClubID,
		InviteID: body.InviteID,
	}, callerFromRequest(r), inviteDeps())
	if err != nil {
		faultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInviteRedeem handles POST /api/invites/redeem.
func handleInviteRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		ClubID   string `json:"club_id"`
		InviteID string `json:"invite_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	deps := orchestrators.RedeemInviteDeps{
		InviteStore: stores.InviteStore,
		Claims:      claimsDeps(),
		Sync:        syncDeps(),
		Now:         timeNow,
	}
	err := orchestrators.ExecuteRedeemInvite(r.Context(), orchestrators.RedeemInviteInput{
		ClubID:   body.ClubID,
		InviteID: body.InviteID,
	}, callerFromRequest(r), deps)
	if err != nil {
		faultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAcceptPending handles POST /api/invites/accept-pending.
func handleAcceptPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deps := orchestrators.AcceptPendingDeps{
		InviteStore: stores.InviteStore,
		Claims:      claimsDeps(),
		Sync:        syncDeps(),
		Now:         timeNow,
	}
	result, err := orchestrators.ExecuteAcceptPendingByEmail(r.Context(), callerFromRequest(r), deps)
	if err != nil {
		faultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func categoryDeps() orchestrators.CategoryDeps {
	return orchestrators.CategoryDeps{
		CategoryStore: stores.CategoryStore,
		RecordStore:   stores.RecordStore,
		Authz:         authzDeps(),
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

// handleCategories handles GET (list) and POST (create) on /api/categories.
func handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		clubID := r.URL.Query().Get("club_id")
		if clubID == "" {
			http.Error(w, "club_id is required", http.StatusBadRequest)
			return
		}
		categories, err := stores.CategoryStore.ListByClub(r.Context(), clubID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)

	case "POST":
		var body struct {
			ClubID string `json:"club_id"`
			Name   string `json:"name"`
			Unit   string `json:"unit"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c, err := orchestrators.ExecuteCreateCategory(r.Context(), orchestrators.CategoryInput{
			ClubID: body.ClubID,
			Name:   body.Name,
			Unit:   body.Unit,
		}, callerFromRequest(r), categoryDeps())
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleCategoryItem handles PUT and DELETE on /api/categories/{id}.
func handleCategoryItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "PUT":
		var body struct {
			Name string `json:"name"`
			Unit string `json:"unit"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c, err := orchestrators.ExecuteUpdateCategory(r.Context(), id, orchestrators.CategoryInput{
			Name: body.Name,
			Unit: body.Unit,
		}, callerFromRequest(r), categoryDeps())
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)

	case "DELETE":
		if err := orchestrators.ExecuteDeleteCategory(r.Context(), id, callerFromRequest(r), categoryDeps()); err != nil {
			faultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func performanceDeps() orchestrators.RecordPerformanceDeps {
	return orchestrators.RecordPerformanceDeps{
		RecordStore: stores.RecordStore,
		Reconcile:   reconcileDeps(),
		Authz:       authzDeps(),
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// handleRecords handles GET (list) and POST (create) on /api/records.
// Creating a record triggers goal reconciliation for the athlete in
// that category; newly completed goals come back in the response.
func handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		athleteID := r.URL.Query().Get("athlete_id")
		clubID := r.URL.Query().Get("club_id")
		if athleteID == "" || clubID == "" {
			http.Error(w, "athlete_id and club_id are required", http.StatusBadRequest)
			return
		}
		records, err := stores.RecordStore.ListByAthlete(r.Context(), athleteID, clubID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)

	case "POST":
		var body struct {
			AthleteID  string  `json:"athlete_id"`
			ClubID     string  `json:"club_id"`
			CategoryID string  `json:"category_id"`
			Value      float64 `json:"value"`
			Date       string  `json:"date"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		var date time.Time
		if body.Date != "" {
			parsed, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = parsed
		}
		rec, completed, err := orchestrators.ExecuteRecordPerformance(r.Context(), orchestrators.RecordPerformanceInput{
			AthleteID:  body.AthleteID,
			ClubID:     body.ClubID,
			CategoryID: body.CategoryID,
			Value:      body.Value,
			Date:       date,
		}, callerFromRequest(r), performanceDeps())
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"record":          rec,
			"goals_completed": completed,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleRecordItem handles DELETE on /api/records/{id}.
func handleRecordItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}
	if err := orchestrators.ExecuteRemoveRecord(r.Context(), id, callerFromRequest(r), performanceDeps()); err != nil {
		faultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGoals handles GET (list) and POST (create) on /api/goals.
func handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		athleteID := r.URL.Query().Get("athlete_id")
		clubID := r.URL.Query().Get("club_id")
		if athleteID == "" || clubID == "" {
			http.Error(w, "athlete_id and club_id are required", http.StatusBadRequest)
			return
		}
		goals, err := stores.GoalStore.ListByAthlete(r.Context(), athleteID, clubID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goals)

	case "POST":
		var body struct {
			AthleteID   string  `json:"athlete_id"`
			ClubID      string  `json:"club_id"`
			CategoryID  string  `json:"category_id"`
			TargetValue float64 `json:"target_value"`
			TargetDate  string  `json:"target_date"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		var targetDate time.Time
		if body.TargetDate != "" {
			parsed, err := time.Parse("2006-01-02", body.TargetDate)
			if err != nil {
				http.Error(w, "target_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			targetDate = parsed
		}
		deps := orchestrators.CreateGoalDeps{
			GoalStore:  stores.GoalStore,
			Reconcile:  reconcileDeps(),
			Authz:      authzDeps(),
			GenerateID: generateID,
			Now:        timeNow,
		}
		g, err := orchestrators.ExecuteCreateGoal(r.Context(), orchestrators.CreateGoalInput{
			AthleteID:   body.AthleteID,
			ClubID:      body.ClubID,
			CategoryID:  body.CategoryID,
			TargetValue: body.TargetValue,
			TargetDate:  targetDate,
		}, callerFromRequest(r), deps)
		if err != nil {
			faultError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleGoalCheck handles POST /api/goals/check, an explicit
// re-reconciliation of a single goal.
func handleGoalCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		GoalID string `json:"goal_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	achieved, err := orchestrators.ExecuteCheckAchievement(r.Context(), body.GoalID, reconcileDeps())
	if err != nil {
		faultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"achieved": achieved})
}

// handleMessages handles GET (list) and POST (create) on /api/messages.
func handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		clubID := r.URL.Query().Get("club_id")
		if clubID == "" {
			http.Error(w, "club_id is required", http.StatusBadRequest)
			return
		}
		messages, err := stores.MessageStore.ListByClub(r.Context(), clubID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)

	case "POST":
		caller := callerFromRequest(r)
		var body struct {
			ClubID  string `json:"club_id"`
			Subject string `json:"subject"`
			Content string `json:"content"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !orchestrators.IsClubAdmin(r.Context(), authzDeps(), caller.UserID, body.ClubID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		now := timeNow()
		msg := messageDomain.Message{
			ID:        generateID(),
			ClubID:    body.ClubID,
			AuthorID:  caller.UserID,
			Subject:   body.Subject,
			Content:   body.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := msg.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.MessageStore.Save(r.Context(), msg); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
