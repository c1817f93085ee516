package web

import "net/http"

// registerRoutes wires the JSON API endpoints.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/token/refresh", handleRefreshToken)

	mux.HandleFunc("/api/admins", handleAdmins)

	mux.HandleFunc("/api/invites", handleInvites)
	mux.HandleFunc("/api/invites/revoke", handleInviteRevoke)
	mux.HandleFunc("/api/invites/redeem", handleInviteRedeem)
	mux.HandleFunc("/api/invites/accept-pending", handleAcceptPending)

	mux.HandleFunc("/api/categories", handleCategories)
	mux.HandleFunc("/api/categories/", handleCategoryItem)

	mux.HandleFunc("/api/records", handleRecords)
	mux.HandleFunc("/api/records/", handleRecordItem)

	mux.HandleFunc("/api/goals", handleGoals)
	mux.HandleFunc("/api/goals/check", handleGoalCheck)

	mux.HandleFunc("/api/messages", handleMessages)
}
