package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Public auth pages
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteLogout         = "/logout"

	// Business pages (app table)
	RouteHome         = "/"
	RouteInventory    = "/inventory"
	RouteStockUpdates = "/stock-updates"
	RouteMenuItems    = "/menu-items"
	RouteSales        = "/sales"
	RouteFinance      = "/finance"

	// Dashboard table
	RouteDashboard = "/dashboard"
	RouteAdmin     = "/admin/"

	// Operational
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteThemeCSS  = "/css/theme.css"
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)

// Query parameters
const (
	queryMessage = "message"
	queryToken   = "token"
)
