package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/users"
)

// NavItem is a link in the authenticated layout's navbar
type NavItem struct {
	Label string
	Path  string
	Role  string // shown only to users holding this role
}

// RouteTable is one of the two page layouts the frontend can serve.
type RouteTable struct {
	Name string
	Home string // where signed-in users land
	Nav  []NavItem
}

var appTable = RouteTable{
	Name: config.RouteTableApp,
	Home: RouteHome,
	Nav: []NavItem{
		{Label: "Dashboard", Path: RouteHome},
		{Label: "Inventory", Path: RouteInventory},
		{Label: "Stock Updates", Path: RouteStockUpdates},
		{Label: "Menu Items", Path: RouteMenuItems},
		{Label: "Sales", Path: RouteSales},
		{Label: "Finance", Path: RouteFinance},
	},
}

var dashboardTable = RouteTable{
	Name: config.RouteTableDashboard,
	Home: RouteDashboard,
	Nav: []NavItem{
		{Label: "Dashboard", Path: RouteDashboard},
		{Label: "Admin", Path: RouteAdmin, Role: users.RoleAdmin},
	},
}

func routeTableFor(name string) (RouteTable, error) {
	switch name {
	case config.RouteTableApp, "":
		return appTable, nil
	case config.RouteTableDashboard:
		return dashboardTable, nil
	}
	return RouteTable{}, fmt.Errorf("unknown route table %q", name)
}

// navFor returns the navbar entries visible to user
func (t RouteTable) navFor(user *users.User) []NavItem {
	items := make([]NavItem, 0, len(t.Nav))
	for _, item := range t.Nav {
		if user.HasRole(item.Role) {
			items = append(items, item)
		}
	}
	return items
}

func (s *Server) initRoutes() {
	public := s.HTMLMiddleWare(s.BrowserMiddleware, s.PublicOnly)

	// AUTH PAGES
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.renderView(s.LoginPage), public...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.renderView(s.LoginSubmit), public...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.renderView(s.RegisterPage), public...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.renderView(s.RegisterSubmit), public...))
	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.renderView(s.ForgotPasswordPage), public...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.renderView(s.ForgotPasswordSubmit), public...))
	s.RegisterRouteHandler("GET "+RouteResetPassword, ChainMiddleware(s.renderView(s.ResetPasswordPage), public...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.renderView(s.ResetPasswordSubmit), public...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.BrowserMiddleware)...))

	switch s.table.Name {
	case config.RouteTableDashboard:
		s.initDashboardRoutes()
	default:
		s.initAppRoutes()
	}

	// Operational
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	// Static assets
	static := s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)
	s.RegisterRouteHandler("GET "+RouteThemeCSS, ChainMiddleware(s.ThemeHandler(), static...))
	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), static...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), static...))
}

func (s *Server) initAppRoutes() {
	protected := s.HTMLMiddleWare(s.BrowserMiddleware, s.RequireSession(""))

	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.renderView(s.BusinessView(dashboardPage)), protected...))
	for _, page := range businessPages {
		s.RegisterRouteHandler("GET "+page.Path, ChainMiddleware(s.renderView(s.BusinessView(page)), protected...))
	}
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.renderView(s.NotFoundPage), s.HTMLMiddleWare(s.BrowserMiddleware)...))
}

func (s *Server) initDashboardRoutes() {
	protected := s.HTMLMiddleWare(s.BrowserMiddleware, s.RequireSession(""))
	admin := s.HTMLMiddleWare(s.BrowserMiddleware, s.RequireSession(users.RoleAdmin))

	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.renderView(s.BusinessView(dashboardPage)), protected...))
	s.RegisterRouteHandler("GET "+RouteAdmin, ChainMiddleware(s.renderView(s.BusinessView(adminPage)), admin...))

	// "/" and every unknown path land on the dashboard
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.redirectHandler(RouteDashboard), s.HTMLMiddleWare()...))
}

func (s *Server) redirectHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
