package server

import (
	"encoding/json"
	"net/http"
)

// BusinessPage describes one of the authenticated placeholder pages
type BusinessPage struct {
	Path        string
	Title       string
	Description string
}

var dashboardPage = BusinessPage{Path: RouteHome, Title: "Dashboard", Description: "Today's overview of the shop."}

var adminPage = BusinessPage{Path: RouteAdmin, Title: "Admin Panel", Description: "Manage staff accounts and shop settings."}

var businessPages = []BusinessPage{
	{Path: RouteInventory, Title: "Inventory", Description: "Track coffee beans, milk and supplies on hand."},
	{Path: RouteStockUpdates, Title: "Stock Updates", Description: "Record deliveries and stock adjustments."},
	{Path: RouteMenuItems, Title: "Menu Items", Description: "Maintain the drinks and food on the menu."},
	{Path: RouteSales, Title: "Sales", Description: "Review daily and weekly sales."},
	{Path: RouteFinance, Title: "Finance", Description: "Follow revenue, costs and margins."},
}

// BusinessView renders page inside the authenticated layout
func (s *Server) BusinessView(page BusinessPage) ViewFunc {
	return func(_ *http.Request) (View, error) {
		return View{Template: pageBusiness, Title: page.Title, Data: page}, nil
	}
}

// NotFoundPage is shown for unknown paths of the app table
func (s *Server) NotFoundPage(_ *http.Request) (View, error) {
	return View{Template: pageNotFound, Title: "Page not found", Status: http.StatusNotFound}, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Table  string `json:"routeTable"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Table: s.table.Name})
	}
}
