package server

import (
	"fmt"
	"net/http"
	"strings"
)

// Theme is the application wide colour palette
type Theme struct {
	Primary       string
	PrimaryLight  string
	PrimaryDark   string
	Secondary     string
	Background    string
	Paper         string
	TextPrimary   string
	TextSecondary string
	PaperShadow   string
}

func DefaultTheme() Theme {
	return Theme{
		Primary:       "#7c4dff",
		PrimaryLight:  "#9575cd",
		PrimaryDark:   "#6c3fff",
		Secondary:     "#4CAF50",
		Background:    "#e0f7fa",
		Paper:         "rgba(255, 255, 255, 0.95)",
		TextPrimary:   "#333333",
		TextSecondary: "#666666",
		PaperShadow:   "0 8px 32px 0 rgba(147, 147, 247, 0.1)",
	}
}

// CSS renders the palette as custom properties on :root
func (t Theme) CSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, v := range []struct{ name, value string }{
		{"primary", t.Primary},
		{"primary-light", t.PrimaryLight},
		{"primary-dark", t.PrimaryDark},
		{"secondary", t.Secondary},
		{"background", t.Background},
		{"paper", t.Paper},
		{"text-primary", t.TextPrimary},
		{"text-secondary", t.TextSecondary},
		{"paper-shadow", t.PaperShadow},
	} {
		fmt.Fprintf(&b, "  --cs-%s: %s;\n", v.name, v.value)
	}
	fmt.Fprintf(&b, "  --cs-button-gradient: linear-gradient(45deg, %s 30%%, %s 90%%);\n", t.PrimaryLight, t.Primary)
	fmt.Fprintf(&b, "  --cs-button-gradient-hover: linear-gradient(45deg, %s 30%%, %s 90%%);\n", t.Primary, t.PrimaryDark)
	b.WriteString("}\n")
	return b.String()
}

func (s *Server) ThemeHandler() http.HandlerFunc {
	css := s.theme.CSS()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeCSS)
		_, _ = w.Write([]byte(css))
	}
}
