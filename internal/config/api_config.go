package config

import "time"

const (
	apiURLVar     = "API_URL"
	apiTimeoutVar = "API_TIMEOUT"

	developmentAPIURL = "http://localhost:9999"
	productionAPIURL  = "https://coffee-shop-backend-production.up.railway.app"
)

type API struct {
	src *source
}

var _ APIConfig = API{}

// GetAPIURL returns the remote API base URL. API_URL wins; otherwise the URL is picked by environment.
func (a API) GetAPIURL() string {
	if EnvVars(a).IsDev() {
		return a.src.get(apiURLVar, developmentAPIURL)
	}
	return a.src.get(apiURLVar, productionAPIURL)
}

func (a API) GetAPITimeout() time.Duration {
	return ParseDuration(a.src.get(apiTimeoutVar, ""), 15*time.Second)
}
