package config

const (
	devAPIPortVar     = "DEVAPI_PORT"
	jwtSecretVar      = "JWT_SECRET"
	googleClientIDVar = "GOOGLE_CLIENT_ID"
)

// DevAPI holds the settings of the local stub of the remote API
type DevAPI struct {
	src *source
}

var _ DevAPIConfig = DevAPI{}

func (d DevAPI) GetDevAPIPort() string {
	return asAddr(d.src.get(devAPIPortVar, "9999"))
}

func (d DevAPI) GetJWTSecret() string {
	return d.src.get(jwtSecretVar, "dev-only-secret-change-me")
}

func (d DevAPI) GetGoogleClientID() string {
	return d.src.get(googleClientIDVar, "")
}
