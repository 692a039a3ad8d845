package config

import (
	"strconv"
	"time"
)

const (
	routeTableVar    = "ROUTE_TABLE"
	tokenStoreVar    = "TOKEN_STORE"
	redisAddrVar     = "REDIS_ADDR"
	redisPasswordVar = "REDIS_PASSWORD"
	redisDBVar       = "REDIS_DB"
	tokenTTLVar      = "TOKEN_TTL"
	sessionWaitVar   = "SESSION_WAIT"
	browserCookieVar = "BROWSER_COOKIE"

	RouteTableApp       = "app"
	RouteTableDashboard = "dashboard"

	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

type Session struct {
	src *source
}

var _ SessionConfig = Session{}

func (s Session) GetRouteTable() string {
	return s.src.get(routeTableVar, RouteTableApp)
}

func (s Session) GetTokenStore() string {
	return s.src.get(tokenStoreVar, TokenStoreMemory)
}

func (s Session) GetRedisAddr() string {
	return s.src.get(redisAddrVar, "localhost:6379")
}

func (s Session) GetRedisPassword() string {
	return s.src.get(redisPasswordVar, "")
}

func (s Session) GetRedisDB() int {
	db, err := strconv.Atoi(s.src.get(redisDBVar, "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetTokenTTL bounds how long the redis token slots live without a write. Zero keeps them forever.
func (s Session) GetTokenTTL() time.Duration {
	return ParseDuration(s.src.get(tokenTTLVar, ""), 30*24*time.Hour)
}

// GetSessionWait is how long a guard waits for the initial identity check before rendering the progress page
func (s Session) GetSessionWait() time.Duration {
	return ParseDuration(s.src.get(sessionWaitVar, ""), 2*time.Second)
}

func (s Session) GetBrowserCookieName() string {
	return s.src.get(browserCookieVar, "cs_browser_id")
}
