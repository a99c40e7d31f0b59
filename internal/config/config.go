package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr         string
	DBDSN            string
	JWTIssuer        string
	JWTSecret        string
	JWTTTL           time.Duration
	InternalToken    string
	WebSocketOrigin  string
	TickInterval     time.Duration
	ValuationEnabled bool
	StartingFunds    string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		missing = append(missing, "WS_ORIGIN")
	}
	tickInterval := os.Getenv("TICK_INTERVAL")
	if tickInterval == "" {
		c.TickInterval = time.Minute
	} else {
		d, err := time.ParseDuration(tickInterval)
		if err != nil {
			return c, err
		}
		if d <= 0 {
			return c, errors.New("TICK_INTERVAL must be positive")
		}
		c.TickInterval = d
	}
	valuationEnabled := os.Getenv("VALUATION_ENABLED")
	if valuationEnabled == "" {
		c.ValuationEnabled = true
	} else {
		b, err := strconv.ParseBool(valuationEnabled)
		if err != nil {
			return c, err
		}
		c.ValuationEnabled = b
	}
	c.StartingFunds = os.Getenv("STARTING_FUNDS")
	if c.StartingFunds == "" {
		c.StartingFunds = "0"
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + join(missing))
	}
	return c, nil
}

func join(items []string) string {
	if len(items) == 0 {
		return ""
	}
	out := items[0]
	for i := 1; i < len(items); i++ {
		out += "," + items[i]
	}
	return out
}
