package config

import "time"

type Config struct {
	Web      Web
	DB       DB
	Cors     Cors
	Session  Session
	Checkout Checkout
	Rate     Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:checkout"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

// DriftMode selects how ValidateForCheckout treats a live-course price that
// moved away from the cart snapshot beyond Tolerance.
const (
	DriftBlock = "block"
	DriftWarn  = "warn"
)

type Checkout struct {
	CartTTL        time.Duration `conf:"default:720h"`
	AttemptWindow  time.Duration `conf:"default:48h"`
	DriftMode      string        `conf:"default:block"`
	DriftTolerance int           `conf:"default:0"`
	SweepInterval  time.Duration `conf:"default:10m"`
}

type Rate struct {
	UploadBurst  int           `conf:"default:3"`
	UploadEvery  time.Duration `conf:"default:5s"`
	ExpiryMinute int           `conf:"default:60"`
}
