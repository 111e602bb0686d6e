package config

import (
	"flag"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_DRIVER", "DATABASE_URL", "HTTP_ADDR", "IMAGE_DIR", "FRONT_URL", "MP_CURRENCY", "REQUIRE_AUTH", "LOG_MODE"} {
		t.Setenv(k, "")
	}

	c := Load()
	if c.DatabaseDriver != "sqlite" || c.HTTPAddr != ":8080" || c.MPCurrency != "ARS" || c.RequireAuth {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://app@localhost/tienda")
	t.Setenv("FRONT_URL", "https://tienda.example")
	t.Setenv("REQUIRE_AUTH", "true")
	t.Setenv("MP_ACCESS_TOKEN", "TEST-123")

	c := Load()
	if c.DatabaseDriver != "postgres" || c.DatabaseURL != "postgres://app@localhost/tienda" {
		t.Errorf("unexpected database settings: %+v", c)
	}
	if !c.RequireAuth || c.MPAccessToken != "TEST-123" || c.FrontURL != "https://tienda.example" {
		t.Errorf("unexpected settings: %+v", c)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")

	c := Load()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-addr", ":7000", "-require-auth"}); err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddr != ":7000" || !c.RequireAuth {
		t.Errorf("flags not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseDriver:  "mysql",
		DatabaseURL:     "user:pass@tcp(localhost:3306)/tienda",
		ImageDir:        "imagenes",
		ImagePublicBase: "/imagenes",
		FrontURL:        "http://localhost:5173",
		LogMode:         "production",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "oracle" }},
		{"empty database", func(c *Config) { c.DatabaseURL = " " }},
		{"empty image dir", func(c *Config) { c.ImageDir = "" }},
		{"relative public base", func(c *Config) { c.ImagePublicBase = "imagenes" }},
		{"relative front url", func(c *Config) { c.FrontURL = "tienda.example" }},
		{"unknown log mode", func(c *Config) { c.LogMode = "verbose" }},
	}
	for _, tt := range tests {
		c := valid
		tt.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
