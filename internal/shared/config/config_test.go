package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadSimulationDefaults(t *testing.T) {
	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sim := cfg.Simulation
	if sim.DriverInterval != 250*time.Millisecond || sim.SnapshotEveryTicks != 30 || sim.MaxLiveSessions != 256 {
		t.Fatalf("simulation = %+v", sim)
	}
	if sim.MaxTicksPerFrame != 600 || sim.MaxSystems != 512 {
		t.Fatalf("frame cap = %d, max systems = %d, want 600/512", sim.MaxTicksPerFrame, sim.MaxSystems)
	}
}

func TestLoadSimulationFromEnv(t *testing.T) {
	t.Setenv("SIM_CATALOG_PATH", "configs/custom.yaml")
	t.Setenv("SIM_DRIVER_INTERVAL_MS", "100")
	t.Setenv("SIM_SUMMARY_TTL_SECONDS", "5")

	cfg, _ := load()
	sim := cfg.Simulation
	if sim.CatalogPath != "configs/custom.yaml" || sim.DriverInterval != 100*time.Millisecond || sim.SummaryTTL != 5*time.Second {
		t.Fatalf("simulation = %+v", sim)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	cfg, _ := load()
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.Auth.JWTSecret = "short"
	if err := cfg.validate(); err == nil {
		t.Fatal("short JWT secret accepted")
	}

	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	cfg.Simulation.DriverInterval = 0
	if err := cfg.validate(); err == nil {
		t.Fatal("zero driver interval accepted")
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "planets", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=planets sslmode=disable"
	if got := db.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}

func TestProviderConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_URL", "https://planets.example")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")

	cfg, _ := load()
	gh := cfg.OAuth.GitHub
	if !gh.Configured() || gh.RedirectURL != "https://planets.example/auth/github/callback" {
		t.Fatalf("github = %+v", gh)
	}
	if len(gh.Scopes) != 1 || gh.Scopes[0] != "user:email" {
		t.Fatalf("scopes = %v", gh.Scopes)
	}
	if cfg.OAuth.Google.Configured() {
		t.Fatal("google configured without credentials")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg, _ := load()
	cfg.Auth.JWTSecret = ""
	cfg.Database.Host = ""
	cfg.Simulation.SnapshotEveryTicks = 0
	cfg.Simulation.MaxTicksPerFrame = 0
	cfg.Simulation.MaxSystems = -1

	err := cfg.validate()
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"JWT_SECRET", "DB_HOST", "SIM_SNAPSHOT_EVERY_TICKS", "SIM_MAX_TICKS_PER_FRAME", "SIM_MAX_SYSTEMS"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
