package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits the allowed-origins list
    "time"    // time expresses the fixed reset-token TTL
)

// DefaultJWTSecret is the signing key used when JWT_SECRET is unset.
// Running with it is tolerated so a dev checkout starts without any
// environment, but Load logs a loud warning because every token signed
// with a known key is forgeable.
const DefaultJWTSecret = "dev-secret-change-in-production"

// ResetTokenTTL is how long a password-reset token stays valid. The
// reset email promises one hour, so this is not configurable.
const ResetTokenTTL = time.Hour

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env             string   // application environment (e.g. "dev", "prod")
    Port            string   // HTTP port to listen on
    DBUser          string   // database username
    DBPass          string   // database password (optional)
    DBHost          string   // database host address
    DBPort          string   // database port number
    DBName          string   // database name
    JWTSecret       string   // secret used to sign JWTs
    AccessTTLMin    int      // access token time-to-live in minutes
    BcryptCost      int      // bcrypt cost for password hashing
    FrontendBaseURL string   // base URL embedded in password-reset links
    AllowedOrigins  []string // CORS origins passed to the boundary layer
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The signing secret
// and the TTLs deliberately fall back to defaults so a dev checkout runs
// without any environment at all.
func Load() Config {
    secret := os.Getenv("JWT_SECRET")
    if secret == "" {
        secret = DefaultJWTSecret
    }
    if secret == DefaultJWTSecret {
        log.Printf("WARNING: JWT_SECRET is unset or the dev default; tokens signed with it are forgeable")
    }

    return Config{
        Env:             getenv("APP_ENV", "dev"),
        Port:            getenv("APP_PORT", "8000"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        JWTSecret:       secret,
        AccessTTLMin:    intEnv("ACCESS_TOKEN_TTL_MIN", 1440), // 24h default
        BcryptCost:      intEnv("BCRYPT_COST", 10),
        FrontendBaseURL: getenv("FRONTEND_BASE_URL", "http://localhost:5173"),
        AllowedOrigins:  splitOrigins(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
    }
}

// ResetLink builds the password-reset URL handed to the notification
// sink: {frontend}/reset-password?token={token}.
func (c Config) ResetLink(token string) string {
    return strings.TrimRight(c.FrontendBaseURL, "/") + "/reset-password?token=" + token
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// intEnv returns the integer value of an environment variable or the
// default when unset or unparseable.
func intEnv(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}

func splitOrigins(s string) []string {
    out := []string{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
