package digitalocean

import (
	"fmt"
	"strings"

	"github.com/manyagkarle13/syllabus-maker/config"
)

// SpacesConfigFromEnv reads the Spaces settings. ok is false when no bucket
// or credentials are configured, in which case documents are kept in the
// database instead.
func SpacesConfigFromEnv(env *config.EnvironmentVariable) (cfg SpacesConfig, ok bool) {
	cfg = SpacesConfig{
		AccessKey: env.SPACES_ACCESS_KEY,
		SecretKey: env.SPACES_SECRET_KEY,
		Bucket:    env.SPACES_BUCKET,
		Region:    env.SPACES_REGION,
		Endpoint:  env.SPACES_ENDPOINT,
	}
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return cfg, false
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", cfg.Region)
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		cfg.Endpoint = "https://" + cfg.Endpoint
	}
	return cfg, true
}

// NewSpacesClientFromEnv returns nil without error when Spaces is not configured.
func NewSpacesClientFromEnv(env *config.EnvironmentVariable) (*SpacesClient, error) {
	cfg, ok := SpacesConfigFromEnv(env)
	if !ok {
		config.GetLogger().Warn("Spaces not configured, generated documents are stored in the database")
		return nil, nil
	}
	return NewSpacesClient(cfg)
}
