package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SequenceStrategyProbe, cfg.Registration.SequenceStrategy)
	assert.Equal(t, 1000, cfg.Registration.MaxProbes)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.Events.RetryDelay)
	assert.Nil(t, cfg.JWT.Audience)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REGISTRATION_SEQUENCE_STRATEGY", " Counter ")
	v.Set("REGISTRATION_MAX_PROBES", -3)
	v.Set("JWT_AUDIENCE", "pmb-web, pmb-mobile ,")
	v.Set("CATALOG_CACHE_TTL", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, SequenceStrategyCounter, cfg.Registration.SequenceStrategy)
	assert.Equal(t, 1000, cfg.Registration.MaxProbes)
	assert.Equal(t, []string{"pmb-web", "pmb-mobile"}, cfg.JWT.Audience)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)

	v.Set("REGISTRATION_SEQUENCE_STRATEGY", "random")
	assert.Equal(t, SequenceStrategyProbe, fromViper(v).Registration.SequenceStrategy)
}
