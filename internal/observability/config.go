package observability

import (
	"neuraresume/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "neuraresume",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Toggles:        AllMetrics(),
		}
	}

	obsConfig := cfg.Observability

	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	custom := obsConfig.CustomMetrics
	return ObservabilityConfig{
		ServiceName:     obsConfig.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obsConfig.ServiceInstance,
		Enabled:         obsConfig.Enabled,
		ConsoleOutput:   obsConfig.ConsoleOutput,
		PrettyPrint:     obsConfig.Console.PrettyPrint,
		SampleRate:      obsConfig.SampleRate,
		Interval:        obsConfig.Metrics.CollectionInterval,
		Prometheus: PrometheusConfig{
			Enabled:  obsConfig.Prometheus.Enabled,
			Endpoint: obsConfig.Prometheus.Endpoint,
			Port:     obsConfig.Prometheus.Port,
		},
		OTLP: obsConfig.OTLP,
		Toggles: MetricToggles{
			Backend:         custom.BackendOperations.Enabled,
			BackendDuration: custom.BackendOperations.TrackDuration,
			TokenUsage:      custom.BackendOperations.TrackTokenUsage,
			Business:        custom.BusinessMetrics.Enabled,
			RateLimits:      custom.Infrastructure.TrackRateLimits,
			CertReload:      custom.Infrastructure.TrackCertReload,
		},
	}
}
