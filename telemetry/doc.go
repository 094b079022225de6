// Package telemetry wires the simulator's own observability: the zap logger,
// OpenTelemetry tracer, meter and logger providers with their exporters, and
// the counters recorded by the publishing path.
//
// Setup registers the enabled providers globally:
//
//	providers, err := telemetry.Setup(ctx, &cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	defer providers.Shutdown(ctx)
//
// When the logger provider is enabled, zap entries can be shipped through it:
//
//	logger = telemetry.Tee(logger, telemetry.NewOTelCore(providers.Logger, zap.InfoLevel))
package telemetry
