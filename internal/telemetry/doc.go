// Package telemetry sets up OpenTelemetry tracing and metrics.
//
// Telemetry is off by default. When enabled it exports over OTLP (grpc or
// http/protobuf) and installs the providers globally, so packages can use
// otel.Tracer and otel.Meter without wiring. Exporter failures degrade to
// no-op providers instead of stopping the program.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
package telemetry
