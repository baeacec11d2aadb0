// Package logging wraps zap for calorilog.
//
// A Logger carries:
//   - a Trace level below Debug
//   - stdout output, optionally teed into OpenTelemetry through otelzap
//   - trace, span, and request IDs pulled from the context
//   - redaction of credential-shaped fields before they reach stdout
//   - sampling below Error
//
// Build one from user settings:
//
//	logger, err := logging.NewLogger(logging.FromSettings(cfg.Logging), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.Info(ctx, "meal logged", zap.Int("items", n))
//
// Domain packages take a plain *zap.Logger; pass logger.Underlying().
package logging
