// Package services builds the calorilog object graph from configuration.
//
// Both binaries open a Registry, take the Tracker from it, and Close it on
// exit:
//
//	reg, err := services.Open(ctx, cfg, services.Options{Logger: logger})
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//	tracker := reg.Tracker()
package services
