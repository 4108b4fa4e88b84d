// Package device assembles an attribute server instance from its
// configuration.
//
// New moves through the INIT state while it registers the configured
// attributes and restores persisted values, then reports ON. Run serves the
// registry over WebSocket until shutdown, after which the state is OFF.
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv(os.Getenv)
//
//	dev, err := device.New(cfg)
//	if err != nil {
//	    return err
//	}
//	return dev.Run(ctx)
package device
