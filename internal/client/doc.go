// Package client connects to an attribute server.
//
//	c, err := client.Dial(ctx, "ws://localhost:8080/ws", nil)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.Write(ctx, "setpoint", "21.5"); err != nil {
//	    return err
//	}
//	raw, err := c.Read(ctx, "setpoint") // raw == json.RawMessage("21.5")
//
// Failures reported by the server are returned as *RemoteError:
//
//	if client.HasCode(err, protocol.CodeAccessDenied) {
//	    // attribute is not writable
//	}
package client
