// Package attribute implements the typed attribute registry.
//
// Attributes are declared by configuration, registered with a data type and
// an access mode, and hold their current value as raw text. The text is
// coerced to the declared type on every read, which keeps writes lossless
// and puts all type handling in one place.
//
// # Declarations
//
// ParseDeclarations accepts two formats. The structured format is a JSON
// array of records:
//
//	[
//	  {"name": "enabled", "data_type": "DevBoolean"},
//	  {"name": "setpoint", "data_type": "DevDouble", "min_value": "0", "max_value": "100", "unit": "C"},
//	  {"name": "mode", "write_type": "READ"}
//	]
//
// Anything that is not a well-formed array of flat records is read as the
// legacy format, a comma-separated list of names:
//
//	enabled, setpoint, mode
//
// # Types and Access Modes
//
//	data_type    resolves to    write_type         resolves to
//	DevBoolean   TypeBoolean    READ               ReadOnly
//	DevLong      TypeInteger    WRITE              WriteOnly
//	DevDouble    TypeDouble     READ_WRITE         ReadWrite
//	DevFloat     TypeDouble     READ_WITH_WRITE    ReadWithWrite
//	DevString    TypeString     (empty)            ReadWrite
//	(empty)      TypeString
//
// Bounds (min_value/max_value) are attached only when both are set and
// differ. Bounds and alarm thresholds are metadata for the transport; the
// registry does not enforce them.
//
// # Usage Example
//
//	reg := attribute.NewRegistry(state.NewStore(path))
//	if err := reg.RegisterAll(attribute.ParseDeclarations(raw)); err != nil {
//	    logging.Warn("Some attributes were not registered", zap.Error(err))
//	}
//	reg.LoadState()
//
//	if err := reg.Write("setpoint", "21.5"); err != nil {
//	    return err
//	}
//	v, err := reg.Read("setpoint") // v.Float() == 21.5
//
// # Errors
//
// Registry operations return *Error values classified by ErrorType. Use the
// Is* helpers, which see through wrapping and errors.Join:
//
//	if attribute.IsCoercionError(err) {
//	    // stored text does not match the declared type
//	}
package attribute
