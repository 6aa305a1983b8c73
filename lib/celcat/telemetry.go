package celcat

import (
	"cyucal-backend/lib/restyutil"
	"cyucal-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("cyucal.lib.celcat")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables request/response dumps for clients
// constructed after the call.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
