package dberr

// Stable 12-character error tags, grouped by category prefix: CFG
// (Configuration), RES (Resource), STA (State), DRV (Driver), INT
// (Integrity). Each is validated for format, letter count, run length,
// and global uniqueness by newCode at package-init time — a duplicate or
// malformed tag panics before main runs. cmd/cppdbc-lint re-checks the
// same invariants statically across the whole module's source.
var (
	// Configuration — invalid at setup, fatal to the caller.
	CodeUnknownScheme           = newCode("CFGUNKSCHM01")
	CodeBadURL                  = newCode("CFGBADURLS02")
	CodeUnsupportedIsolationCfg = newCode("CFGISOLEVL03")
	CodePoolSizing              = newCode("CFGPOOLSIZ04")
	CodeMaxSizeZero             = newCode("CFGMAXZERO05")
	CodeInitialGTMax            = newCode("CFGINITMAX06")

	// Resource — recoverable with retry or reconfiguration.
	CodePoolTimeout   = newCode("RESPOOLTMO01")
	CodePoolExhausted = newCode("RESPOOLEXH02")
	CodePoolClosed    = newCode("RESPOOLCLS03")
	CodeConnClosed    = newCode("RESCONNCLS04")
	CodePoolInitFatal = newCode("RESINITFAL05")

	// State — violated preconditions, programmer error.
	CodeNoActiveTxCommit        = newCode("STANOTXCOM01")
	CodeNoActiveTxRollback      = newCode("STANOTXROL02")
	CodeBadParamIndex           = newCode("STABADINDX03")
	CodeAlreadyInTx             = newCode("STAALRDYTX04")
	CodeUnsupportedIsolationSet = newCode("STAISOSETX05")
	CodeAlreadyClosedStmt       = newCode("STASTMTCLS06")
	CodeTxNotFound              = newCode("STATXNOFND07")
	CodeTxAlreadyEnlisted       = newCode("STATXENLST08")

	// Driver — wrapped failure from the underlying client.
	CodeDriverConnect = newCode("DRVCONNFAL01")
	CodeDriverParse   = newCode("DRVPARSEER02")
	CodeDriverExec    = newCode("DRVEXECFAL03")
	CodeResultSetOpen = newCode("DRVRSOPENX04")

	// Integrity — structured, multi-step failure context.
	CodePartialCommit    = newCode("INTPARTCOM01")
	CodeValidationFailed = newCode("INTVALIDFL02")
	CodePoisonedConn     = newCode("INTPOISOND03")
	CodeTxTimedOut       = newCode("INTTXTMOUT04")
)

// Codes returns every registered tag, sorted by registration order. Used
// by this package's tests asserting the tag-format and uniqueness
// invariants; cmd/cppdbc-lint does not call it and checks the source
// statically instead.
func Codes() []string {
	out := make([]string, 0, len(registry))
	for _, name := range []string{
		CodeUnknownScheme, CodeBadURL, CodeUnsupportedIsolationCfg, CodePoolSizing,
		CodeMaxSizeZero, CodeInitialGTMax, CodePoolTimeout, CodePoolExhausted,
		CodePoolClosed, CodeConnClosed, CodePoolInitFatal, CodeNoActiveTxCommit,
		CodeNoActiveTxRollback, CodeBadParamIndex, CodeAlreadyInTx,
		CodeUnsupportedIsolationSet, CodeAlreadyClosedStmt, CodeTxNotFound,
		CodeTxAlreadyEnlisted, CodeDriverConnect,
		CodeDriverParse, CodeDriverExec, CodeResultSetOpen, CodePartialCommit,
		CodeValidationFailed, CodePoisonedConn, CodeTxTimedOut,
	} {
		out = append(out, name)
	}
	return out
}
