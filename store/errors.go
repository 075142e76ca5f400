package store

import "github.com/samber/oops"

// Error codes for the store-layer taxonomy members.
const (
	CodeStoreBusy    = "STORE_BUSY"
	CodeStoreIO      = "STORE_IO_ERROR"
	CodeMissingFile  = "MISSING_FILE"
)

// errBusy reports that a per-file write transaction could not acquire its
// lock before the configured timeout elapsed.
func errBusy(path string, err error) error {
	return oops.Code(CodeStoreBusy).
		With("path", path).
		Wrap(err)
}

// errIO reports any persistence-layer failure that isn't lock contention:
// connection loss, constraint violation, malformed row, ...
func errIO(op, path string, err error) error {
	return oops.Code(CodeStoreIO).
		With("op", op).
		With("path", path).
		Wrap(err)
}

// ErrMissingFile reports that a from-diff or refresh target does not exist
// on disk.
func ErrMissingFile(path string) error {
	return oops.Code(CodeMissingFile).
		With("path", path).
		Errorf("file not found: %s", path)
}
