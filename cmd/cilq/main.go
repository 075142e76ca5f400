package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/cici0602/cilq/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{})
	log.SetOutput(os.Stderr)

	if err := NewRootCmd(log).Execute(); err != nil {
		log.Error(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a surfaced oops code to a process exit status. Unrecognized
// errors (flag parsing, I/O outside the taxonomy) get a generic 1.
func exitCode(err error) int {
	oerr, ok := oops.AsOops(err)
	if !ok {
		return 1
	}
	switch oerr.Code() {
	case store.CodeMissingFile:
		return 2
	case store.CodeStoreBusy:
		return 3
	case store.CodeStoreIO:
		return 4
	case "NORMALIZER_ERROR", "SHAPE_ASSERT_ERROR":
		return 5
	default:
		return 1
	}
}
