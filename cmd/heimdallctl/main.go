// Command heimdallctl drives the credential lifecycle end to end:
// generating issuer keys, issuing credentials, maintaining a
// revocation registry, generating the attribute, range and delegation
// presentation variants, and verifying all four variants (polygon
// included) against real circuit artifacts. The polygon variant is not
// generated from the command line.
package main

import (
	"fmt"
	"os"

	"heimdall/internal/hashfn"
	"heimdall/pkg/config"
	"heimdall/pkg/logging"
)

var hasher hashfn.Capability = hashfn.Poseidon2{}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	if err := logging.Init(cfg.Development); err != nil {
		fmt.Fprintf(os.Stderr, "heimdallctl: initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "keygen":
		err = runKeygen(args)
	case "issue":
		err = runIssue(cfg, args)
	case "revoke":
		err = runRevoke(cfg, args)
	case "status":
		err = runStatus(cfg, args)
	case "present":
		err = runPresent(cfg, args)
	case "verify":
		err = runVerify(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "heimdallctl: unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		logging.Error("command failed", logFieldsForError(cmd, err)...)
		fmt.Fprintf(os.Stderr, "heimdallctl: %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage: heimdallctl <command> [flags]

Commands:
  keygen   -out <path>                               generate an issuer/holder signing key
  issue    -issuer <key> -holder-pub <x,y> ...        issue a credential, writing its Document JSON
  revoke   -registry <path> -issuer <key> -id <n>     toggle a credential id's revocation bit
  status   -registry <path> -id <n>                   report a credential id's revocation status
  present  -variant attribute|range|delegation ...   build and prove a presentation
  verify   -variant ... -proof <path>                 re-verify a previously generated presentation

Run 'heimdallctl <command> -h' for a command's full flag set.`)
}
