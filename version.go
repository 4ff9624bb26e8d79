package sigkv

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
)

// set by -ldflags "-X github.com/glycerine/sigkv.LAST_GIT_COMMIT_HASH=..."
var LAST_GIT_COMMIT_HASH string
var NEAREST_GIT_TAG string
var GIT_BRANCH string

// GetCodeVersion describes the build. Without ldflags,
// the commit comes from the go toolchain's vcs stamp.
func GetCodeVersion(programName string) string {
	commit := LAST_GIT_COMMIT_HASH
	modified := ""
	modVersion := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok {
		modVersion = bi.Main.Version
		for _, kv := range bi.Settings {
			switch kv.Key {
			case "vcs.revision":
				if commit == "" {
					commit = kv.Value
				}
			case "vcs.modified":
				if kv.Value == "true" {
					modified = " (modified)"
				}
			}
		}
	}
	return fmt.Sprintf("%s %s commit: %s%s / nearest-git-tag: %s / branch: %s / go version: %s\n",
		programName, modVersion, commit, modified, NEAREST_GIT_TAG, GIT_BRANCH, runtime.Version())
}

// Exit1IfVersionReq prints the version and exits
// if -version or --version is anywhere on the command line.
func Exit1IfVersionReq() {
	for _, a := range os.Args[1:] {
		if a == "-version" || a == "--version" {
			fmt.Fprintf(os.Stderr, "%s", GetCodeVersion(os.Args[0]))
			os.Exit(1)
		}
	}
}
