package cli

import (
	"fmt"
	"runtime"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("ideflow %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	return nil
}
