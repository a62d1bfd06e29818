// Command pooldraftctl administers the pooldraft store: it seeds the master
// roster, edits candidates and creates or inspects events.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pooldraft/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
