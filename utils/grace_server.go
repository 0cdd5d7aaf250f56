package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	serverReadTimeout  = 60 * time.Second
	serverWriteTimeout = 60 * time.Second
	shutdownTimeout    = 30 * time.Second

	// A restarted child finds the inherited listener at this fd and this
	// environment marker set.
	inheritedEnvKey = "IS_GRACEFUL"
	inheritedFd     = 3
)

// graceServer serves HTTP with graceful shutdown on SIGTERM and
// zero-downtime restart on SIGUSR2: the listener fd is passed to a freshly
// exec'd copy of the binary, then the old process drains and exits.
type graceServer struct {
	http.Server

	listener net.Listener
	done     chan struct{}
}

// GraceServer listens on addr and serves handler until a shutdown signal.
func GraceServer(addr string, handler http.Handler) error {
	srv := &graceServer{
		Server: http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  serverReadTimeout,
			WriteTimeout: serverWriteTimeout,
		},
		done: make(chan struct{}),
	}

	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}
	srv.listener = ln

	go srv.watchSignals()
	err = srv.Serve(srv.listener)
	// Serve returns as soon as the listener closes; wait for in-flight
	// requests to drain before letting main exit.
	<-srv.done
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (srv *graceServer) listen(addr string) (net.Listener, error) {
	if os.Getenv(inheritedEnvKey) != "" {
		ln, err := net.FileListener(os.NewFile(inheritedFd, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *graceServer) watchSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range sigs {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			logInfof("received %s, shutting down", sig)
			srv.drain()
			return
		case syscall.SIGUSR2:
			pid, err := srv.forkChild()
			if err != nil {
				logErrorf("graceful restart failed: %v, continuing to serve", err)
				continue
			}
			logInfof("graceful restart: handed listener to pid %d", pid)
			srv.drain()
			return
		}
	}
}

func (srv *graceServer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logErrorf("shutdown: %v", err)
	}
	close(srv.done)
}

// forkChild re-execs the current binary with the listener fd attached.
func (srv *graceServer) forkChild() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener %T does not expose a file descriptor", srv.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}

	env := []string{inheritedEnvKey + "=1"}
	for _, e := range os.Environ() {
		if e != inheritedEnvKey+"=1" {
			env = append(env, e)
		}
	}

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

func logInfof(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Infof(format, args...)
	}
}

func logErrorf(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Errorf(format, args...)
	}
}
