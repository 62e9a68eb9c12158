package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"time"

	"wizdraft/internal/api"
	"wizdraft/internal/config"
)

const (
	serverStartTimeout = 5 * time.Second
	serverStopTimeout  = 5 * time.Second
	serverPollInterval = 100 * time.Millisecond
	pingTimeout        = 500 * time.Millisecond
)

// withClient runs fn against the configured API, spawning a private
// "wizdraft srv" for the duration of fn when nothing is listening.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)

	srv, err := ensureServer(cfg, client)
	if err != nil {
		return err
	}
	if srv != nil {
		defer srv.stop()
	}
	return fn(client)
}

// spawnedServer is a child "wizdraft srv" process owned by this CLI run.
type spawnedServer struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func ensureServer(cfg *config.Config, client *api.Client) (*spawnedServer, error) {
	if ping(client, pingTimeout) == nil {
		return nil, nil
	}

	srv, err := spawnServer(cfg)
	if err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}
	if err := waitForServer(client, serverStartTimeout); err != nil {
		srv.stop()
		return nil, err
	}
	return srv, nil
}

func spawnServer(cfg *config.Config) (*spawnedServer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(),
		"WIZDRAFT_DATA_DIR="+cfg.DataDir,
		"WIZDRAFT_API_URL="+cfg.APIURL,
		"WIZDRAFT_BLOB_BACKEND="+cfg.Blobs.Backend,
	)
	cmd.Stdout, cmd.Stderr = io.Discard, io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	srv := &spawnedServer{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(srv.done)
	}()
	return srv, nil
}

// stop interrupts the server so it can close its stores, and kills it if it
// is still running after serverStopTimeout.
func (s *spawnedServer) stop() {
	if err := s.cmd.Process.Signal(os.Interrupt); err == nil {
		select {
		case <-s.done:
			return
		case <-time.After(serverStopTimeout):
		}
	}
	_ = s.cmd.Process.Kill()
	<-s.done
}

func waitForServer(client *api.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()
	for {
		err := ping(client, 2*serverPollInterval)
		switch {
		case err == nil:
			return nil
		case !isConnRefused(err):
			// Something else owns the port.
			return err
		}

		select {
		case <-ctx.Done():
			return errors.New("server did not start in time")
		case <-ticker.C:
		}
	}
}

func ping(client *api.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx)
}

func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
