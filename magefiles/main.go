//go:build mage

// Package main provides development automation.
package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/advdv/stdgo/stdlo"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	//mage:import dev
	"github.com/advdv/stdgo/stdmage/stdmagedev"
)

func init() {
	stdmagedev.Init()
}

// Dev groups commands for local development.
type Dev mg.Namespace

// Serve runs ninoverse locally against the store and queue configured in the environment.
// The trace exporter defaults to none so the terminal only shows the logs.
func (Dev) Serve() error {
	env := map[string]string{}
	if os.Getenv("NINO_OTEL_EXPORTER") == "" {
		env["NINO_OTEL_EXPORTER"] = "none"
	}

	if err := sh.RunWithV(env, "go", "run", "./cmd/ninoverse"); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Smoke sends the three canonical requests to a running ninoverse on SELF_PORT.
func (Dev) Smoke() error {
	port := os.Getenv("SELF_PORT")
	if port == "" {
		port = "7878"
	}

	for _, req := range []string{
		`printf 'GET / HTTP/1.1\r\nHost: localhost\r\n\r\n' | nc localhost ` + port,
		`printf 'POST /project/add HTTP/1.1\r\nHost: localhost\r\n\r\n{"name":"smoke"}' | nc localhost ` + port,
		`printf 'GET /bogus HTTP/1.1\r\n\r\n' | nc localhost ` + port,
	} {
		if err := sh.RunV("sh", "-c", req); err != nil {
			return fmt.Errorf("failed to send %q: %w", req, err)
		}
		fmt.Println()
	}

	return nil
}

// Release tags a new version and pushes it.
func (Dev) Release() error {
	version := string(stdlo.Must1(os.ReadFile("version.txt")))

	if !regexp.MustCompile(`^v([0-9]+).([0-9]+).([0-9]+)$`).Match([]byte(version)) {
		return fmt.Errorf("invalid version format: %s", version)
	}

	if err := sh.Run("git", "tag", version); err != nil {
		return fmt.Errorf("failed to tag version: %w", err)
	}

	if err := sh.Run("git", "push", "origin", version); err != nil {
		return fmt.Errorf("failed to push version tag: %w", err)
	}

	return nil
}
