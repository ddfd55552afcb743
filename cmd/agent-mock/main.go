package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/davidahmann/agent-platform/internal/logging"
	"github.com/davidahmann/agent-platform/internal/mockapi"
)

const defaultAddr = "127.0.0.1:8000"

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(addr string, h *mockapi.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           mockapi.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(addr string, h *mockapi.Handler) *http.Server

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("agent-mock", flag.ContinueOnError)
	addrFlag := fs.String("addr", "", "listen address")
	keySeed := fs.String("key-seed", "", "hex-encoded 32-byte token signing seed (random when empty)")
	seedOrg := fs.String("seed-org", "Demo School", "organization name for the seeded tenant")
	seedOrgType := fs.String("seed-org-type", "school", "org_type for the seeded tenant")
	seedEmail := fs.String("seed-email", "", "create this admin user at startup")
	seedPassword := fs.String("seed-password", "", "password for the seeded admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, levelErr := logging.ParseLevel(getenv("AGENT_LOG_LEVEL"))
	logger := logging.New(os.Stderr, level, firstNonEmpty(getenv("AGENT_LOG_FORMAT"), logging.FormatText))
	if levelErr != nil {
		logger.Warn("log level", "error", levelErr)
	}

	seed, err := signingSeed(firstNonEmpty(*keySeed, getenv("AGENT_MOCK_KEY_SEED")))
	if err != nil {
		return err
	}
	h, err := mockapi.NewHandler(seed, logger)
	if err != nil {
		return err
	}

	if *seedEmail != "" {
		if *seedPassword == "" {
			return errors.New("--seed-password is required with --seed-email")
		}
		tenant, err := h.Seed(*seedOrg, *seedOrgType, *seedEmail, *seedPassword)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("seeded tenant", "tenant_id", tenant.ID, "email", *seedEmail)
	}

	addr := firstNonEmpty(*addrFlag, getenv("AGENT_MOCK_ADDR"), defaultAddr)
	server := factory(addr, h)

	logger.Info("agent-mock listening", "addr", addr)
	if err := listen(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func signingSeed(hexSeed string) ([]byte, error) {
	if hexSeed == "" {
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
		return seed, nil
	}
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, fmt.Errorf("key seed: %w", err)
	}
	return seed, nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
