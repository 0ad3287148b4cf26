// Command devtoken mints a bearer token for local testing.
//
//	go run ./cmd/devtoken -id u-1 -name "Mrs. Okafor" -role bursar
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/platform/config"
	"github.com/SscSPs/school_workflow_app/internal/utils"
)

func main() {
	id := flag.String("id", "", "principal id")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(domain.RoleTeacher), "role: admin, principal, bursar, exam_officer or teacher")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_EXPIRY_DURATION)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	p := domain.Principal{ID: *id, Name: *name, Role: domain.Role(*role)}
	if p.ID == "" || !p.Role.IsValid() {
		flag.Usage()
		os.Exit(2)
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	expiry := cfg.JWTExpiryDuration
	if *ttl > time.Duration(0) {
		expiry = *ttl
	}

	token, err := utils.GenerateJWT(p, cfg.JWTSecret, expiry, cfg.JWTIssuer)
	if err != nil {
		slog.Error("Failed to generate token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
