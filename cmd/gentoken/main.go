// Command gentoken mints an HS256 admin token for the maintenance API.
//
//	ADMIN_JWT_SECRET=... gentoken -sub cron -scope maintenance:run -ttl 720h
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/traceline/pkg/jwtx"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gentoken", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("sub", "operator", "token subject")
	scopes := fs.String("scope", jwtx.ScopeMaintenanceRun, "comma separated scopes")
	ttl := fs.Duration("ttl", jwtx.DefaultAdminTokenTTL, "token lifetime")
	issuer := fs.String("iss", envOr("ADMIN_JWT_ISSUER", "traceline-admin"), "token issuer")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	secret := os.Getenv("ADMIN_JWT_SECRET")
	signer, err := jwtx.NewSignerHS256([]byte(secret))
	if err != nil {
		fmt.Fprintf(stderr, "gentoken: ADMIN_JWT_SECRET: %v\n", err)
		return 2
	}

	var list []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	tok, err := signer.Sign(jwtx.NewAdminClaims(*subject, list, *ttl, *issuer, nil, time.Now()))
	if err != nil {
		fmt.Fprintf(stderr, "gentoken: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, tok)
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
