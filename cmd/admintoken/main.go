// Package main выпускает токен оператора для административного API KleanLoop.
//
// Использование:
//
//	ADMIN_SECRET=... admintoken -sub ops -ttl 8h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmeshcher/kleanloop/internal/middleware"
)

type options struct {
	Secret string `env:"ADMIN_SECRET"`
}

func main() {
	var opts options
	if err := env.Parse(&opts); err != nil {
		fmt.Fprintf(os.Stderr, "parse env: %v\n", err)
		os.Exit(1)
	}

	secret := flag.String("k", opts.Secret, "secret for signing admin tokens")
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	token, err := middleware.IssueAdminToken(*secret, *subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
