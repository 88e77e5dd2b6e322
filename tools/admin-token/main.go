// Command admin-token mints an operator token for the salon admin API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/libs/auth"
	"github.com/md-rashed-zaman/glamflow/libs/config"
)

func main() {
	_ = config.LoadDotEnv(".env")

	var (
		secret  = flag.String("secret", config.String("JWT_SECRET", ""), "HS256 signing secret shared with salon-service")
		subject = flag.String("sub", config.String("ADMIN_SUBJECT", "operator"), "operator name recorded in the token")
		ttl     = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("JWT_SECRET is required")
	}
	if *ttl <= 0 {
		fatal("ttl must be positive")
	}

	token, err := auth.Issue(strings.TrimSpace(*subject), auth.RoleAdmin, *ttl, *secret)
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(token)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
