package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"teller/internal/ledgertest"
)

// ledgerstub runs the in-memory ledger service on its own, for developing
// against teller without the real backend. All state lives in process memory
// and is lost on exit.
func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("LEDGERSTUB_ADDR", ":8080"), "listen address")
	secret := flag.String("secret", envOr("LEDGERSTUB_SECRET", "dev-secret"), "token signing secret")
	flag.Parse()

	srv := ledgertest.New(*secret)

	log.Printf("ledger stub listening on %s", *addr)
	if err := http.ListenAndServe(*addr, logged(srv)); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
