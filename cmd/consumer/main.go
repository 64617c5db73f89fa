package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/edubridge/lti-bridge/internal/config"
	"github.com/edubridge/lti-bridge/internal/lti"
)

// Signs a single LTI 1.0 launch request, POSTs it to the configured
// provider and prints the raw response. Runs once and exits; transport
// failures are fatal.
func main() {
	cfg := config.FromEnv()

	consumer := &lti.Consumer{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		LaunchURL:      cfg.LaunchURL,
		ResourceLinkID: cfg.ResourceLinkID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := consumer.Launch(ctx, nil)
	if err != nil {
		log.Fatalf("launch failed: %v", err)
	}

	fmt.Println(res.StatusCode)
	for k, vs := range res.Header {
		for _, v := range vs {
			fmt.Printf("%s: %s\n", k, v)
		}
	}
	fmt.Println(res.Body)
}
