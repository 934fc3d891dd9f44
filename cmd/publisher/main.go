package main

import (
	"encoding/json"
	"log"
	"os"

	stan "github.com/nats-io/stan.go"

	"github.com/example/flyder-sync-service/internal/adapter/natsstan"
	"github.com/example/flyder-sync-service/internal/domain"
)

// Читает {startDate, endDate, limit?, offset?} из stdin и публикует запрос синхронизации.
func main() {
	clusterID := getenv("STAN_CLUSTER_ID", "test-cluster")
	clientID := getenv("STAN_PUB_ID", "flyder-sync-publisher")
	natsURL := getenv("NATS_URL", "nats://localhost:4222")
	subject := getenv("STAN_SUBJECT", natsstan.DefaultSubject)

	var req domain.SyncRequest
	dec := json.NewDecoder(os.Stdin)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Fatalf("read json from stdin: %v", err)
	}
	if _, err := req.Window(); err != nil {
		log.Fatalf("invalid request: %v", err)
	}

	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
	if err != nil {
		log.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	n, err := natsstan.Publish(sc, subject, req)
	if err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published %d bytes to %s", n, subject)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
