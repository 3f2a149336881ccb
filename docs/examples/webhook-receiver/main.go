// Shopwatch Alert Receiver Example
//
// This is a minimal example of how to receive and verify Shopwatch
// price alerts.
//
// Usage:
//   export SHOPWATCH_ALERT_SECRET="<secret returned when the endpoint was created>"
//   go run main.go
//
// Then configure your Shopwatch alert endpoint to point to
// http://your-server:9000/alerts

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"
)

// PriceAlert represents the payload for price.reached events
type PriceAlert struct {
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      AlertData `json:"data"`
}

type AlertData struct {
	ProductID   string `json:"product_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	ListedPrice int64  `json:"listed_price"`
	TargetPrice int64  `json:"target_price"`
}

func main() {
	secret := os.Getenv("SHOPWATCH_ALERT_SECRET")
	if secret == "" {
		log.Fatal("SHOPWATCH_ALERT_SECRET environment variable is required")
	}

	http.HandleFunc("/alerts", alertHandler(signingKey(secret)))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting alert receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/alerts")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

// signingKey derives the HMAC key from the endpoint secret. Shopwatch
// never stores the plaintext secret; it keeps the hex-encoded SHA-256
// digest and signs deliveries with that digest. Receivers must derive
// the same digest from the secret shown once at endpoint creation.
func signingKey(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(digest[:])
}

func alertHandler(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Read body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		// Get signature headers
		signature := r.Header.Get("X-Shopwatch-Signature")
		timestamp := r.Header.Get("X-Shopwatch-Timestamp")
		if signature == "" || timestamp == "" {
			log.Println("Missing signature headers")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		// Verify signature
		if !verifySignature(signature, timestamp, string(body), key) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// Parse event
		var alert PriceAlert
		if err := json.Unmarshal(body, &alert); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Process the event
		log.Printf("✓ Received %s event %s", alert.EventType, alert.EventID)
		log.Printf("  Product:      %s (%s)", alert.Data.Title, alert.Data.ProductID)
		log.Printf("  Listed price: %d", alert.Data.ListedPrice)
		log.Printf("  Target price: %d", alert.Data.TargetPrice)
		log.Printf("  Link:         %s", alert.Data.Link)

		// Respond with 200 OK
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature verifies the HMAC-SHA256 signature from Shopwatch
//
// Headers:
//
//	X-Shopwatch-Signature: hex-encoded HMAC-SHA256
//	X-Shopwatch-Timestamp: unix seconds when the delivery was signed
//
// Signed payload: {timestamp}.{body}
// The HMAC key is the derived signing key, not the plaintext secret.
func verifySignature(signature, timestamp, body, key string) bool {
	// Check timestamp (±5 min tolerance)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	// Compute expected signature
	signedPayload := fmt.Sprintf("%d.%s", ts, body)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(expected), []byte(signature))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
