package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medagenda/clinic-backend/internal/rut"
)

// The simulator races N patients at the same (slot, date) pairing. With the
// lock and the uniqueness constraint in place, exactly one booking wins and
// the rest get a conflict.
type simConfig struct {
	BaseURL    string
	Workers    int
	SlotID     int
	Date       string
	Password   string
	RutBase    int // first patient rut body, workers take consecutive ones
	HTTPClient *http.Client
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		BaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		Workers:  getInt("SIM_WORKERS", 20),
		SlotID:   getInt("SIM_SLOT_ID", 1),
		Date:     getEnv("SIM_DATE", nextMonday()),
		Password: getEnv("SIM_PASSWORD", "password123"),
		RutBase:  getInt("SIM_RUT_BASE", 10000000),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	log.Printf("racing %d workers at slot %d on %s via %s",
		cfg.Workers, cfg.SlotID, cfg.Date, cfg.BaseURL)

	var created, conflicts, failures int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			patientRut := rut.Format(cfg.RutBase + worker)
			token, err := login(cfg, patientRut)
			if err != nil {
				log.Printf("worker %d login failed: %v", worker, err)
				atomic.AddInt64(&failures, 1)
				return
			}

			<-start

			status, err := book(cfg, token, patientRut)
			switch {
			case err != nil:
				log.Printf("worker %d booking error: %v", worker, err)
				atomic.AddInt64(&failures, 1)
			case status == http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case status == http.StatusConflict:
				atomic.AddInt64(&conflicts, 1)
			default:
				log.Printf("worker %d unexpected status %d", worker, status)
				atomic.AddInt64(&failures, 1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	fmt.Printf("created=%d conflicts=%d failures=%d\n", created, conflicts, failures)
	if created != 1 {
		log.Fatalf("expected exactly one successful booking, got %d", created)
	}
	log.Println("race resolved cleanly")
}

func login(cfg simConfig, patientRut string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"rut":      patientRut,
		"password": cfg.Password,
	})
	resp, err := cfg.HTTPClient.Post(cfg.BaseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func book(cfg simConfig, token, patientRut string) (int, error) {
	body, _ := json.Marshal(map[string]any{
		"patient_rut":  patientRut,
		"time_slot_id": cfg.SlotID,
		"date":         cfg.Date,
		"description":  "simulated booking",
	})
	req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func nextMonday() string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
