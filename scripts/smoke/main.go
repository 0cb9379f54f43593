// Command smoke exercises a running portal instance end to end: it logs
// in, walks the read endpoints, and reports per-target status and latency.
// Intended for deploy verification, not load testing.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type target struct {
	Name     string `json:"name"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type result struct {
	Target   target
	Status   int
	Duration time.Duration
	Error    error
}

var defaultTargets = []target{
	{Name: "health", Method: http.MethodGet, Path: "/health", Critical: true},
	{Name: "readiness", Method: http.MethodGet, Path: "/ready", Critical: true},
	{Name: "list requests", Method: http.MethodGet, Path: "/api/v1/defense-requests?limit=1", Critical: true},
	{Name: "list panelists", Method: http.MethodGet, Path: "/api/v1/panelists?limit=1", Critical: true},
	{Name: "calendar", Method: http.MethodGet, Path: "/api/v1/coordinator/schedule/calendar?from=2026-01-01&to=2026-12-31", Critical: false},
	{Name: "honoraria", Method: http.MethodGet, Path: "/api/v1/honoraria?limit=1", Critical: false},
}

func main() {
	var (
		base        string
		email       string
		password    string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "", "Login email (skips authenticated targets when empty)")
	flag.StringVar(&password, "password", "", "Login password")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON targets file overriding the defaults")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}

	var token string
	if email != "" {
		var err error
		token, err = login(client, base, email, password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}

	var failed int
	results := make([]result, 0, len(targets))
	for _, t := range targets {
		res := check(client, base, token, t)
		if res.Error != nil || res.Status >= http.StatusInternalServerError {
			if t.Critical {
				failed++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	if failed > 0 {
		fmt.Printf("%d critical target(s) failed\n", failed)
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var targets []target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return targets, nil
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(base+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Data.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return envelope.Data.AccessToken, nil
}

func check(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}
	req, err := http.NewRequest(tgt.Method, base+tgt.Path, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res.Status = resp.StatusCode
	return res
}

func printReport(results []result) {
	fmt.Printf("%-20s %-6s %-40s %-8s %s\n", "NAME", "METHOD", "PATH", "STATUS", "DURATION")
	for _, r := range results {
		status := fmt.Sprintf("%d", r.Status)
		if r.Error != nil {
			status = "ERR"
		}
		fmt.Printf("%-20s %-6s %-40s %-8s %s\n", r.Target.Name, r.Target.Method, r.Target.Path, status, r.Duration.Round(time.Millisecond))
		if r.Error != nil {
			fmt.Printf("  error: %v\n", r.Error)
		}
	}
}
