// Command credcleanup deletes stale access credentials from the door
// access provider. A credential is stale when its end date lies more
// than two days in the past. One-off maintenance tool; run by hand.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type credential struct {
	ID      int64      `json:"id"`
	EndDate *time.Time `json:"endDate"`
}

type credentialList struct {
	Data []credential `json:"data"`
}

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	baseURL := flag.String("base-url", "https://helium.prodeu1.openpath.com", "access provider base URL")
	org := flag.Int64("org", 0, "organization id")
	user := flag.Int64("user", 0, "user id")
	olderThanDays := flag.Int("older-than", 2, "delete credentials whose end date is more than this many days old")
	limit := flag.Int("limit", 1000, "page size when listing credentials")
	dryRun := flag.Bool("dry-run", false, "list stale credentials without deleting")
	flag.Parse()

	auth := os.Getenv("CREDCLEANUP_TOKEN")
	if auth == "" {
		logger.Fatal().Msg("set CREDCLEANUP_TOKEN to the provider authorization token")
	}
	if *org == 0 || *user == 0 {
		logger.Fatal().Msg("both -org and -user are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: 30 * time.Second}
	base := fmt.Sprintf("%s/orgs/%d/users/%d/credentials", *baseURL, *org, *user)

	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day()-*olderThanDays, 0, 0, 0, 0, now.Location())

	stale, err := listStale(ctx, client, auth, base, *limit, cutoff)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list credentials")
	}
	logger.Info().Int("stale", len(stale)).Time("cutoff", cutoff).Msg("stale credentials found")

	if *dryRun {
		for _, c := range stale {
			logger.Info().Int64("id", c.ID).Time("end_date", *c.EndDate).Msg("would delete")
		}
		return
	}

	deleted := 0
	for _, c := range stale {
		if err := deleteCredential(ctx, client, auth, base, c.ID); err != nil {
			logger.Error().Err(err).Int64("id", c.ID).Msg("delete failed")
			continue
		}
		deleted++
		logger.Info().Int("deleted", deleted).Int("total", len(stale)).Int64("id", c.ID).Msg("credential deleted")
	}
	logger.Info().Int("deleted", deleted).Int("stale", len(stale)).Msg("cleanup complete")
}

func listStale(ctx context.Context, client *http.Client, auth, base string, limit int, cutoff time.Time) ([]credential, error) {
	var stale []credential
	for offset := 0; ; offset += limit {
		url := fmt.Sprintf("%s?limit=%d&offset=%d", base, limit, offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("list credentials: http %d", resp.StatusCode)
		}

		var page credentialList
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		for _, c := range page.Data {
			if c.EndDate != nil && c.EndDate.Before(cutoff) {
				stale = append(stale, c)
			}
		}
		if len(page.Data) < limit {
			return stale, nil
		}
	}
}

func deleteCredential(ctx context.Context, client *http.Client, auth, base string, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", base, id), http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return nil
}
