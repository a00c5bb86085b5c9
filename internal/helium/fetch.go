package helium

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
	"github.com/superself/amazon-monitor/internal/tabular"
)

type exportResponse struct {
	Code int `json:"code"`
	Data struct {
		Results struct {
			CSV string `json:"csv"`
		} `json:"results"`
	} `json:"data"`
}

// FetchWeeklyRanks fetches the tracker export for every product that has
// a tracker id and declared keywords, one bounded goroutine per product,
// and fills in the mean organic rank per keyword. Per-product failures
// are logged and leave that product's ranks at zero; the batch fails
// only when no product received any update.
func (c *Client) FetchWeeklyRanks(ctx context.Context, products []*models.Product, targetDate string) error {
	done := steplog.Start(Tag, "fetch keyword ranks for week of "+targetDate)

	start, end, err := weekWindow(targetDate)
	if err != nil {
		done(err)
		return err
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		updated   int
		attempted int
	)
	sem := make(chan struct{}, c.concurrency)

	for _, p := range products {
		if p.Helium.ID == 0 {
			steplog.Warnf(Tag, "%s: no keyword tracker id, skipping", p.ASIN)
			continue
		}
		if len(p.Helium.Ranks) == 0 {
			steplog.Warnf(Tag, "%s: no tracked keywords, skipping", p.ASIN)
			continue
		}
		attempted++
		wg.Add(1)
		go func(p *models.Product) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			applied, err := c.fetchProduct(ctx, p, start, end)
			if err != nil {
				steplog.Errorf(Tag, "%s: %v", p.ASIN, err)
				return
			}
			if applied > 0 {
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	if attempted > 0 && updated == 0 {
		err := fmt.Errorf("no keyword ranks fetched for any product")
		done(err)
		return err
	}

	steplog.Infof(Tag, "keyword ranks updated for %d/%d products", updated, attempted)
	done(nil)
	return nil
}

// fetchProduct downloads and applies one product's export. Transport
// errors (after retries) are returned; bad statuses, envelope error
// codes and malformed CSV are downgraded to warnings with zero updates,
// since the tracker routinely has gaps.
func (c *Client) fetchProduct(ctx context.Context, p *models.Product, start, end int64) (int, error) {
	endpoint := fmt.Sprintf("%s/rta/kt/v1/products/%d/export?accountId=%d&dateStart=%d&dateEnd=%d",
		c.baseURL, p.Helium.ID, c.accountID, start, end)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create export request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("X-Pacvue-Token", "Bearer "+c.pacvueToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("export request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read export response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		steplog.Warnf(Tag, "%s: export returned status %d", p.ASIN, resp.StatusCode)
		return 0, nil
	}

	var envelope exportResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		steplog.Warnf(Tag, "%s: malformed export response: %v", p.ASIN, err)
		return 0, nil
	}
	if envelope.Code != http.StatusOK {
		steplog.Warnf(Tag, "%s: export returned code %d", p.ASIN, envelope.Code)
		return 0, nil
	}

	ranks, err := parseRanks(envelope.Data.Results.CSV)
	if err != nil {
		steplog.Warnf(Tag, "%s: %v", p.ASIN, err)
		return 0, nil
	}
	return applyRanks(p, ranks), nil
}

// parseRanks reads the export CSV into observed ranks per keyword.
// Keywords are lowercased so sheet spelling and tracker spelling match.
func parseRanks(csvText string) (map[string][]float64, error) {
	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse export csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("export csv has no data rows")
	}

	kwCol, rankCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case "Keyword":
			kwCol = i
		case "Organic Rank":
			rankCol = i
		}
	}
	if kwCol < 0 || rankCol < 0 {
		return nil, fmt.Errorf("export csv missing Keyword / Organic Rank columns")
	}

	ranks := make(map[string][]float64)
	for _, row := range rows[1:] {
		if kwCol >= len(row) || rankCol >= len(row) {
			continue
		}
		kw := strings.ToLower(strings.TrimSpace(row[kwCol]))
		if kw == "" {
			continue
		}
		ranks[kw] = append(ranks[kw], tabular.CoerceNumber(row[rankCol]))
	}
	return ranks, nil
}

// applyRanks stores the mean observed rank for each declared keyword,
// rounded to one decimal. Keywords absent from the export keep rank 0.
func applyRanks(p *models.Product, ranks map[string][]float64) int {
	applied := 0
	for i := range p.Helium.Ranks {
		kw := &p.Helium.Ranks[i]
		vals := ranks[strings.ToLower(kw.Word)]
		if len(vals) == 0 {
			continue
		}
		var sum float64
		for _, v := range vals {
			sum += v
		}
		kw.Rank = tabular.Round(sum/float64(len(vals)), 1)
		applied++
	}
	return applied
}

// weekWindow converts a DD/Mon/YY target date into the epoch-second
// bounds of the last full tracking week: the window ends on the Sunday
// strictly before the target and spans seven days.
func weekWindow(targetDate string) (int64, int64, error) {
	dt, err := time.ParseInLocation("02/Jan/06", targetDate, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("parse target date %q: %w", targetDate, err)
	}
	wd := (int(dt.Weekday()) + 6) % 7 // Monday=0
	end := dt.AddDate(0, 0, -(wd + 1))
	start := end.AddDate(0, 0, -6)
	return start.Unix(), end.Unix(), nil
}
