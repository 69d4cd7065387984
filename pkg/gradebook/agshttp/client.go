package agshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mind-engage/fofgrade/pkg/gradebook"
	"golang.org/x/oauth2/clientcredentials"
)

const scoreScope = "https://purl.imsglobal.org/spec/lti-ags/scope/score"

type Client struct {
	http *http.Client
}

type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string // defaults to the AGS score scope
	Timeout      time.Duration
}

func New(cfg Config) *Client {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{scoreScope}
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       scopes,
	}
	h := cc.Client(context.Background())
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{http: h}
}

// PostScore sends POST {lineItemURL}/scores.
func (c *Client) PostScore(ctx context.Context, lineItemURL string, s gradebook.Score) error {
	payload := map[string]any{
		"userId": s.UserID, "scoreGiven": s.ScoreGiven, "scoreMaximum": s.ScoreMaximum,
		"activityProgress": s.ActivityProgress, "gradingProgress": s.GradingProgress,
		"timestamp": s.Timestamp.Format(time.RFC3339),
	}
	if s.Comment != "" {
		payload["comment"] = s.Comment
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(lineItemURL, "/") {
		lineItemURL += "/"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lineItemURL+"scores", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/vnd.ims.lis.v1.score+json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("post score: %s", res.Status)
	}
	return nil
}
