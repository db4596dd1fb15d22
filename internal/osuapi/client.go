// Package osuapi is a typed client for the osu! API v2.
package osuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// apiVersion selects the lazer score format with acronym/settings mods.
const apiVersion = "20240529"

// Client talks to the osu! API. Every call is bounded by the client timeout.
type Client struct {
	address string
	httpc   *http.Client
	timeout time.Duration
}

var _ contract.ScoreAPI = &Client{} // Compile-time check

// NewClient returns a client using httpc as is. httpc is expected to add authorization.
func NewClient(httpc *http.Client, address string, timeout time.Duration) *Client {
	if address == "" {
		address = contract.DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = contract.DefaultTimeout
	}
	return &Client{
		address: strings.TrimRight(address, "/"),
		httpc:   httpc,
		timeout: timeout,
	}
}

// NewCredentialsClient authenticates with the client credentials grant and the public scope.
func NewCredentialsClient(ctx context.Context, clientID, clientSecret, tokenURL, address string, timeout time.Duration) *Client {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{"public"},
	}
	return NewClient(conf.Client(ctx), address, timeout)
}

// NewTokenClient authenticates with a user access token obtained elsewhere.
func NewTokenClient(ctx context.Context, accessToken, address string, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return NewClient(oauth2.NewClient(ctx, src), address, timeout)
}

// GetUser resolves a user by numeric id or by "@username".
func (c *Client) GetUser(ctx context.Context, key string) (schema.User, error) {
	query := url.Values{"key": {"id"}}
	if name, ok := strings.CutPrefix(key, "@"); ok {
		key = name
		query.Set("key", "username")
	}
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(key)+"/osu", query, &u); err != nil {
		return schema.User{}, fmt.Errorf("get user %s: %w", key, err)
	}
	return u.ToUser(), nil
}

// GetFriends returns the friends of the token owner. It needs a user token.
func (c *Client) GetFriends(ctx context.Context) ([]schema.User, error) {
	var users []User
	if err := c.get(ctx, "/friends", nil, &users); err != nil {
		return nil, fmt.Errorf("get friends: %w", err)
	}
	out := make([]schema.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToUser())
	}
	return out, nil
}

// GetBeatmaps fetches at most contract.BeatmapBatchSize beatmaps in one request.
func (c *Client) GetBeatmaps(ctx context.Context, ids []int) ([]schema.BeatmapSeed, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > contract.BeatmapBatchSize {
		return nil, fmt.Errorf("too many beatmap ids: %d > %d", len(ids), contract.BeatmapBatchSize)
	}
	query := url.Values{}
	for _, id := range ids {
		query.Add("ids[]", strconv.Itoa(id))
	}
	var res beatmapsResponse
	if err := c.get(ctx, "/beatmaps", query, &res); err != nil {
		return nil, fmt.Errorf("get beatmaps: %w", err)
	}
	seeds := make([]schema.BeatmapSeed, 0, len(res.Beatmaps))
	for _, b := range res.Beatmaps {
		seeds = append(seeds, b.ToSeed())
	}
	return seeds, nil
}

// GetUserScores returns one page of recent scores.
func (c *Client) GetUserScores(ctx context.Context, userID int, includeFails bool, limit, offset int) ([]schema.SimpleScoreInfo, error) {
	fails := "0"
	if includeFails {
		fails = "1"
	}
	query := url.Values{
		"include_fails": {fails},
		"mode":          {"osu"},
		"limit":         {strconv.Itoa(limit)},
		"offset":        {strconv.Itoa(offset)},
	}
	var scores []Score
	if err := c.get(ctx, fmt.Sprintf("/users/%d/scores/recent", userID), query, &scores); err != nil {
		return nil, fmt.Errorf("get recent scores of %d: %w", userID, err)
	}
	return toSimple(scores, 0), nil
}

// GetScore fetches one score by id.
func (c *Client) GetScore(ctx context.Context, scoreID string) (schema.SimpleScoreInfo, error) {
	var s Score
	if err := c.get(ctx, "/scores/"+url.PathEscape(scoreID), nil, &s); err != nil {
		return schema.SimpleScoreInfo{}, fmt.Errorf("get score %s: %w", scoreID, err)
	}
	return s.ToSimple(), nil
}

// GetBeatmapUserScores returns all scores of a user on a beatmap.
func (c *Client) GetBeatmapUserScores(ctx context.Context, beatmapID, userID int) ([]schema.SimpleScoreInfo, error) {
	var res beatmapScoresResponse
	path := fmt.Sprintf("/beatmaps/%d/scores/users/%d/all", beatmapID, userID)
	if err := c.get(ctx, path, url.Values{"mode": {"osu"}}, &res); err != nil {
		return nil, fmt.Errorf("get scores of %d on %d: %w", userID, beatmapID, err)
	}
	return toSimple(res.Scores, beatmapID), nil
}

func toSimple(scores []Score, beatmapID int) []schema.SimpleScoreInfo {
	out := make([]schema.SimpleScoreInfo, 0, len(scores))
	for _, s := range scores {
		simple := s.ToSimple()
		if simple.BeatmapID == 0 {
			simple.BeatmapID = beatmapID
		}
		out = append(out, simple)
	}
	return out
}

// get performs a GET and decodes the JSON body into out.
// 404 maps to contract.ErrNotFound; 429, 5xx and transport failures map to contract.ErrTransient.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr := c.address + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", apiVersion)

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w: %w", contract.ErrTransient, err)
	}
	defer func() { _ = res.Body.Close() }()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read body: %w: %w", contract.ErrTransient, err)
	}

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", contract.ErrNotFound, path)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", contract.ErrTransient, res.StatusCode, string(b))
	default:
		return fmt.Errorf("status %d: %s", res.StatusCode, string(b))
	}

	if err := json.NewDecoder(bytes.NewReader(b)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
