// Package afdian regenerates the sponsors document from Afdian, either by
// querying the open API or by importing a transaction CSV export.
package afdian

import (
	"context"
	"crypto/md5" // #nosec G501 -- Afdian's request signing scheme is md5-based
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotatingartdev/ral-sponsors/pkg/httpclient"
)

const (
	// DefaultAPIURL is the Afdian open API endpoint for sponsor queries
	DefaultAPIURL = "https://afdian.com/api/open/query-sponsor"

	// AvatarCDNTemplate is the Afdian avatar CDN URL scheme
	AvatarCDNTemplate = "https://pic1.afdiancdn.com/user/%s/avatar/%s_w.jpeg"

	// DefaultAvatarURL is used when a sponsor has no avatar
	DefaultAvatarURL = "https://pic1.afdiancdn.com/default/avatar/avatar-purple.png"

	// ProfileURLTemplate is the public Afdian profile URL scheme
	ProfileURLTemplate = "https://afdian.com/u/%s"

	ecOK = 200
)

// Client queries the Afdian open API with signed requests.
type Client struct {
	http   httpclient.Client
	apiURL string
	userID string
	token  string
}

// NewClient creates an Afdian API client. An empty apiURL uses DefaultAPIURL.
func NewClient(httpClient httpclient.Client, apiURL, userID, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		http:   httpClient,
		apiURL: apiURL,
		userID: userID,
		token:  token,
	}
}

// sign computes the Afdian request signature:
// md5(token + "params" + params + "ts" + ts + "user_id" + user_id).
func sign(token, userID, params string, ts int64) string {
	payload := fmt.Sprintf("%sparams%sts%duser_id%s", token, params, ts, userID)
	sum := md5.Sum([]byte(payload)) // #nosec G401 -- required by the Afdian API
	return hex.EncodeToString(sum[:])
}

// FetchSponsors retrieves all sponsors, following the API's pagination until
// the reported total page count is reached.
func (c *Client) FetchSponsors(ctx context.Context) ([]Record, error) {
	var records []Record

	for page := 1; ; page++ {
		data, err := c.queryPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to query sponsor page %d: %w", page, err)
		}

		for _, s := range data.List {
			if s.User.UserID == "" {
				continue
			}
			records = append(records, recordFromAPI(s))
		}

		if page >= data.TotalPage || len(data.List) == 0 {
			break
		}
	}

	return records, nil
}

// queryPage performs one signed query-sponsor call.
func (c *Client) queryPage(ctx context.Context, page int) (*queryData, error) {
	params := fmt.Sprintf(`{"page":%d}`, page)
	ts := time.Now().Unix()

	reqBody, err := json.Marshal(queryRequest{
		UserID: c.userID,
		Params: params,
		TS:     ts,
		Sign:   sign(c.token, c.userID, params, ts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := c.http.Post(ctx, c.apiURL, reqBody)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if resp.EC != ecOK {
		return nil, fmt.Errorf("afdian API error %d: %s", resp.EC, resp.EM)
	}

	return &resp.Data, nil
}

// recordFromAPI converts one API entry into an aggregated record.
func recordFromAPI(s apiSponsor) Record {
	avatar := s.User.Avatar
	if avatar == "" {
		avatar = DefaultAvatarURL
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(s.AllSumAmount), 64)
	if err != nil {
		amount = 0
	}

	joinDate := ""
	if len(s.FirstPayTime) >= 7 {
		joinDate = s.FirstPayTime[:7]
	}

	return Record{
		ID:          s.User.UserID,
		Name:        s.User.Name,
		TotalAmount: amount,
		JoinDate:    joinDate,
		AvatarURL:   avatar,
		Website:     fmt.Sprintf(ProfileURLTemplate, s.User.UserID),
	}
}
