package afdian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotatingartdev/ral-sponsors/pkg/httpclient"
)

func TestSign(t *testing.T) {
	t.Parallel()

	got := sign("token123", "user456", `{"page":1}`, 1700000000)
	assert.Equal(t, "85a4dce19f11641ece397100d52bb6b2", got)
}

func TestFetchSponsorsPaginates(t *testing.T) {
	t.Parallel()

	const token = "secret-token"
	const userID = "owner123"

	pages := map[int]queryData{
		1: {
			TotalPage: 2,
			List: []apiSponsor{
				{
					User:         apiUser{UserID: "aabb01", Name: "Star", Avatar: "https://pic1.afdiancdn.com/user/aabb01/avatar/x.jpeg"},
					AllSumAmount: "250.00",
					FirstPayTime: "2023-11-02 10:00:00",
				},
				{
					// Entries without a user ID are skipped.
					AllSumAmount: "10.00",
				},
			},
		},
		2: {
			TotalPage: 2,
			List: []apiSponsor{
				{
					User:         apiUser{UserID: "ccdd02", Name: "Nova"},
					AllSumAmount: "18.00",
					FirstPayTime: "2025-01-15 00:00:00",
				},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, userID, req.UserID)
		require.Equal(t, sign(token, userID, req.Params, req.TS), req.Sign, "request must carry a valid signature")

		var params struct {
			Page int `json:"page"`
		}
		require.NoError(t, json.Unmarshal([]byte(req.Params), &params))

		data, ok := pages[params.Page]
		require.True(t, ok, "unexpected page %d", params.Page)

		resp := queryResponse{EC: ecOK, Data: data}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(httpclient.NewDefaultClient(0), server.URL, userID, token)
	records, err := client.FetchSponsors(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)

	star := records[0]
	assert.Equal(t, "aabb01", star.ID)
	assert.Equal(t, "Star", star.Name)
	assert.InDelta(t, 250.0, star.TotalAmount, 0.001)
	assert.Equal(t, "2023-11", star.JoinDate)
	assert.Equal(t, "https://pic1.afdiancdn.com/user/aabb01/avatar/x.jpeg", star.AvatarURL)
	assert.Equal(t, "https://afdian.com/u/aabb01", star.Website)

	nova := records[1]
	assert.Equal(t, "ccdd02", nova.ID)
	assert.Equal(t, DefaultAvatarURL, nova.AvatarURL, "missing avatars fall back to the default")
}

func TestFetchSponsorsAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ec":400001,"em":"sign is invalid"}`)
	}))
	defer server.Close()

	client := NewClient(httpclient.NewDefaultClient(0), server.URL, "owner123", "bad-token")
	_, err := client.FetchSponsors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign is invalid")
	assert.Contains(t, err.Error(), "400001")
}
