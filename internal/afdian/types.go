package afdian

// queryRequest is the signed request body for the Afdian open API.
type queryRequest struct {
	UserID string `json:"user_id"`
	Params string `json:"params"`
	TS     int64  `json:"ts"`
	Sign   string `json:"sign"`
}

// queryResponse is the envelope every Afdian open API call returns.
// EC is 200 on success; EM carries the server-side message otherwise.
type queryResponse struct {
	EC   int       `json:"ec"`
	EM   string    `json:"em"`
	Data queryData `json:"data"`
}

type queryData struct {
	TotalPage int          `json:"total_page"`
	List      []apiSponsor `json:"list"`
}

// apiSponsor is one entry of the query-sponsor list. Amounts come back as
// decimal strings and first_pay_time as a "YYYY-MM-DD hh:mm:ss" string.
type apiSponsor struct {
	User         apiUser `json:"user"`
	AllSumAmount string  `json:"all_sum_amount"`
	FirstPayTime string  `json:"first_pay_time"`
}

type apiUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Record is an aggregated sponsor before tier assignment. Both the API
// client and the CSV importer produce records; the builder turns them into
// a dataset.
type Record struct {
	ID          string
	Name        string
	Bio         string
	TotalAmount float64
	JoinDate    string // YYYY-MM, earliest contribution
	AvatarURL   string
	Website     string
}
