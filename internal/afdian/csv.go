package afdian

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Fixed column indexes of the Afdian transaction CSV export.
const (
	colURL      = 2  // sponsor profile URL
	colBio      = 3  // remark / message
	colUsername = 4  // display name
	colAmount   = 7  // transaction amount
	colDate     = 17 // created-at timestamp
)

const maxBioLength = 200

var (
	userIDPattern = regexp.MustCompile(`/u/([a-f0-9]+)`)
	amountPattern = regexp.MustCompile(`[^0-9.]`)
	monthPattern  = regexp.MustCompile(`\d{4}-\d{2}`)
)

// ImportCSV reads an Afdian transaction CSV export and aggregates it into
// one record per sponsor: amounts summed across transactions, the earliest
// contribution month kept as the join date.
func ImportCSV(path string) ([]Record, error) {
	// #nosec G304 -- the path comes from the CLI invocation
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return parseTransactions(data)
}

// parseTransactions aggregates raw CSV bytes into sponsor records.
// Afdian exports are frequently GBK-encoded; anything that is not valid
// UTF-8 is decoded as GB18030, which is a superset of gbk/gb2312/cp936.
func parseTransactions(data []byte) ([]Record, error) {
	if !utf8.Valid(data) {
		decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode CSV as GB18030: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	byID := make(map[string]*Record)

	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line++
		if line == 1 {
			// header row
			continue
		}

		id := extractUserID(field(fields, colURL))
		if id == "" {
			continue
		}

		rec, ok := byID[id]
		if !ok {
			rec = &Record{
				ID:        id,
				AvatarURL: avatarURL(id),
				Website:   fmt.Sprintf(ProfileURLTemplate, id),
			}
			byID[id] = rec
		}

		rec.TotalAmount += parseAmount(field(fields, colAmount))

		if name := field(fields, colUsername); name != "" && preferName(rec.Name) {
			rec.Name = name
		}

		if bio := cleanBio(field(fields, colBio)); len(bio) > len(rec.Bio) {
			rec.Bio = bio
		}

		if month := monthPattern.FindString(field(fields, colDate)); month != "" {
			if rec.JoinDate == "" || month < rec.JoinDate {
				rec.JoinDate = month
			}
		}
	}

	records := make([]Record, 0, len(byID))
	for _, rec := range byID {
		records = append(records, *rec)
	}
	// Map iteration order is random; the builder sorts by amount, so only
	// ties need a deterministic order here.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	return records, nil
}

func field(fields []string, index int) string {
	if index < len(fields) {
		return strings.TrimSpace(strings.Trim(fields[index], `"`))
	}
	return ""
}

// extractUserID pulls the Afdian user ID out of a profile URL.
func extractUserID(url string) string {
	m := userIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// avatarURL builds the Afdian avatar CDN URL for a user.
func avatarURL(userID string) string {
	if userID == "" {
		return DefaultAvatarURL
	}
	return fmt.Sprintf(AvatarCDNTemplate, userID, userID)
}

// parseAmount strips currency symbols and thousands separators.
func parseAmount(s string) float64 {
	cleaned := amountPattern.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}

// preferName reports whether the current name should be replaced by a value
// from a later transaction row. Placeholder names assigned by Afdian are
// always replaced.
func preferName(current string) bool {
	return current == "" || strings.HasPrefix(current, "爱发电用户_")
}

// cleanBio keeps printable BMP characters only and caps the length, matching
// what the launcher can render.
func cleanBio(bio string) string {
	if len(bio) <= 1 {
		return ""
	}
	var b strings.Builder
	for _, r := range bio {
		if unicode.IsPrint(r) && r < 0x10000 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	runes := []rune(cleaned)
	if len(runes) > maxBioLength {
		cleaned = string(runes[:maxBioLength])
	}
	return cleaned
}
