package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// ImportedBusiness is one spreadsheet row ready for the business service.
type ImportedBusiness struct {
	Row     int
	Owner   string
	Request model.CreateBusinessRequest
}

type ImportSummary struct {
	Rows    int      `json:"rows"`
	Valid   int      `json:"valid"`
	Skipped int      `json:"skipped"`
	Reasons []string `json:"reasons,omitempty"`
}

func (s *ImportSummary) skip(row int, reason string) {
	s.Skipped++
	s.Reasons = append(s.Reasons, fmt.Sprintf("row %d: %s", row, reason))
}

// ReadBusinesses parses the first sheet of a workbook. The header row names
// the columns; unknown columns are ignored and column order is free.
func ReadBusinesses(r io.Reader, defaultOwner string) ([]ImportedBusiness, *ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"name", "category", "address"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", required)
		}
	}

	summary := &ImportSummary{}
	seen := make(map[string]bool)
	var out []ImportedBusiness

	for i, row := range rows[1:] {
		line := i + 2
		get := func(col string) string {
			idx, ok := columns[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := get("name")
		if name == "" && get("address") == "" {
			continue
		}
		summary.Rows++

		category := model.Category(strings.ToLower(get("category")))
		if !category.Valid() {
			summary.skip(line, "unknown category "+string(category))
			continue
		}
		if n := len([]rune(name)); n < 3 || n > 50 {
			summary.skip(line, "name must be 3-50 characters")
			continue
		}
		address := get("address")
		if len([]rune(address)) < 10 {
			summary.skip(line, "address must be at least 10 characters")
			continue
		}

		owner := defaultOwner
		if v := get("owner"); v != "" {
			owner = v
		}
		if owner = chain.NormalizeAddress(owner); owner == "" {
			summary.skip(line, "missing or invalid owner address")
			continue
		}

		key := strings.ToLower(name + "|" + address)
		if seen[key] {
			summary.skip(line, "duplicate business")
			continue
		}
		seen[key] = true

		req := model.CreateBusinessRequest{
			ID:          get("id"),
			Name:        name,
			Description: get("description"),
			Category:    category,
			Address:     address,
			PhoneNumber: get("phone"),
			Website:     get("website"),
			Email:       get("email"),
			OpenTime:    get("open"),
			CloseTime:   get("close"),
			PriceRange:  get("price_range"),
		}
		if reason := checkOptional(&req); reason != "" {
			summary.skip(line, reason)
			continue
		}

		lat, errLat := strconv.ParseFloat(get("latitude"), 64)
		lng, errLng := strconv.ParseFloat(get("longitude"), 64)
		if errLat == nil && errLng == nil && util.ValidCoordinates(lat, lng) {
			req.Latitude, req.Longitude = lat, lng
		}
		if specialties := get("specialties"); specialties != "" {
			for _, s := range strings.Split(specialties, ";") {
				if s = strings.TrimSpace(s); s != "" {
					req.Specialties = append(req.Specialties, s)
				}
			}
		}

		out = append(out, ImportedBusiness{Row: line, Owner: owner, Request: req})
		summary.Valid++
	}

	return out, summary, nil
}

func checkOptional(req *model.CreateBusinessRequest) string {
	switch {
	case req.Email != "" && !util.IsValidEmail(req.Email):
		return "invalid email"
	case req.Website != "" && !util.IsValidWebsite(req.Website):
		return "invalid website"
	case req.PhoneNumber != "" && !util.IsValidPhone(req.PhoneNumber):
		return "invalid phone number"
	case req.OpenTime != "" && !util.IsValidClock(req.OpenTime):
		return "invalid open time"
	case req.CloseTime != "" && !util.IsValidClock(req.CloseTime):
		return "invalid close time"
	}
	return ""
}
