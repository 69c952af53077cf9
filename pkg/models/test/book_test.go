package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookJSON_YearPeriod(t *testing.T) {
	var b models.Book
	require.NoError(t, json.Unmarshal([]byte(`{"isbn":"1","readStatus":"read","dateFormat":"year","readYear":2021}`), &b))
	assert.Equal(t, models.YearPeriod{Year: 2021}, b.Period)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `"dateFormat":"year"`)
	assert.Contains(t, s, `"readYear":2021`)
	assert.Contains(t, s, `"startDate":null`)
	assert.Contains(t, s, `"authors":[]`)
}

func TestBookJSON_RangePeriod(t *testing.T) {
	var b models.Book
	require.NoError(t, json.Unmarshal([]byte(`{"isbn":"1","dateFormat":"date","startDate":"2023-12-30","endDate":"2024-01-02T00:00:00Z"}`), &b))
	p, ok := b.Period.(models.RangePeriod)
	require.True(t, ok)
	assert.Equal(t, "2023-12-30", p.Start.String())
	require.NotNil(t, p.End)
	assert.Equal(t, "2024-01-02", p.End.String())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"endDate":"2024-01-02"`)
	assert.Contains(t, string(out), `"readYear":null`)
}

func TestBookJSON_RejectsMixedPeriod(t *testing.T) {
	bad := []string{
		`{"isbn":"1","dateFormat":"year"}`,
		`{"isbn":"1","dateFormat":"year","readYear":2020,"startDate":"2020-01-01"}`,
		`{"isbn":"1","dateFormat":"date"}`,
		`{"isbn":"1","dateFormat":"date","startDate":"2020-01-01","readYear":2020}`,
		`{"isbn":"1","readYear":2020}`,
		`{"isbn":"1","dateFormat":"decade"}`,
		`{"isbn":"1","dateFormat":"date","startDate":"01/02/2020"}`,
	}
	for _, body := range bad {
		var b models.Book
		assert.Error(t, json.Unmarshal([]byte(body), &b), body)
	}
}

func TestBookValidate(t *testing.T) {
	start := models.NewDate(2024, time.March, 1)
	before := models.NewDate(2024, time.February, 1)
	minutes := 600
	pages := 200

	cases := []struct {
		name    string
		book    models.Book
		wantErr string
	}{
		{"defaults are valid", models.Book{ISBN: "1"}, ""},
		{"missing isbn", models.Book{}, "isbn"},
		{"read needs period", models.Book{ISBN: "1", ReadStatus: models.StatusRead}, "read book"},
		{"read with year", models.Book{ISBN: "1", ReadStatus: models.StatusRead, Period: models.YearPeriod{Year: 2020}}, ""},
		{"reading needs range", models.Book{ISBN: "1", ReadStatus: models.StatusReading, Period: models.YearPeriod{Year: 2020}}, "being read"},
		{"reading without end", models.Book{ISBN: "1", ReadStatus: models.StatusReading, Period: models.RangePeriod{Start: start}}, ""},
		{"reading with end", models.Book{ISBN: "1", ReadStatus: models.StatusReading, Period: models.RangePeriod{Start: start, End: &start}}, "endDate"},
		{"read range without end", models.Book{ISBN: "1", ReadStatus: models.StatusRead, Period: models.RangePeriod{Start: start}}, "needs an endDate"},
		{"read range with end", models.Book{ISBN: "1", ReadStatus: models.StatusRead, Period: models.RangePeriod{Start: before, End: &start}}, ""},
		{"end before start", models.Book{ISBN: "1", ReadStatus: models.StatusRead, Period: models.RangePeriod{Start: start, End: &before}}, "before startDate"},
		{"audio length on physical", models.Book{ISBN: "1", AudioLength: &minutes}, "audioLength"},
		{"audio length on audio", models.Book{ISBN: "1", ReadFormat: models.FormatAudio, AudioLength: &minutes}, ""},
		{"ebook pages on audio", models.Book{ISBN: "1", ReadFormat: models.FormatAudio, EbookPageCount: &pages}, "ebookPageCount"},
		{"bad status", models.Book{ISBN: "1", ReadStatus: "skimmed"}, "readStatus"},
		{"negative pages", models.Book{ISBN: "1", PageCount: -1}, "pageCount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.book
			b.ApplyDefaults()
			err := b.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.wantErr), "error %q should mention %q", err, tc.wantErr)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	b := models.Book{ISBN: "1"}
	b.ApplyDefaults()
	assert.Equal(t, models.StatusNotRead, b.ReadStatus)
	assert.Equal(t, models.FormatPhysical, b.ReadFormat)
}
