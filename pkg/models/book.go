package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type ReadStatus string

const (
	StatusNotRead ReadStatus = "not read"
	StatusReading ReadStatus = "reading"
	StatusRead    ReadStatus = "read"
)

type ReadFormat string

const (
	FormatPhysical ReadFormat = "physical"
	FormatDigital  ReadFormat = "digital"
	FormatAudio    ReadFormat = "audio"
)

type DateFormat string

const (
	DateFormatYear DateFormat = "year"
	DateFormatDate DateFormat = "date"
)

// ReadPeriod records when a book was read: either a whole year or a date range.
// The only implementations are YearPeriod and RangePeriod.
type ReadPeriod interface {
	DateFormat() DateFormat
	isReadPeriod()
}

type YearPeriod struct {
	Year int
}

func (YearPeriod) DateFormat() DateFormat { return DateFormatYear }
func (YearPeriod) isReadPeriod()          {}

// RangePeriod is an inclusive range of days. End is nil while the book is
// still being read.
type RangePeriod struct {
	Start Date
	End   *Date
}

func (RangePeriod) DateFormat() DateFormat { return DateFormatDate }
func (RangePeriod) isReadPeriod()          {}

// Book is a personal library entry. (UserID, ISBN) is unique.
type Book struct {
	ID             string
	UserID         string
	ISBN           string
	Title          string
	Authors        []string
	PublishedDate  string
	Thumbnail      string
	Description    string
	PageCount      int
	EbookPageCount *int
	AudioLength    *int
	ReadStatus     ReadStatus
	ReadFormat     ReadFormat
	CurrentPage    *int
	Period         ReadPeriod
	CreatedAt      time.Time
}

type bookJSON struct {
	ID             string     `json:"id,omitempty"`
	UserID         string     `json:"userId,omitempty"`
	ISBN           string     `json:"isbn"`
	Title          string     `json:"title"`
	Authors        []string   `json:"authors"`
	PublishedDate  string     `json:"publishedDate"`
	Thumbnail      string     `json:"thumbnail"`
	Description    string     `json:"description"`
	PageCount      int        `json:"pageCount"`
	EbookPageCount *int       `json:"ebookPageCount"`
	AudioLength    *int       `json:"audioLength"`
	ReadStatus     ReadStatus `json:"readStatus"`
	ReadFormat     ReadFormat `json:"readFormat"`
	CurrentPage    *int       `json:"currentPage"`
	DateFormat     DateFormat `json:"dateFormat,omitempty"`
	ReadYear       *int       `json:"readYear"`
	StartDate      *Date      `json:"startDate"`
	EndDate        *Date      `json:"endDate"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

func (b Book) MarshalJSON() ([]byte, error) {
	out := bookJSON{
		ID:             b.ID,
		UserID:         b.UserID,
		ISBN:           b.ISBN,
		Title:          b.Title,
		Authors:        b.Authors,
		PublishedDate:  b.PublishedDate,
		Thumbnail:      b.Thumbnail,
		Description:    b.Description,
		PageCount:      b.PageCount,
		EbookPageCount: b.EbookPageCount,
		AudioLength:    b.AudioLength,
		ReadStatus:     b.ReadStatus,
		ReadFormat:     b.ReadFormat,
		CurrentPage:    b.CurrentPage,
	}
	if out.Authors == nil {
		out.Authors = []string{}
	}
	if !b.CreatedAt.IsZero() {
		created := b.CreatedAt
		out.CreatedAt = &created
	}
	switch p := b.Period.(type) {
	case YearPeriod:
		year := p.Year
		out.DateFormat = DateFormatYear
		out.ReadYear = &year
	case RangePeriod:
		start := p.Start
		out.DateFormat = DateFormatDate
		out.StartDate = &start
		out.EndDate = p.End
	}
	return json.Marshal(out)
}

func (b *Book) UnmarshalJSON(data []byte) error {
	var in bookJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	period, err := periodFromWire(in.DateFormat, in.ReadYear, in.StartDate, in.EndDate)
	if err != nil {
		return err
	}
	*b = Book{
		ID:             in.ID,
		UserID:         in.UserID,
		ISBN:           in.ISBN,
		Title:          in.Title,
		Authors:        in.Authors,
		PublishedDate:  in.PublishedDate,
		Thumbnail:      in.Thumbnail,
		Description:    in.Description,
		PageCount:      in.PageCount,
		EbookPageCount: in.EbookPageCount,
		AudioLength:    in.AudioLength,
		ReadStatus:     in.ReadStatus,
		ReadFormat:     in.ReadFormat,
		CurrentPage:    in.CurrentPage,
		Period:         period,
	}
	if in.CreatedAt != nil {
		b.CreatedAt = *in.CreatedAt
	}
	return nil
}

func periodFromWire(format DateFormat, year *int, start, end *Date) (ReadPeriod, error) {
	start, end = setDate(start), setDate(end)
	switch format {
	case DateFormatYear:
		if year == nil {
			return nil, errors.New("dateFormat \"year\" requires readYear")
		}
		if start != nil || end != nil {
			return nil, errors.New("dateFormat \"year\" must not carry startDate or endDate")
		}
		return YearPeriod{Year: *year}, nil
	case DateFormatDate:
		if start == nil {
			return nil, errors.New("dateFormat \"date\" requires startDate")
		}
		if year != nil {
			return nil, errors.New("dateFormat \"date\" must not carry readYear")
		}
		return RangePeriod{Start: *start, End: end}, nil
	case "":
		if year != nil || start != nil || end != nil {
			return nil, errors.New("dateFormat is required when readYear or dates are set")
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid dateFormat %q", format)
	}
}

// ApplyDefaults fills the status and format a new entry starts with.
func (b *Book) ApplyDefaults() {
	if b.ReadStatus == "" {
		b.ReadStatus = StatusNotRead
	}
	if b.ReadFormat == "" {
		b.ReadFormat = FormatPhysical
	}
}

// Validate checks the cross-field rules of a library entry.
func (b *Book) Validate() error {
	if b.ISBN == "" {
		return errors.New("isbn is required")
	}
	switch b.ReadStatus {
	case StatusNotRead, StatusReading, StatusRead:
	default:
		return fmt.Errorf("invalid readStatus %q", b.ReadStatus)
	}
	switch b.ReadFormat {
	case FormatPhysical, FormatDigital, FormatAudio:
	default:
		return fmt.Errorf("invalid readFormat %q", b.ReadFormat)
	}
	if b.PageCount < 0 {
		return errors.New("pageCount must not be negative")
	}
	if b.AudioLength != nil && b.ReadFormat != FormatAudio {
		return errors.New("audioLength is only valid for audio format")
	}
	if b.EbookPageCount != nil && b.ReadFormat != FormatDigital {
		return errors.New("ebookPageCount is only valid for digital format")
	}

	if b.ReadStatus == StatusRead {
		if b.Period == nil {
			return errors.New("a read book needs a readYear or a date range")
		}
		if r, ok := b.Period.(RangePeriod); ok && r.End == nil {
			return errors.New("a read book with dateFormat \"date\" needs an endDate")
		}
	}
	if b.ReadStatus == StatusReading {
		r, ok := b.Period.(RangePeriod)
		if !ok {
			return errors.New("a book being read needs dateFormat \"date\" with a startDate")
		}
		if r.End != nil {
			return errors.New("a book being read must not have an endDate")
		}
	}
	if r, ok := b.Period.(RangePeriod); ok && r.End != nil && r.End.Before(r.Start) {
		return errors.New("endDate is before startDate")
	}
	return nil
}

// BookUpdate is a partial edit of a library entry; nil fields are kept.
// Replacing the period names its dateFormat as a new entry would. Without a
// dateFormat, startDate and endDate adjust the existing date range, which is
// how a book being read is finished.
type BookUpdate struct {
	ReadStatus  *ReadStatus `json:"readStatus"`
	PageCount   *int        `json:"pageCount"`
	CurrentPage *int        `json:"currentPage"`
	DateFormat  DateFormat  `json:"dateFormat"`
	ReadYear    *int        `json:"readYear"`
	StartDate   *Date       `json:"startDate"`
	EndDate     *Date       `json:"endDate"`
}

// Apply merges u into b. The result still has to pass Validate.
func (u BookUpdate) Apply(b *Book) error {
	if u.ReadStatus != nil {
		b.ReadStatus = *u.ReadStatus
	}
	if u.PageCount != nil {
		b.PageCount = *u.PageCount
	}
	if u.CurrentPage != nil {
		b.CurrentPage = u.CurrentPage
	}

	if u.DateFormat != "" {
		period, err := periodFromWire(u.DateFormat, u.ReadYear, u.StartDate, u.EndDate)
		if err != nil {
			return err
		}
		b.Period = period
		return nil
	}
	if u.ReadYear != nil {
		return errors.New("readYear requires dateFormat \"year\"")
	}
	startDate, endDate := setDate(u.StartDate), setDate(u.EndDate)
	if startDate == nil && endDate == nil {
		return nil
	}
	r, ok := b.Period.(RangePeriod)
	if !ok {
		return errors.New("dateFormat \"date\" is required to set a date range")
	}
	if startDate != nil {
		r.Start = *startDate
	}
	if endDate != nil {
		end := *endDate
		r.End = &end
	}
	b.Period = r
	return nil
}
