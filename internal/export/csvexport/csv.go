package csvexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"github.com/valyala/bytebufferpool"
)

// Header is the column layout of a single team export.
var Header = []string{"Date", "Home Team", "Away Team", "Score", "Competition", "Stage", "Status"}

// TeamColumn leads every row of a multi team export.
const TeamColumn = "Team"

const ContentType = "text/csv; charset=utf-8"

var ErrHeaderMismatch = errors.New("csv header mismatch")

// Row is the rendered form of a match.Record.
type Row struct {
	Team        string
	Date        string
	HomeTeam    string
	AwayTeam    string
	Score       string
	Competition string
	Stage       string
	Status      string
}

// TeamRecords groups the records of one team for EncodeTeams.
type TeamRecords struct {
	Team    string
	Records []match.Record
}

func RowFromRecord(r match.Record) Row {
	return Row{
		Date:        r.KickoffText(),
		HomeTeam:    r.HomeTeam,
		AwayTeam:    r.AwayTeam,
		Score:       r.Score.String(),
		Competition: r.Competition,
		Stage:       r.Stage,
		Status:      string(r.Status),
	}
}

// Record parses the row back. Date and score sentinels map to the zero kickoff and
// the not played score.
func (r Row) Record() (match.Record, error) {
	out := match.Record{
		HomeTeam:    r.HomeTeam,
		AwayTeam:    r.AwayTeam,
		Competition: r.Competition,
		Stage:       r.Stage,
		Status:      match.Status(r.Status),
	}
	if r.Date != match.UnknownKickoff {
		kickoff, err := time.Parse(match.KickoffLayout, r.Date)
		if err != nil {
			return match.Record{}, fmt.Errorf("parse date %q: %w", r.Date, err)
		}
		out.Kickoff = kickoff.UTC()
		out.KickoffKnown = true
	}
	score, err := match.ParseScore(r.Score)
	if err != nil {
		return match.Record{}, err
	}
	out.Score = score
	return out, nil
}

func (r Row) fields() []string {
	return []string{r.Date, r.HomeTeam, r.AwayTeam, r.Score, r.Competition, r.Stage, r.Status}
}

// Encode writes the header and one row per record to w.
func Encode(w io.Writer, records []match.Record) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(RowFromRecord(record).fields()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	_, err := buf.WriteTo(w)
	return err
}

// EncodeTeams writes a multi team export with a leading Team column.
func EncodeTeams(w io.Writer, teams []TeamRecords) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := cw.Write(append([]string{TeamColumn}, Header...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, team := range teams {
		for _, record := range team.Records {
			if err := cw.Write(append([]string{team.Team}, RowFromRecord(record).fields()...)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	_, err := buf.WriteTo(w)
	return err
}

// ParseTable reads a single or multi team export.
func ParseTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrHeaderMismatch)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	withTeam := false
	switch {
	case slices.Equal(header, Header):
	case len(header) == len(Header)+1 && header[0] == TeamColumn && slices.Equal(header[1:], Header):
		withTeam = true
	default:
		return nil, fmt.Errorf("%w: got %q", ErrHeaderMismatch, header)
	}

	var rows []Row
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("csv line %d: expected %d fields, got %d", line, len(header), len(fields))
		}

		var row Row
		if withTeam {
			row.Team = fields[0]
			fields = fields[1:]
		}
		row.Date = fields[0]
		row.HomeTeam = fields[1]
		row.AwayTeam = fields[2]
		row.Score = fields[3]
		row.Competition = fields[4]
		row.Stage = fields[5]
		row.Status = fields[6]
		rows = append(rows, row)
	}
}
