package leaderboardservice

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
)

// ExportXLSX renders the full leaderboard as a spreadsheet: fixed columns,
// then one column per metric from each row's average scores.
func (s *LeaderboardService) ExportXLSX(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "ExportXLSX")
	defer span.End()
	s.metrics.RecordOperationAttempt("ExportXLSX")

	subs, err := s.rankedSubmissions(ctx, actor, phaseID, 0, 0)
	if err != nil {
		s.metrics.RecordOperationFailure("ExportXLSX")
		return nil, err
	}

	entries := make([]Entry, 0, len(subs))
	metricOrder := []string{}
	metricSeen := map[string]bool{}
	for i, sub := range subs {
		entry := toEntry(&sub, i+1)
		entries = append(entries, entry)
		for _, m := range entry.Metrics {
			if !metricSeen[m.Name] {
				metricSeen[m.Name] = true
				metricOrder = append(metricOrder, m.Name)
			}
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []any{"Rank", "Participant", "Title", "Approach", "Overall Score"}
	for _, name := range metricOrder {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, entry := range entries {
		byName := map[string]*float64{}
		for _, m := range entry.Metrics {
			byName[m.Name] = m.Value
		}
		row := []any{entry.Rank, entry.CreatorName, entry.Title, entry.Approach, entry.OverallScore}
		for _, name := range metricOrder {
			if v := byName[name]; v != nil {
				row = append(row, *v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write leaderboard row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.metrics.RecordOperationFailure("ExportXLSX")
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	s.logger.InfoContext(ctx, "Leaderboard exported",
		attr.ExtractCorrelationID(ctx),
		attr.Stringer("phase_id", phaseID),
		attr.Int("rows", len(entries)),
	)
	s.metrics.RecordOperationSuccess("ExportXLSX")
	return buf.Bytes(), nil
}
