package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// WriteCSV menulis activity log sebagai CSV dengan header.
func WriteCSV(rows []shared.ActivityLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "waktu", "user_id", "username", "aksi", "detail"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		userID := ""
		if row.UserID != nil {
			userID = strconv.FormatInt(*row.UserID, 10)
		}
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
			userID,
			row.Username,
			row.Action,
			row.Details,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
