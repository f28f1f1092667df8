package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
)

// FrameRepository stores the frames of recordings.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append adds frames to the end of a recording in a single transaction
// and updates the recording's frame count.
func (r *FrameRepository) Append(recordingID string, frames []skeleton.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(`SELECT frames FROM recordings WHERE id = ?`, recordingID).Scan(&next)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO recording_frames (recording_id, sequence, timestamp_ms, slots) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range frames {
		slots, err := json.Marshal(frames[i].Slots)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(recordingID, next+i, frames[i].Timestamp.UnixMilli(), string(slots)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE recordings SET frames = ?, updated_at = ? WHERE id = ?`,
		next+len(frames), time.Now(), recordingID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByRecordingID returns a recording's frames in capture order.
func (r *FrameRepository) GetByRecordingID(recordingID string) ([]skeleton.Frame, error) {
	rows, err := r.db.Query(
		`SELECT timestamp_ms, slots FROM recording_frames
		 WHERE recording_id = ?
		 ORDER BY sequence`,
		recordingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []skeleton.Frame
	for rows.Next() {
		var (
			ms    int64
			slots string
		)
		if err := rows.Scan(&ms, &slots); err != nil {
			return nil, err
		}
		f := skeleton.Frame{Timestamp: time.UnixMilli(ms)}
		if err := json.Unmarshal([]byte(slots), &f.Slots); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}
