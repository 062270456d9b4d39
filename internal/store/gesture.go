package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// GestureRepository provides access to stored gesture templates.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

// List retrieves all templates in library order.
func (r *GestureRepository) List() ([]gesture.Template, error) {
	rows, err := r.db.Query(
		`SELECT g.id, g.name, l.x, l.y, l.z
		 FROM gestures g
		 LEFT JOIN gesture_landmarks l ON l.gesture_id = g.id
		 ORDER BY g.position, l.landmark_index`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []gesture.Template
	lastID := ""
	for rows.Next() {
		var id, name string
		var x, y, z sql.NullFloat64
		if err := rows.Scan(&id, &name, &x, &y, &z); err != nil {
			return nil, err
		}

		if id != lastID {
			templates = append(templates, gesture.Template{Name: name})
			lastID = id
		}
		if !x.Valid {
			continue
		}
		t := &templates[len(templates)-1]
		t.Landmarks = append(t.Landmarks, detector.Point3D{X: x.Float64, Y: y.Float64, Z: z.Float64})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// ReplaceAll deletes every stored template and inserts templates in a single
// transaction.
func (r *GestureRepository) ReplaceAll(templates []gesture.Template) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gestures`); err != nil {
		return err
	}

	insertGesture, err := tx.Prepare(
		`INSERT INTO gestures (id, name, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer insertGesture.Close()

	insertLandmark, err := tx.Prepare(
		`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer insertLandmark.Close()

	now := time.Now()
	for i, t := range templates {
		id := uuid.NewString()
		if _, err := insertGesture.Exec(id, t.Name, i, now, now); err != nil {
			return err
		}
		for j, p := range t.Landmarks {
			if _, err := insertLandmark.Exec(id, j, p.X, p.Y, p.Z); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Delete removes a template by name.
func (r *GestureRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE name = ?`, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
